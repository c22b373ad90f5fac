// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMemoryCapacity bounds the in-process cache.
const DefaultMemoryCapacity = 10000

type lruEntry struct {
	key       string
	value     []byte
	prev      *lruEntry
	next      *lruEntry
	expiresAt time.Time
}

// Memory is a thread-safe LRU with per-entry TTL. Get, Set and eviction
// are O(1); expired entries are removed lazily on access.
type Memory struct {
	mu sync.Mutex

	capacity int
	items    map[string]*lruEntry

	// head.next is the most recently used, tail.prev the least.
	head *lruEntry
	tail *lruEntry

	hits      int64
	misses    int64
	evictions int64

	now func() time.Time
}

// Stats is a snapshot of Memory counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// NewMemory creates an LRU holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	m := &Memory{
		capacity: capacity,
		items:    make(map[string]*lruEntry),
		head:     &lruEntry{},
		tail:     &lruEntry{},
		now:      time.Now,
	}
	m.head.next = m.tail
	m.tail.prev = m.head
	return m
}

// Get implements Backend.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.items[key]
	if !ok {
		m.misses++
		return nil, false, nil
	}
	if m.now().After(entry.expiresAt) {
		m.remove(entry)
		m.misses++
		m.evictions++
		return nil, false, nil
	}
	m.moveToFront(entry)
	m.hits++
	return entry.value, true, nil
}

// Set implements Backend.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt := m.now().Add(ttl)
	if entry, ok := m.items[key]; ok {
		entry.value = value
		entry.expiresAt = expiresAt
		m.moveToFront(entry)
		return nil
	}

	entry := &lruEntry{key: key, value: value, expiresAt: expiresAt}
	m.addToFront(entry)
	m.items[key] = entry

	for len(m.items) > m.capacity {
		m.remove(m.tail.prev)
		m.evictions++
	}
	return nil
}

// Close implements Backend.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]*lruEntry)
	m.head.next = m.tail
	m.tail.prev = m.head
	return nil
}

// Stats returns a snapshot of the counters.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Hits: m.hits, Misses: m.misses, Evictions: m.evictions, Size: len(m.items)}
}

// Must be called with the lock held.
func (m *Memory) addToFront(entry *lruEntry) {
	entry.prev = m.head
	entry.next = m.head.next
	m.head.next.prev = entry
	m.head.next = entry
}

func (m *Memory) moveToFront(entry *lruEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	m.addToFront(entry)
}

func (m *Memory) remove(entry *lruEntry) {
	if entry == m.head || entry == m.tail {
		return
	}
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(m.items, entry.key)
}
