// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type payload struct {
	Count    int     `json:"count"`
	MatchIDs []int64 `json:"match_ids"`
}

func TestDoCachesResults(t *testing.T) {
	c := New(NewMemory(10), time.Minute)
	ctx := context.Background()
	calls := 0
	fn := func(context.Context) (payload, error) {
		calls++
		return payload{Count: 2, MatchIDs: []int64{7, 9}}, nil
	}

	first, hit, err := Do(ctx, c, "search", 0, map[string]int{"offset": 0}, fn)
	if err != nil || hit {
		t.Fatalf("Expected miss without error, got hit=%v err=%v", hit, err)
	}
	second, hit, err := Do(ctx, c, "search", 0, map[string]int{"offset": 0}, fn)
	if err != nil || !hit {
		t.Fatalf("Expected hit, got hit=%v err=%v", hit, err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if second.Count != first.Count || len(second.MatchIDs) != 2 || second.MatchIDs[1] != 9 {
		t.Errorf("Expected %+v, got %+v", first, second)
	}

	if _, hit, _ := Do(ctx, c, "search", 0, map[string]int{"offset": 10}, fn); hit {
		t.Error("Expected different params to miss")
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestDoDoesNotCacheErrors(t *testing.T) {
	c := New(NewMemory(10), time.Minute)
	boom := errors.New("boom")
	calls := 0
	fn := func(context.Context) (int, error) {
		calls++
		return 0, boom
	}
	for i := 0; i < 2; i++ {
		if _, _, err := Do(context.Background(), c, "odds", 0, 1, fn); !errors.Is(err, boom) {
			t.Fatalf("Expected boom, got %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("Expected errors to be recomputed, got %d calls", calls)
	}
}

func TestDoNilCache(t *testing.T) {
	var c *Cache
	v, hit, err := Do(context.Background(), c, "x", 0, nil, func(context.Context) (string, error) {
		return "fresh", nil
	})
	if err != nil || hit || v != "fresh" {
		t.Errorf("Expected pass-through, got %q hit=%v err=%v", v, hit, err)
	}
	if New(nil, time.Minute) != nil {
		t.Error("Expected nil backend to disable caching")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Expected nil cache Close to succeed, got %v", err)
	}
}

func TestGenerateKey(t *testing.T) {
	a := GenerateKey("odds", map[string]any{"type_id": 0, "map": "Arabia"})
	b := GenerateKey("odds", map[string]any{"map": "Arabia", "type_id": 0})
	if a != b {
		t.Errorf("Expected map key order not to matter, got %s and %s", a, b)
	}
	if !strings.HasPrefix(a, "odds:") {
		t.Errorf("Expected namespace prefix, got %s", a)
	}
	if a == GenerateKey("search", map[string]any{"type_id": 0, "map": "Arabia"}) {
		t.Error("Expected namespaces to produce different keys")
	}
}
