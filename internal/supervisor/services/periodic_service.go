// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package services

import (
	"context"
	"time"

	"github.com/tomtom215/aocrecs/internal/logging"
	"github.com/tomtom215/aocrecs/internal/metrics"
)

// Task is one run of a periodic job.
type Task func(ctx context.Context) error

// PeriodicService runs a task on a fixed interval. A failing run is logged
// and counted but does not stop the service, so a flapping store does not
// push the supervisor into backoff.
type PeriodicService struct {
	name     string
	interval time.Duration
	task     Task
}

// NewPeriodicService creates a service running task every interval, with
// the first run immediately on start. A non-positive interval defaults
// to one minute.
func NewPeriodicService(name string, interval time.Duration, task Task) *PeriodicService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PeriodicService{name: name, interval: interval, task: task}
}

// Serve implements suture.Service.
func (p *PeriodicService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.run(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *PeriodicService) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	err := p.task(runCtx)
	metrics.RecordMaintenanceRun(p.name, err)
	if err != nil && ctx.Err() == nil {
		logging.Warn().Err(err).Str("task", p.name).Msg("Maintenance task failed")
	}
}

// String names the service in supervisor logs.
func (p *PeriodicService) String() string {
	return p.name
}

// Pinger is satisfied by *database.Store.
type Pinger interface {
	Ping(ctx context.Context) error
	Backend() string
}

// StoreHealthTask pings the store and exports the result as store_up.
func StoreHealthTask(store Pinger) Task {
	return func(ctx context.Context) error {
		err := store.Ping(ctx)
		up := 1.0
		if err != nil {
			up = 0
		}
		metrics.StoreUp.WithLabelValues(store.Backend()).Set(up)
		return err
	}
}

// GarbageCollector is satisfied by *cache.Badger.
type GarbageCollector interface {
	RunGC(discardRatio float64) error
}

// CacheGCTask reclaims space held by expired cache entries.
func CacheGCTask(gc GarbageCollector, discardRatio float64) Task {
	return func(context.Context) error {
		return gc.RunGC(discardRatio)
	}
}
