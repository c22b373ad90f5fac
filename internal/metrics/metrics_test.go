// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

func getCounterValue(c prometheus.Counter) float64 {
	var m io_prometheus_client.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{context.DeadlineExceeded, "timeout"},
		{fmt.Errorf("store: fetch all: %w", context.Canceled), "canceled"},
		{errors.New("relation \"matches\" does not exist"), "query"},
	}
	for _, tt := range tests {
		if got := ErrorType(tt.err); got != tt.want {
			t.Errorf("ErrorType(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRecordStoreQuery(t *testing.T) {
	before := testutil.ToFloat64(StoreQueryErrors.WithLabelValues("postgres", "fetch_all", "timeout"))

	RecordStoreQuery("postgres", "fetch_all", 5*time.Millisecond, nil)
	RecordStoreQuery("postgres", "fetch_all", time.Second, context.DeadlineExceeded)

	after := testutil.ToFloat64(StoreQueryErrors.WithLabelValues("postgres", "fetch_all", "timeout"))
	if after != before+1 {
		t.Errorf("Expected timeout errors to increase by 1, got %v -> %v", before, after)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits := getCounterValue(CacheHits.WithLabelValues("odds"))
	misses := getCounterValue(CacheMisses.WithLabelValues("odds"))

	RecordCacheLookup("odds", true)
	RecordCacheLookup("odds", false)
	RecordCacheLookup("odds", false)

	if got := getCounterValue(CacheHits.WithLabelValues("odds")); got != hits+1 {
		t.Errorf("Expected hits %v, got %v", hits+1, got)
	}
	if got := getCounterValue(CacheMisses.WithLabelValues("odds")); got != misses+2 {
		t.Errorf("Expected misses %v, got %v", misses+2, got)
	}
}

func TestRecordOddsScenario(t *testing.T) {
	before := getCounterValue(OddsScenarios.WithLabelValues("teams", "undersampled"))
	RecordOddsScenario("teams", true)
	if got := getCounterValue(OddsScenarios.WithLabelValues("teams", "undersampled")); got != before+1 {
		t.Errorf("Expected undersampled count %v, got %v", before+1, got)
	}
}

func TestRecordDownload(t *testing.T) {
	bytesBefore := getCounterValue(RecDownloadBytes)
	errorsBefore := getCounterValue(RecDownloads.WithLabelValues("error"))

	RecordDownload(2048, nil)
	RecordDownload(0, errors.New("no such key"))

	if got := getCounterValue(RecDownloadBytes); got != bytesBefore+2048 {
		t.Errorf("Expected %v bytes, got %v", bytesBefore+2048, got)
	}
	if got := getCounterValue(RecDownloads.WithLabelValues("error")); got != errorsBefore+1 {
		t.Errorf("Expected %v errors, got %v", errorsBefore+1, got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("Expected %v active requests, got %v", before+1, got)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("Expected %v active requests, got %v", before, got)
	}
}
