// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aocrecs/internal/blob"
	"github.com/tomtom215/aocrecs/internal/database"
	"github.com/tomtom215/aocrecs/internal/database/query"
	"github.com/tomtom215/aocrecs/internal/logging"
	"github.com/tomtom215/aocrecs/internal/odds"
	"github.com/tomtom215/aocrecs/internal/participants"
)

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var response APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	return response
}

func TestResponseWriter_Success(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	r = r.WithContext(logging.ContextWithRequestID(r.Context(), "req-1"))

	NewResponseWriter(w, r).Success(map[string]string{"message": "hello"})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	response := decodeResponse(t, w)
	if !response.Success {
		t.Error("Expected Success to be true")
	}
	if response.Error != nil {
		t.Error("Expected Error to be nil")
	}
	if response.Meta == nil {
		t.Fatal("Expected Meta to not be nil")
	}
	if response.Meta.Timestamp.IsZero() {
		t.Error("Expected Timestamp to be set")
	}
	if response.Meta.RequestID != "req-1" {
		t.Errorf("Expected request id req-1, got %q", response.Meta.RequestID)
	}
}

func TestResponseWriter_SuccessWithPagination(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	NewResponseWriter(w, r).SuccessWithPagination([]int{1, 2}, &PaginationMeta{
		Total: 100, Count: 2, Limit: 10, HasMore: true,
	})

	response := decodeResponse(t, w)
	if response.Meta == nil || response.Meta.Pagination == nil {
		t.Fatal("Expected pagination metadata")
	}
	if response.Meta.Pagination.Total != 100 {
		t.Errorf("Expected Total 100, got %d", response.Meta.Pagination.Total)
	}
	if !response.Meta.Pagination.HasMore {
		t.Error("Expected HasMore to be true")
	}
}

func TestResponseWriter_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		write      func(rw *ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(rw *ResponseWriter) { rw.BadRequest("bad") }, http.StatusBadRequest, ErrCodeBadRequest},
		{"not found", func(rw *ResponseWriter) { rw.NotFound("gone") }, http.StatusNotFound, ErrCodeNotFound},
		{"unavailable", func(rw *ResponseWriter) { rw.ServiceUnavailable("down") }, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{"validation", func(rw *ResponseWriter) { rw.ValidationError("invalid", map[string]any{"field": "x"}) }, http.StatusBadRequest, ErrCodeValidationFailed},
		{"database", func(rw *ResponseWriter) { rw.DatabaseError(errors.New("pq: secret detail")) }, http.StatusInternalServerError, ErrCodeDatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			tt.write(NewResponseWriter(w, httptest.NewRequest(http.MethodGet, "/test", nil)))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			response := decodeResponse(t, w)
			if response.Success {
				t.Error("Expected Success to be false")
			}
			if response.Error == nil || response.Error.Code != tt.wantCode {
				t.Fatalf("Expected code %s, got %+v", tt.wantCode, response.Error)
			}
			if tt.wantCode == ErrCodeDatabaseError && response.Error.Message != "A database error occurred" {
				t.Errorf("Expected database detail to be hidden, got %q", response.Error.Message)
			}
		})
	}
}

func TestWriteServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid criterion", &query.InvalidCriterionError{Field: "players.nope", Reason: "unknown field"}, http.StatusBadRequest, ErrCodeValidationFailed},
		{"unknown flag", &query.UnknownFlagError{Alias: "nope"}, http.StatusBadRequest, ErrCodeUnknownFlag},
		{"invalid odds", fmt.Errorf("%w: no teams", odds.ErrInvalidRequest), http.StatusBadRequest, ErrCodeValidationFailed},
		{"series missing", participants.ErrSeriesNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"rec missing", blob.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"breaker open", database.ErrStoreUnavailable, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{"downloads off", ErrDownloadsDisabled, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError, ErrCodeDatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			writeServiceError(w, httptest.NewRequest(http.MethodGet, "/test", nil), tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			response := decodeResponse(t, w)
			if response.Error == nil || response.Error.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %+v", tt.wantCode, response.Error)
			}
		})
	}
}
