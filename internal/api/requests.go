// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/aocrecs/internal/ranking"
	"github.com/tomtom215/aocrecs/internal/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// LadderParams selects a platform ladder.
type LadderParams struct {
	PlatformID string `json:"platform_id" validate:"required,identifier"`
	LadderID   int64  `json:"ladder_id" validate:"gt=0"`
	Limit      int    `json:"limit" validate:"gte=1,lte=1000"`
}

// ReportParams selects a monthly report.
type ReportParams struct {
	Year  int `json:"year" validate:"gte=2019"`
	Month int `json:"month" validate:"gte=1,lte=12"`
	Limit int `json:"limit" validate:"gte=1,lte=1000"`
}

func (p ReportParams) month() ranking.Month {
	return ranking.Month{Year: p.Year, Month: time.Month(p.Month)}
}

// decodeBody decodes a JSON body into v and validates it. It writes the
// error response itself and reports whether the handler may continue.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "Invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		WriteBadRequest(w, r, msg)
		return false
	}
	return validate(w, r, v)
}

// validate writes a 400 and returns false when v fails validation.
func validate(w http.ResponseWriter, r *http.Request, v any) bool {
	if verr := validation.ValidateStruct(v); verr != nil {
		apiErr := verr.ToAPIError()
		NewResponseWriter(w, r).ValidationError(apiErr.Message, apiErr.Details)
		return false
	}
	return true
}

// getIntParam reads an integer query parameter, falling back to
// defaultValue when absent or malformed.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	return parseIntParam(r.URL.Query().Get(key), defaultValue)
}

func parseIntParam(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// pathInt64 reads an integer path parameter.
func pathInt64(r *http.Request, key string) (int64, error) {
	raw := chi.URLParam(r, key)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}

// parseCommaSeparatedInts parses "1,2,3", skipping blanks.
func parseCommaSeparatedInts(value string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
