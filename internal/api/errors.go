// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/aocrecs/internal/blob"
	"github.com/tomtom215/aocrecs/internal/database"
	"github.com/tomtom215/aocrecs/internal/database/query"
	"github.com/tomtom215/aocrecs/internal/odds"
	"github.com/tomtom215/aocrecs/internal/participants"
	"github.com/tomtom215/aocrecs/internal/ranking"
)

// ErrDownloadsDisabled is reported when no storage bucket is configured.
var ErrDownloadsDisabled = errors.New("rec downloads are not configured")

// writeServiceError maps a service error to a response. Client errors carry
// the offending field; everything else is reported as a database error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)

	var ice *query.InvalidCriterionError
	var ufe *query.UnknownFlagError
	switch {
	case errors.As(err, &ice):
		rw.ValidationError(ice.Error(), map[string]any{"field": ice.Field})
	case errors.As(err, &ufe):
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeUnknownFlag, ufe.Error(), map[string]any{"flag": ufe.Alias})
	case errors.Is(err, odds.ErrInvalidRequest), errors.Is(err, ranking.ErrInvalidMonth):
		rw.ValidationError(err.Error(), nil)
	case errors.Is(err, participants.ErrSeriesNotFound), errors.Is(err, participants.ErrEventNotFound), errors.Is(err, blob.ErrNotFound):
		rw.NotFound(err.Error())
	case errors.Is(err, database.ErrStoreUnavailable), errors.Is(err, ErrDownloadsDisabled):
		rw.ServiceUnavailable(err.Error())
	default:
		rw.DatabaseError(err)
	}
}
