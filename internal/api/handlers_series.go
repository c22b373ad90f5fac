// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package api

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Series answers a tournament series with its resolved sides.
func (h *Handler) Series(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > 64 {
		WriteBadRequest(w, r, "series id must be 1 to 64 characters")
		return
	}
	series, err := h.svc.Participants.Series(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, series)
}

// Events lists every event, oldest first.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.Participants.Events(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, events)
}

// Event answers an event with its tournaments, series and map usage.
func (h *Handler) Event(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > 64 {
		WriteBadRequest(w, r, "event id must be 1 to 64 characters")
		return
	}
	event, err := h.svc.Participants.Event(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, event)
}

// Download streams a rec as a zip archive.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	if h.svc.Downloads == nil {
		writeServiceError(w, r, ErrDownloadsDisabled)
		return
	}
	fileID, err := pathInt64(r, "file_id")
	if err != nil {
		WriteBadRequest(w, r, err.Error())
		return
	}

	archive, err := h.svc.Downloads.Archive(r.Context(), fileID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": archive.Name})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(archive.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive.Data) //nolint:errcheck // client disconnects are not actionable
}
