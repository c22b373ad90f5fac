// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package api

import (
	"net/http"

	"github.com/tomtom215/aocrecs/internal/odds"
	"github.com/tomtom215/aocrecs/internal/search"
)

// Search runs a criteria search and answers one page of match ids.
//
// POST /api/v1/search
//
//	{"criteria": {"players": {"civilization_id": {"values": [5]}}},
//	 "flags": ["fast_castle"], "order": ["-played"], "offset": 0, "limit": 25}
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var p search.Params
	if !decodeBody(w, r, &p) {
		return
	}
	if p.Limit == 0 {
		p.Limit = h.config.API.DefaultPageSize
	}

	hits, err := h.svc.Search.Hits(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	limit := min(max(p.Limit, 1), h.config.API.MaxPageSize)
	NewResponseWriter(w, r).SuccessWithPagination(hits, &PaginationMeta{
		Total:   hits.Count,
		Count:   len(hits.MatchIDs),
		Offset:  p.Offset,
		Limit:   limit,
		HasMore: int64(p.Offset+len(hits.MatchIDs)) < hits.Count,
	})
}

// SearchFlags lists the flags a search may require.
func (h *Handler) SearchFlags(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, h.svc.Search.Flags())
}

// MatchFlags answers the evidence flags raised by each player of a match.
//
// GET /api/v1/matches/{match_id}/flags
func (h *Handler) MatchFlags(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathInt64(r, "match_id")
	if err != nil {
		WriteBadRequest(w, r, err.Error())
		return
	}
	flags, err := h.svc.Search.MatchFlags(r.Context(), matchID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, flags)
}

// Odds computes historical win odds for a proposed matchup.
//
// POST /api/v1/odds
func (h *Handler) Odds(w http.ResponseWriter, r *http.Request) {
	var req odds.Request
	if !decodeBody(w, r, &req) || !validate(w, r, &req) {
		return
	}
	res, err := h.svc.Odds.Compute(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, res)
}
