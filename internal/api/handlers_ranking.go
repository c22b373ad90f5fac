// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const defaultReportLimit = 25

// Ladders lists ladders of a platform, optionally restricted to ids.
//
// GET /api/v1/ladders?platform_id=de&ladder_ids=3,4
func (h *Handler) Ladders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ids, err := parseCommaSeparatedInts(q.Get("ladder_ids"))
	if err != nil {
		WriteBadRequest(w, r, err.Error())
		return
	}
	params := struct {
		PlatformID string `json:"platform_id" validate:"required,identifier"`
	}{PlatformID: q.Get("platform_id")}
	if !validate(w, r, &params) {
		return
	}

	ladders, err := h.svc.Ranking.Ladders(r.Context(), params.PlatformID, ids)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, ladders)
}

// LadderRanks answers the top of a ladder.
func (h *Handler) LadderRanks(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ladderParams(w, r)
	if !ok {
		return
	}
	ranks, err := h.svc.Ranking.Ranks(r.Context(), p.PlatformID, p.LadderID, p.Limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, ranks)
}

// UserLadder answers a user's rank and current streak on a ladder. Both
// are null when the user has no rated matches there.
func (h *Handler) UserLadder(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ladderParams(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		WriteBadRequest(w, r, "user_id is required")
		return
	}

	rank, err := h.svc.Ranking.UserRank(r.Context(), userID, p.PlatformID, p.LadderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	streak, err := h.svc.Ranking.Streak(r.Context(), userID, p.PlatformID, p.LadderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, map[string]any{"rank": rank, "streak": streak})
}

// UserRates answers a user's daily peak rating on a ladder.
//
// GET /api/v1/ladders/{platform_id}/{ladder_id}/users/{user_id}/rates
func (h *Handler) UserRates(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ladderParams(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		WriteBadRequest(w, r, "user_id is required")
		return
	}
	rates, err := h.svc.Ranking.RateByDay(r.Context(), userID, p.PlatformID, p.LadderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, rates)
}

// UserRanks answers a user's rank on several ladders of a platform.
//
// GET /api/v1/users/{platform_id}/{user_id}/ranks?ladder_ids=131,132
func (h *Handler) UserRanks(w http.ResponseWriter, r *http.Request) {
	ids, err := parseCommaSeparatedInts(r.URL.Query().Get("ladder_ids"))
	if err != nil {
		WriteBadRequest(w, r, err.Error())
		return
	}
	params := struct {
		PlatformID string  `json:"platform_id" validate:"required,identifier"`
		UserID     string  `json:"user_id" validate:"required,max=64"`
		LadderIDs  []int64 `json:"ladder_ids" validate:"required,min=1,max=20"`
	}{PlatformID: chi.URLParam(r, "platform_id"), UserID: chi.URLParam(r, "user_id"), LadderIDs: ids}
	if !validate(w, r, &params) {
		return
	}

	ranks, err := h.svc.Ranking.MetaRanks(r.Context(), params.UserID, params.PlatformID, params.LadderIDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, ranks)
}

func (h *Handler) ladderParams(w http.ResponseWriter, r *http.Request) (LadderParams, bool) {
	p := LadderParams{
		PlatformID: chi.URLParam(r, "platform_id"),
		Limit:      getIntParam(r, "limit", h.config.API.DefaultPageSize),
	}
	id, err := pathInt64(r, "ladder_id")
	if err != nil {
		WriteBadRequest(w, r, err.Error())
		return p, false
	}
	p.LadderID = id
	return p, validate(w, r, &p)
}

// Reports lists the months with a report, newest first.
func (h *Handler) Reports(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, h.svc.Ranking.AvailableReports())
}

// ReportSummary answers the headline numbers of a month.
func (h *Handler) ReportSummary(w http.ResponseWriter, r *http.Request) {
	p, ok := reportParams(w, r)
	if !ok {
		return
	}
	report, err := h.svc.Ranking.Summary(r.Context(), p.month(), p.Limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, report)
}

// ReportMaps answers the most played maps of a month.
func (h *Handler) ReportMaps(w http.ResponseWriter, r *http.Request) {
	p, ok := reportParams(w, r)
	if !ok {
		return
	}
	maps, err := h.svc.Ranking.PopularMaps(r.Context(), p.month(), p.Limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, maps)
}

// ReportRankings answers the month end standings of a ladder with the
// movement since the previous month.
//
// GET /api/v1/reports/{year}/{month}/rankings?platform_id=de&ladder_id=3
func (h *Handler) ReportRankings(w http.ResponseWriter, r *http.Request) {
	p, ladder, ok := reportLadderParams(w, r)
	if !ok {
		return
	}
	ranks, err := h.svc.Ranking.Rankings(r.Context(), ladder.PlatformID, ladder.LadderID, p.month(), p.Limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, ranks)
}

// ReportImprovement answers the largest rating gains of a month.
func (h *Handler) ReportImprovement(w http.ResponseWriter, r *http.Request) {
	p, ladder, ok := reportLadderParams(w, r)
	if !ok {
		return
	}
	out, err := h.svc.Ranking.MostImprovement(r.Context(), ladder.PlatformID, ladder.LadderID, p.month(), p.Limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, out)
}

func reportParams(w http.ResponseWriter, r *http.Request) (ReportParams, bool) {
	p := ReportParams{
		Year:  parseIntParam(chi.URLParam(r, "year"), 0),
		Month: parseIntParam(chi.URLParam(r, "month"), 0),
		Limit: getIntParam(r, "limit", defaultReportLimit),
	}
	return p, validate(w, r, &p)
}

func reportLadderParams(w http.ResponseWriter, r *http.Request) (ReportParams, LadderParams, bool) {
	p, ok := reportParams(w, r)
	if !ok {
		return p, LadderParams{}, false
	}
	q := r.URL.Query()
	ladderID, err := strconv.ParseInt(q.Get("ladder_id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, r, "ladder_id must be an integer")
		return p, LadderParams{}, false
	}
	ladder := LadderParams{PlatformID: q.Get("platform_id"), LadderID: ladderID, Limit: p.Limit}
	return p, ladder, validate(w, r, &ladder)
}
