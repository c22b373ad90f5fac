// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package api

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aocrecs/internal/blob"
	"github.com/tomtom215/aocrecs/internal/config"
	"github.com/tomtom215/aocrecs/internal/database"
	"github.com/tomtom215/aocrecs/internal/database/query"
	"github.com/tomtom215/aocrecs/internal/odds"
	"github.com/tomtom215/aocrecs/internal/participants"
	"github.com/tomtom215/aocrecs/internal/ranking"
	"github.com/tomtom215/aocrecs/internal/search"
)

type fakeSearcher struct {
	hits   *search.Hits
	err    error
	params search.Params
}

func (f *fakeSearcher) Hits(_ context.Context, p search.Params) (*search.Hits, error) {
	f.params = p
	return f.hits, f.err
}

func (f *fakeSearcher) Flags() []search.Flag {
	return []search.Flag{{Alias: "fast_castle", Name: "Fast Castle", Evidence: true}}
}

func (f *fakeSearcher) MatchFlags(_ context.Context, matchID int64) ([]search.PlayerFlag, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []search.PlayerFlag{{
		Number: 1, Type: "fast_castle", Name: "Fast Castle", Count: 1,
		Evidence: []search.Evidence{{Timestamp: 16 * time.Minute}},
	}}, nil
}

type fakeOdds struct{ calls int }

func (f *fakeOdds) Compute(context.Context, odds.Request) (odds.Result, error) {
	f.calls++
	return odds.Result{odds.ScenarioTeams: {{Wins: 3, Losses: 1, Percent: 0.75}, {Wins: 1, Losses: 3, Percent: 0.25}}}, nil
}

type fakeSeries struct{}

func (fakeSeries) Series(_ context.Context, id string) (*participants.Series, error) {
	if id != "s1" {
		return nil, participants.ErrSeriesNotFound
	}
	return &participants.Series{ID: "s1", Name: "Grand Final"}, nil
}

func (fakeSeries) Events(context.Context) ([]participants.EventSummary, error) {
	return []participants.EventSummary{{ID: "hc3", Name: "Hidden Cup 3", Year: 2020}}, nil
}

func (fakeSeries) Event(_ context.Context, id string) (*participants.EventDetail, error) {
	if id != "hc3" {
		return nil, participants.ErrEventNotFound
	}
	return &participants.EventDetail{
		EventSummary: participants.EventSummary{ID: "hc3", Name: "Hidden Cup 3", Year: 2020},
		Tournaments:  []participants.EventTournament{},
		Maps:         []participants.EventMap{{Name: "Arabia", MatchCount: 3, PlayedPercent: 1}},
	}, nil
}

type fakeRanker struct {
	month     ranking.Month
	ladderIDs []int64
}

func (f *fakeRanker) Ranks(_ context.Context, platformID string, ladderID int64, limit int) ([]ranking.LadderRank, error) {
	return []ranking.LadderRank{{Rank: 1, Rating: 2400, LadderID: ladderID, User: ranking.User{ID: "u1", PlatformID: platformID}}}, nil
}

func (f *fakeRanker) UserRank(context.Context, string, string, int64) (*ranking.LadderRank, error) {
	return nil, nil
}

func (f *fakeRanker) Streak(context.Context, string, string, int64) (*int, error) {
	return nil, nil
}

func (f *fakeRanker) Ladders(_ context.Context, platformID string, ids []int64) ([]ranking.Ladder, error) {
	out := make([]ranking.Ladder, len(ids))
	for i, id := range ids {
		out[i] = ranking.Ladder{ID: id, PlatformID: platformID}
	}
	return out, nil
}

func (f *fakeRanker) MetaRanks(_ context.Context, userID, platformID string, ids []int64) ([]ranking.MetaRank, error) {
	f.ladderIDs = ids
	return []ranking.MetaRank{{
		Ladder: ranking.Ladder{ID: ids[0], PlatformID: platformID},
		Rank:   4, Rating: 2100,
		User: ranking.User{ID: userID, PlatformID: platformID},
	}}, nil
}

func (f *fakeRanker) RateByDay(context.Context, string, string, int64) ([]ranking.DailyRate, error) {
	return []ranking.DailyRate{{Date: "2020-03-01", Rating: 2050}}, nil
}

func (f *fakeRanker) AvailableReports() []ranking.Month {
	return []ranking.Month{{Year: 2020, Month: time.February}}
}

func (f *fakeRanker) Rankings(_ context.Context, _ string, _ int64, month ranking.Month, _ int) ([]ranking.Ranked[ranking.Standing], error) {
	f.month = month
	return nil, nil
}

func (f *fakeRanker) PopularMaps(_ context.Context, month ranking.Month, _ int) ([]ranking.Ranked[ranking.MapShare], error) {
	f.month = month
	return nil, nil
}

func (f *fakeRanker) MostImprovement(context.Context, string, int64, ranking.Month, int) ([]ranking.Improvement, error) {
	return nil, nil
}

func (f *fakeRanker) Summary(_ context.Context, month ranking.Month, _ int) (*ranking.Report, error) {
	if month.Year >= 2030 {
		return nil, ranking.ErrInvalidMonth
	}
	return &ranking.Report{Year: month.Year, Month: int(month.Month), TotalMatches: 12}, nil
}

type fakeArchiver struct{}

func (fakeArchiver) Archive(_ context.Context, fileID int64) (*blob.Archive, error) {
	switch fileID {
	case 7:
		return &blob.Archive{Name: "game.mgz.zip", Data: []byte("PK")}, nil
	case 8:
		return &blob.Archive{Name: `final "GL" Viper; x.mgz.zip`, Data: []byte("PK")}, nil
	case 9:
		return &blob.Archive{Name: "Hidden Cup ÉT.mgz.zip", Data: []byte("PK")}, nil
	}
	return nil, blob.ErrNotFound
}

type fakeHealth struct{ err error }

func (f fakeHealth) Ping(context.Context) error { return f.err }
func (fakeHealth) Backend() string              { return "postgres" }
func (fakeHealth) BreakerState() string         { return "closed" }

func newTestRouter(svc Services) http.Handler {
	return newTestRouterFor(newTestHandler(svc))
}

func newTestHandler(svc Services) *Handler {
	return NewHandler(svc, &config.Config{API: config.APIConfig{DefaultPageSize: 25, MaxPageSize: 100}})
}

func newTestRouterFor(handler *Handler) http.Handler {
	mw := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true})
	return NewRouter(handler, mw).Setup()
}

func defaultServices() Services {
	return Services{
		Search:       &fakeSearcher{hits: &search.Hits{Count: 30, MatchIDs: []int64{3, 2, 1}}},
		Odds:         &fakeOdds{},
		Participants: fakeSeries{},
		Ranking:      &fakeRanker{},
		Downloads:    fakeArchiver{},
		Health:       fakeHealth{},
	}
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestRouterStatusCodes(t *testing.T) {
	h := newTestRouter(defaultServices())

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"health", http.MethodGet, "/api/v1/health", "", http.StatusOK, ""},
		{"live", http.MethodGet, "/api/v1/health/live", "", http.StatusOK, ""},
		{"ready", http.MethodGet, "/api/v1/health/ready", "", http.StatusOK, ""},
		{"flags", http.MethodGet, "/api/v1/search/flags", "", http.StatusOK, ""},
		{"search empty body", http.MethodPost, "/api/v1/search", "", http.StatusBadRequest, ErrCodeBadRequest},
		{"search bad json", http.MethodPost, "/api/v1/search", "{", http.StatusBadRequest, ErrCodeBadRequest},
		{"search negative offset", http.MethodPost, "/api/v1/search", `{"offset": -1}`, http.StatusBadRequest, ErrCodeValidationFailed},
		{"odds no teams", http.MethodPost, "/api/v1/odds", `{"teams": []}`, http.StatusBadRequest, ErrCodeValidationFailed},
		{"odds missing user", http.MethodPost, "/api/v1/odds", `{"teams": [[{"user_id": ""}]], "type_id": 0}`, http.StatusBadRequest, ErrCodeValidationFailed},
		{"odds missing type", http.MethodPost, "/api/v1/odds", `{"teams": [[{"user_id": "a"}], [{"user_id": "b"}]]}`, http.StatusBadRequest, ErrCodeValidationFailed},
		{"series", http.MethodGet, "/api/v1/series/s1", "", http.StatusOK, ""},
		{"series missing", http.MethodGet, "/api/v1/series/nope", "", http.StatusNotFound, ErrCodeNotFound},
		{"events", http.MethodGet, "/api/v1/events", "", http.StatusOK, ""},
		{"event", http.MethodGet, "/api/v1/events/hc3", "", http.StatusOK, ""},
		{"event missing", http.MethodGet, "/api/v1/events/nope", "", http.StatusNotFound, ErrCodeNotFound},
		{"match flags", http.MethodGet, "/api/v1/matches/42/flags", "", http.StatusOK, ""},
		{"match flags bad id", http.MethodGet, "/api/v1/matches/x/flags", "", http.StatusBadRequest, ErrCodeBadRequest},
		{"ladders", http.MethodGet, "/api/v1/ladders?platform_id=de&ladder_ids=3,4", "", http.StatusOK, ""},
		{"ladders no platform", http.MethodGet, "/api/v1/ladders", "", http.StatusBadRequest, ErrCodeValidationFailed},
		{"ladders bad ids", http.MethodGet, "/api/v1/ladders?platform_id=de&ladder_ids=3,x", "", http.StatusBadRequest, ErrCodeBadRequest},
		{"ladder ranks", http.MethodGet, "/api/v1/ladders/de/3/ranks?limit=10", "", http.StatusOK, ""},
		{"ladder ranks bad id", http.MethodGet, "/api/v1/ladders/de/abc/ranks", "", http.StatusBadRequest, ErrCodeBadRequest},
		{"ladder ranks bad platform", http.MethodGet, "/api/v1/ladders/DE/3/ranks", "", http.StatusBadRequest, ErrCodeValidationFailed},
		{"user ladder", http.MethodGet, "/api/v1/ladders/de/3/users/u1", "", http.StatusOK, ""},
		{"user rates", http.MethodGet, "/api/v1/ladders/de/3/users/u1/rates", "", http.StatusOK, ""},
		{"user rates bad ladder", http.MethodGet, "/api/v1/ladders/de/x/users/u1/rates", "", http.StatusBadRequest, ErrCodeBadRequest},
		{"user ranks", http.MethodGet, "/api/v1/users/de/u1/ranks?ladder_ids=3,4", "", http.StatusOK, ""},
		{"user ranks no ladders", http.MethodGet, "/api/v1/users/de/u1/ranks", "", http.StatusBadRequest, ErrCodeValidationFailed},
		{"user ranks bad ladders", http.MethodGet, "/api/v1/users/de/u1/ranks?ladder_ids=x", "", http.StatusBadRequest, ErrCodeBadRequest},
		{"user ranks bad platform", http.MethodGet, "/api/v1/users/DE/u1/ranks?ladder_ids=3", "", http.StatusBadRequest, ErrCodeValidationFailed},
		{"reports", http.MethodGet, "/api/v1/reports", "", http.StatusOK, ""},
		{"report summary", http.MethodGet, "/api/v1/reports/2020/2", "", http.StatusOK, ""},
		{"report future", http.MethodGet, "/api/v1/reports/2031/2", "", http.StatusBadRequest, ErrCodeValidationFailed},
		{"report month 13", http.MethodGet, "/api/v1/reports/2020/13", "", http.StatusBadRequest, ErrCodeValidationFailed},
		{"report maps", http.MethodGet, "/api/v1/reports/2020/2/maps", "", http.StatusOK, ""},
		{"report rankings", http.MethodGet, "/api/v1/reports/2020/2/rankings?platform_id=de&ladder_id=3", "", http.StatusOK, ""},
		{"report rankings no ladder", http.MethodGet, "/api/v1/reports/2020/2/rankings?platform_id=de", "", http.StatusBadRequest, ErrCodeBadRequest},
		{"report improvement", http.MethodGet, "/api/v1/reports/2020/2/improvement?platform_id=de&ladder_id=3", "", http.StatusOK, ""},
		{"download missing", http.MethodGet, "/api/v1/download/404", "", http.StatusNotFound, ErrCodeNotFound},
		{"download bad id", http.MethodGet, "/api/v1/download/x", "", http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown route", http.MethodGet, "/api/v1/nope", "", http.StatusNotFound, ""},
		{"wrong method", http.MethodGet, "/api/v1/search", "", http.StatusMethodNotAllowed, ""},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, tt.method, tt.target, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantCode == "" {
				return
			}
			response := decodeResponse(t, w)
			if response.Error == nil || response.Error.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %+v", tt.wantCode, response.Error)
			}
		})
	}
}

func TestSearchHandler(t *testing.T) {
	svc := defaultServices()
	searcher := svc.Search.(*fakeSearcher)
	h := newTestRouter(svc)

	w := do(h, http.MethodPost, "/api/v1/search",
		`{"criteria": {"players": {"civilization_id": {"values": [5]}}}, "flags": ["fast_castle"], "offset": 25}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	if searcher.params.Limit != 25 {
		t.Errorf("Expected default limit 25, got %d", searcher.params.Limit)
	}
	if got := searcher.params.Criteria[query.TablePlayers]["civilization_id"].Values; got == nil {
		t.Error("Expected criteria to be decoded")
	}
	if len(searcher.params.Flags) != 1 || searcher.params.Flags[0] != "fast_castle" {
		t.Errorf("Expected flags [fast_castle], got %v", searcher.params.Flags)
	}

	response := decodeResponse(t, w)
	p := response.Meta.Pagination
	if p == nil {
		t.Fatal("Expected pagination metadata")
	}
	if p.Total != 30 || p.Count != 3 || p.Offset != 25 || p.Limit != 25 {
		t.Errorf("Unexpected pagination %+v", p)
	}
	if p.HasMore {
		t.Error("Expected HasMore to be false on the last page")
	}
}

func TestSearchHandlerUnknownFlag(t *testing.T) {
	svc := defaultServices()
	svc.Search = &fakeSearcher{err: &query.UnknownFlagError{Alias: "nope"}}

	w := do(newTestRouter(svc), http.MethodPost, "/api/v1/search", `{"flags": ["nope"]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	response := decodeResponse(t, w)
	if response.Error.Code != ErrCodeUnknownFlag {
		t.Errorf("Expected %s, got %s", ErrCodeUnknownFlag, response.Error.Code)
	}
}

func TestOddsHandler(t *testing.T) {
	svc := defaultServices()
	o := svc.Odds.(*fakeOdds)

	w := do(newTestRouter(svc), http.MethodPost, "/api/v1/odds",
		`{"teams": [[{"user_id": "a"}], [{"user_id": "b"}]], "type_id": 0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if o.calls != 1 {
		t.Errorf("Expected 1 compute, got %d", o.calls)
	}

	var body struct {
		Data map[string][]odds.TeamOdds `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data["teams"]) != 2 {
		t.Errorf("Expected two teams of odds, got %v", body.Data)
	}
}

func TestReportMonthParsing(t *testing.T) {
	svc := defaultServices()
	rk := svc.Ranking.(*fakeRanker)

	w := do(newTestRouter(svc), http.MethodGet, "/api/v1/reports/2020/2/maps?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if rk.month != (ranking.Month{Year: 2020, Month: time.February}) {
		t.Errorf("Expected February 2020, got %+v", rk.month)
	}
}

func TestUserLadderAbsent(t *testing.T) {
	w := do(newTestRouter(defaultServices()), http.MethodGet, "/api/v1/ladders/de/3/users/u9", "")

	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"rank", "streak"} {
		v, ok := body.Data[key]
		if !ok || v != nil {
			t.Errorf("Expected %s to be null, got %v", key, v)
		}
	}
}

func TestDownloadHandler(t *testing.T) {
	w := do(newTestRouter(defaultServices()), http.MethodGet, "/api/v1/download/7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Expected application/zip, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename=game.mgz.zip` {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}
	if w.Body.String() != "PK" {
		t.Errorf("Expected archive body, got %q", w.Body.String())
	}
}

func TestDownloadDispositionQuoting(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/api/v1/download/8", `final "GL" Viper; x.mgz.zip`},
		{"/api/v1/download/9", "Hidden Cup ÉT.mgz.zip"},
	}
	for _, tt := range tests {
		w := do(newTestRouter(defaultServices()), http.MethodGet, tt.target, "")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		cd := w.Header().Get("Content-Disposition")
		disposition, params, err := mime.ParseMediaType(cd)
		if err != nil {
			t.Fatalf("Expected a parseable Content-Disposition, got %q: %v", cd, err)
		}
		if disposition != "attachment" || params["filename"] != tt.want {
			t.Errorf("Expected attachment filename %q, got %q %q", tt.want, disposition, params["filename"])
		}
	}
}

func TestDownloadDisabled(t *testing.T) {
	svc := defaultServices()
	svc.Downloads = nil

	w := do(newTestRouter(svc), http.MethodGet, "/api/v1/download/7", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestHealthReadyDegraded(t *testing.T) {
	svc := defaultServices()
	svc.Health = fakeHealth{err: errors.New("connection refused")}
	h := newTestRouter(svc)

	if w := do(h, http.MethodGet, "/api/v1/health/ready", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected ready to answer 503, got %d", w.Code)
	}

	w := do(h, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected health to answer 200, got %d", w.Code)
	}
	var body struct {
		Data HealthStatus `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Status != "degraded" || body.Data.StoreConnected {
		t.Errorf("Expected degraded status, got %+v", body.Data)
	}
	if body.Data.Backend != "postgres" {
		t.Errorf("Expected backend postgres, got %q", body.Data.Backend)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	r.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	newTestRouter(defaultServices()).ServeHTTP(w, r)

	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("Expected X-Request-ID abc-123, got %q", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected nosniff header, got %q", got)
	}
}

func TestUserRanksHandler(t *testing.T) {
	svc := defaultServices()
	rk := svc.Ranking.(*fakeRanker)

	w := do(newTestRouter(svc), http.MethodGet, "/api/v1/users/de/u1/ranks?ladder_ids=3,%204", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(rk.ladderIDs) != 2 || rk.ladderIDs[0] != 3 || rk.ladderIDs[1] != 4 {
		t.Errorf("Expected ladders [3 4], got %v", rk.ladderIDs)
	}

	var body struct {
		Data []ranking.MetaRank `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 1 || body.Data[0].User.ID != "u1" || body.Data[0].Ladder.ID != 3 {
		t.Errorf("Unexpected ranks %+v", body.Data)
	}
}

func TestMatchFlagsHandler(t *testing.T) {
	w := do(newTestRouter(defaultServices()), http.MethodGet, "/api/v1/matches/42/flags", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		Data []search.PlayerFlag `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 1 || body.Data[0].Type != "fast_castle" || body.Data[0].Evidence[0].Timestamp != 16*time.Minute {
		t.Errorf("Unexpected flags %+v", body.Data)
	}
}

func TestMatchFlagsHandlerStoreDown(t *testing.T) {
	svc := defaultServices()
	svc.Search = &fakeSearcher{err: database.ErrStoreUnavailable}

	w := do(newTestRouter(svc), http.MethodGet, "/api/v1/matches/42/flags", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestHealthReadyDraining(t *testing.T) {
	handler := newTestHandler(defaultServices())
	h := newTestRouterFor(handler)

	if w := do(h, http.MethodGet, "/api/v1/health/ready", ""); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 before draining, got %d", w.Code)
	}
	handler.StartDraining()
	w := do(h, http.MethodGet, "/api/v1/health/ready", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 while draining, got %d", w.Code)
	}
	if w := do(h, http.MethodGet, "/api/v1/health/live", ""); w.Code != http.StatusOK {
		t.Errorf("Expected liveness to stay 200 while draining, got %d", w.Code)
	}
}
