package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ats-history/internal/ats"
)

type mockReporter struct {
	team    string
	seasons []int
	metrics ats.Metrics
	err     error
}

func (m *mockReporter) Report(_ context.Context, team string, seasons []int) (ats.Metrics, error) {
	m.team, m.seasons = team, seasons
	if m.err != nil {
		return ats.Metrics{}, m.err
	}
	out := m.metrics
	out.Team, out.Seasons = team, seasons
	return out, nil
}

type mockCatalog struct {
	seasons []int
	pingErr error
}

func (m *mockCatalog) Ping(context.Context) error { return m.pingErr }

func (m *mockCatalog) Seasons(context.Context) ([]int, error) { return m.seasons, nil }

func newTestRouter(rep *mockReporter, cat *mockCatalog) http.Handler {
	return NewRouter(NewHandler(rep, cat), Options{RequestTimeout: time.Second})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	w := get(t, newTestRouter(&mockReporter{}, &mockCatalog{}), "/health")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	w = get(t, newTestRouter(&mockReporter{}, &mockCatalog{pingErr: errors.New("locked")}), "/health")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestGetReport(t *testing.T) {
	rep := &mockReporter{metrics: ats.Metrics{
		OverallRecord: ats.Tally{Wins: 7, Losses: 5, Pushes: 1},
		WinPercentage: 58.33,
	}}
	h := newTestRouter(rep, &mockCatalog{seasons: []int{2022, 2023}})

	tests := []struct {
		name        string
		path        string
		wantTeam    string
		wantSeasons []int
	}{
		{"Season list", "/api/v1/teams/Utah/ats?seasons=2021,2023", "Utah", []int{2021, 2023}},
		{"Season range", "/api/v1/teams/Utah/ats?start=2019&end=2021", "Utah", []int{2019, 2020, 2021}},
		{"Stored seasons by default", "/api/v1/teams/Utah/ats", "Utah", []int{2022, 2023}},
		{"Escaped team", "/api/v1/teams/Texas%20A%26M/ats?seasons=2023", "Texas A&M", []int{2023}},
		{"Literal percent decoded once", "/api/v1/teams/100%2541/ats?seasons=2023", "100%41", []int{2023}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, h, tt.path)
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			if rep.team != tt.wantTeam {
				t.Errorf("team = %q, want %q", rep.team, tt.wantTeam)
			}
			if len(rep.seasons) != len(tt.wantSeasons) {
				t.Fatalf("seasons = %v, want %v", rep.seasons, tt.wantSeasons)
			}
			for i := range rep.seasons {
				if rep.seasons[i] != tt.wantSeasons[i] {
					t.Errorf("seasons = %v, want %v", rep.seasons, tt.wantSeasons)
				}
			}

			var m ats.Metrics
			if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if m.OverallRecord.Wins != 7 || m.WinPercentage != 58.33 {
				t.Errorf("body = %+v", m)
			}
		})
	}
}

func TestGetReportBadRequests(t *testing.T) {
	h := newTestRouter(&mockReporter{}, &mockCatalog{})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"Non-numeric season", "/api/v1/teams/Utah/ats?seasons=2021,last", http.StatusBadRequest},
		{"Half a range", "/api/v1/teams/Utah/ats?start=2019", http.StatusBadRequest},
		{"Range too wide", "/api/v1/teams/Utah/ats?start=1&end=1000000000", http.StatusBadRequest},
		{"Blank team", "/api/v1/teams/%20/ats?seasons=2023", http.StatusBadRequest},
		{"Empty snapshot", "/api/v1/teams/Utah/ats", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, h, tt.path)
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode error: %v", err)
			}
			if resp.Code != tt.want || resp.Message == "" {
				t.Errorf("error body = %+v", resp)
			}
		})
	}
}

func TestGetReportErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Empty team", ats.ErrEmptyTeam, http.StatusBadRequest},
		{"Timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"Other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(&mockReporter{err: tt.err}, &mockCatalog{})
			w := get(t, h, "/api/v1/teams/Utah/ats?seasons=2023")
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestGetGames(t *testing.T) {
	rep := &mockReporter{metrics: ats.Metrics{
		Records: []ats.Record{{GameID: "1", Result: ats.ResultCover}, {GameID: "2", Result: ats.ResultNoScore}},
	}}
	h := newTestRouter(rep, &mockCatalog{})

	w := get(t, h, "/api/v1/teams/Utah/ats/games?seasons=2023")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var body struct {
		Team  string       `json:"team"`
		Games []ats.Record `json:"games"`
		Count int          `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Team != "Utah" || body.Count != 2 || body.Games[1].Result != ats.ResultNoScore {
		t.Errorf("body = %+v", body)
	}
}

func TestGetSeasons(t *testing.T) {
	h := newTestRouter(&mockReporter{}, &mockCatalog{seasons: []int{2021, 2022}})

	w := get(t, h, "/api/v1/seasons")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var body struct {
		Seasons []int `json:"seasons"`
		Count   int   `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Count != 2 || body.Seasons[1] != 2022 {
		t.Errorf("body = %+v", body)
	}
}

func TestCORS(t *testing.T) {
	h := NewRouter(NewHandler(&mockReporter{}, &mockCatalog{}), Options{CORSOrigins: []string{"https://app.example"}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
