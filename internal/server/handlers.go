package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"ats-history/internal/ats"
	"ats-history/internal/engine"
)

// maxSeasons caps how many seasons one request may span
const maxSeasons = 50

// Reporter builds team reports
type Reporter interface {
	Report(ctx context.Context, team string, seasons []int) (ats.Metrics, error)
}

// Catalog describes the snapshot behind the reporter
type Catalog interface {
	Ping(ctx context.Context) error
	Seasons(ctx context.Context) ([]int, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	reporter Reporter
	catalog  Catalog
}

// NewHandler creates a new handler with dependencies
func NewHandler(reporter Reporter, catalog Catalog) *Handler {
	return &Handler{
		reporter: reporter,
		catalog:  catalog,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.catalog.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unhealthy", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "ats-history",
	})
}

// GetSeasons lists the seasons available in the snapshot
func (h *Handler) GetSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.catalog.Seasons(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list seasons", err)
		return
	}
	if seasons == nil {
		seasons = []int{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"seasons": seasons,
		"count":   len(seasons),
	})
}

// GetReport returns the full ATS report for a team
// Query params: seasons (comma separated) or start and end; defaults to every stored season
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	m, ok := h.report(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// GetGames returns only the per-game listing
func (h *Handler) GetGames(w http.ResponseWriter, r *http.Request) {
	m, ok := h.report(w, r)
	if !ok {
		return
	}

	records := m.Records
	if records == nil {
		records = []ats.Record{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"team":    m.Team,
		"seasons": m.Seasons,
		"games":   records,
		"count":   len(records),
	})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) (ats.Metrics, bool) {
	team := teamParam(r)
	if team == "" {
		respondError(w, http.StatusBadRequest, "team is required", nil)
		return ats.Metrics{}, false
	}

	seasons, err := parseSeasons(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return ats.Metrics{}, false
	}
	if len(seasons) == 0 {
		seasons, err = h.catalog.Seasons(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to list seasons", err)
			return ats.Metrics{}, false
		}
		if len(seasons) == 0 {
			respondError(w, http.StatusNotFound, "no seasons available", nil)
			return ats.Metrics{}, false
		}
	}

	m, err := h.reporter.Report(r.Context(), team, seasons)
	switch {
	case errors.Is(err, ats.ErrEmptyTeam), errors.Is(err, engine.ErrNoSeasons):
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return ats.Metrics{}, false
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "report timed out", err)
		return ats.Metrics{}, false
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to build report", err)
		return ats.Metrics{}, false
	}
	return m, true
}

// teamParam reads the team segment. chi matches on RawPath when the request
// carried escapes it needs, and then the segment is still encoded.
func teamParam(r *http.Request) string {
	raw := chi.URLParam(r, "team")
	if r.URL.RawPath != "" {
		if team, err := url.PathUnescape(raw); err == nil {
			raw = team
		}
	}
	return strings.TrimSpace(raw)
}

// parseSeasons reads either seasons=2021,2022 or start=2019&end=2023
func parseSeasons(q url.Values) ([]int, error) {
	if list := q.Get("seasons"); list != "" {
		var seasons []int
		for _, part := range strings.Split(list, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			s, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid season %q", part)
			}
			seasons = append(seasons, s)
		}
		if len(seasons) > maxSeasons {
			return nil, fmt.Errorf("at most %d seasons per request", maxSeasons)
		}
		return seasons, nil
	}

	startStr, endStr := q.Get("start"), q.Get("end")
	if startStr == "" && endStr == "" {
		return nil, nil
	}
	if startStr == "" || endStr == "" {
		return nil, errors.New("start and end must be given together")
	}
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return nil, fmt.Errorf("invalid start %q", startStr)
	}
	end, err := strconv.Atoi(endStr)
	if err != nil {
		return nil, fmt.Errorf("invalid end %q", endStr)
	}
	if span := end - start; span >= maxSeasons || span <= -maxSeasons {
		return nil, fmt.Errorf("at most %d seasons per request", maxSeasons)
	}
	return engine.SeasonRange(start, end), nil
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Encoding response failed", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		slog.Warn("Request failed", "status", status, "message", message, "err", err)
	}

	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
