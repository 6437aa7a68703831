// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/emahq/mers/internal/domain/model"
	"github.com/emahq/mers/internal/domain/quota"
)

// Dependencies required by HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// Leaderboard returns one page of ranked players for a ruleset,
	// ordered by position, plus the total ranked count.
	Leaderboard(ctx context.Context, rs model.Ruleset, offset, limit int) ([]*model.Player, int, error)

	// CountryStandings returns the persisted country standings ordered
	// by ranking.
	CountryStandings(ctx context.Context, rs model.Ruleset) ([]*model.Country, error)

	// AllocateQuota previews a seat allocation against the current
	// standings.
	AllocateQuota(ctx context.Context, total int, rs model.Ruleset) (quota.Allocation, error)
}

// Server wires HTTP routes for the ranking API.
type Server struct {
	rankingsHandler  *RankingsHandler
	countriesHandler *CountriesHandler
	quotaHandler     *QuotaHandler
	healthHandler    *HealthHandler
}

// NewServer creates a new API server with all handlers. maxPageSize
// bounds rankings pages; defaultSeats is the seat pool used when a quota
// request names none.
func NewServer(deps Dependencies, maxPageSize, defaultSeats int) *Server {
	return &Server{
		rankingsHandler:  NewRankingsHandler(deps, maxPageSize),
		countriesHandler: NewCountriesHandler(deps),
		quotaHandler:     NewQuotaHandler(deps, defaultSeats),
		healthHandler:    NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.Metrics())
	mux.HandleFunc("/rankings/", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/countries/", MetricsMiddleware(s.countriesHandler.HandleGetCountries, "countries"))
	mux.HandleFunc("/quota/", MetricsMiddleware(s.quotaHandler.HandleGetQuota, "quota"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// rulesetFromPath extracts the trailing ruleset segment from paths like
// /rankings/mcr.
func rulesetFromPath(path, prefix string) (model.Ruleset, error) {
	return model.ParseRuleset(strings.TrimPrefix(path, prefix))
}
