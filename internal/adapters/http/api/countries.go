// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/emahq/mers/internal/domain/model"
)

// CountriesDependencies defines the interface for country standing reads.
type CountriesDependencies interface {
	CountryStandings(ctx context.Context, rs model.Ruleset) ([]*model.Country, error)
}

// CountriesHandler serves the ordered country ranking.
type CountriesHandler struct {
	deps CountriesDependencies
}

// NewCountriesHandler creates a new countries handler.
func NewCountriesHandler(deps CountriesDependencies) *CountriesHandler {
	return &CountriesHandler{deps: deps}
}

// countryRow is one country standing line.
type countryRow struct {
	Ranking     int     `json:"ranking"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	PlayerCount int     `json:"player_count"`
	Over700     int     `json:"over_700"`
	AvgTop3     float64 `json:"avg_top3"`
	ShareRanked float64 `json:"share_ranked"`
	Share700    float64 `json:"share_700"`
}

type countriesResponse struct {
	Ruleset string       `json:"ruleset"`
	Entries []countryRow `json:"entries"`
}

// HandleGetCountries handles GET /countries/{ruleset}.
func (h *CountriesHandler) HandleGetCountries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rs, err := rulesetFromPath(r.URL.Path, "/countries/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_ruleset", err)
		return
	}

	countries, err := h.deps.CountryStandings(r.Context(), rs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	rows := make([]countryRow, 0, len(countries))
	for _, c := range countries {
		st := c.Standing(rs)
		rows = append(rows, countryRow{
			Ranking:     *st.Ranking,
			Code:        c.Code,
			Name:        c.Name,
			PlayerCount: st.PlayerCount,
			Over700:     st.Over700,
			AvgTop3:     *st.AvgTop3,
			ShareRanked: st.ShareRanked,
			Share700:    st.Share700,
		})
	}
	writeJSON(w, http.StatusOK, countriesResponse{Ruleset: string(rs), Entries: rows})
}
