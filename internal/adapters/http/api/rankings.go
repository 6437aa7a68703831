// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/emahq/mers/internal/domain/model"
)

// RankingsDependencies defines the interface for leaderboard reads.
type RankingsDependencies interface {
	Leaderboard(ctx context.Context, rs model.Ruleset, offset, limit int) ([]*model.Player, int, error)
}

// RankingsHandler serves paged player rankings.
type RankingsHandler struct {
	deps     RankingsDependencies
	maxLimit int
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingsDependencies, maxLimit int) *RankingsHandler {
	return &RankingsHandler{deps: deps, maxLimit: maxLimit}
}

// playerRow is one leaderboard line.
type playerRow struct {
	Position int     `json:"position"`
	Name     string  `json:"name"`
	EMAID    string  `json:"ema_id"`
	Country  string  `json:"country"`
	Rank     float64 `json:"rank"`
}

type rankingsResponse struct {
	Ruleset string      `json:"ruleset"`
	Total   int         `json:"total"`
	Offset  int         `json:"offset"`
	Entries []playerRow `json:"entries"`
}

// HandleGetRankings handles GET /rankings/{ruleset}?offset=N&limit=N.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rs, err := rulesetFromPath(r.URL.Path, "/rankings/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_ruleset", err)
		return
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	limit, err := queryInt(r, "limit", h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if limit < 1 || limit > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded",
			fmt.Errorf("%w: limit must be 1..%d", ErrBadRequest, h.maxLimit))
		return
	}

	players, total, err := h.deps.Leaderboard(r.Context(), rs, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	rows := make([]playerRow, 0, len(players))
	for _, p := range players {
		rating := p.Rating(rs)
		rows = append(rows, playerRow{
			Position: rating.Position,
			Name:     p.CallingName,
			EMAID:    p.EMAID,
			Country:  p.CountryID,
			Rank:     *rating.Rank,
		})
	}
	writeJSON(w, http.StatusOK, rankingsResponse{
		Ruleset: string(rs),
		Total:   total,
		Offset:  offset,
		Entries: rows,
	})
}

// queryInt reads a non-negative integer query parameter with a default.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrBadRequest, key)
	}
	return n, nil
}
