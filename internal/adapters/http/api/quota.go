// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/emahq/mers/internal/domain/model"
	"github.com/emahq/mers/internal/domain/quota"
)

// QuotaDependencies defines the interface for quota previews.
type QuotaDependencies interface {
	AllocateQuota(ctx context.Context, total int, rs model.Ruleset) (quota.Allocation, error)
}

// QuotaHandler serves seat allocation previews against the current
// country standings.
type QuotaHandler struct {
	deps         QuotaDependencies
	defaultSeats int
}

// NewQuotaHandler creates a new quota handler.
func NewQuotaHandler(deps QuotaDependencies, defaultSeats int) *QuotaHandler {
	return &QuotaHandler{deps: deps, defaultSeats: defaultSeats}
}

// seatRow is one country's share of the pool.
type seatRow struct {
	Ranking int    `json:"ranking"`
	Code    string `json:"code"`
	Seats   int    `json:"seats"`
	Cap     int    `json:"cap"`
}

type quotaResponse struct {
	Ruleset   string    `json:"ruleset"`
	Total     int       `json:"total"`
	Remaining int       `json:"remaining"`
	Entries   []seatRow `json:"entries"`
}

// HandleGetQuota handles GET /quota/{ruleset}?seats=N.
func (h *QuotaHandler) HandleGetQuota(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rs, err := rulesetFromPath(r.URL.Path, "/quota/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_ruleset", err)
		return
	}
	seats, err := queryInt(r, "seats", h.defaultSeats)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	alloc, err := h.deps.AllocateQuota(r.Context(), seats, rs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	rows := make([]seatRow, 0, len(alloc.Entries))
	for _, s := range alloc.Entries {
		rows = append(rows, seatRow{
			Ranking: s.Ranking,
			Code:    s.Code,
			Seats:   s.Quota,
			Cap:     s.Cap,
		})
	}
	writeJSON(w, http.StatusOK, quotaResponse{
		Ruleset:   string(alloc.Ruleset),
		Total:     alloc.Total,
		Remaining: alloc.Remaining,
		Entries:   rows,
	})
}
