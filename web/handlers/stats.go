package handlers

import (
	"net/http"

	"github.com/dpxrk/pactwise-memory/internal/storage"
)

// StatsHandler serves per-user memory profile statistics.
type StatsHandler struct {
	shortTerm storage.ShortTermStore
	longTerm  storage.LongTermStore
}

// NewStatsHandler creates a stats handler over the two tier stores.
func NewStatsHandler(shortTerm storage.ShortTermStore, longTerm storage.LongTermStore) *StatsHandler {
	return &StatsHandler{shortTerm: shortTerm, longTerm: longTerm}
}

// GetStats handles GET /api/stats — record counts and strength profile for
// the calling user.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromRequest(r)
	if !actor.Valid() {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	shortCount, err := h.shortTerm.Count(r.Context(), actor.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute stats", err)
		return
	}

	longStats, err := h.longTerm.Stats(r.Context(), actor.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute stats", err)
		return
	}

	respondJSON(w, http.StatusOK, StatsResponse{
		ShortTermCount: shortCount,
		LongTermCount:  longStats.Count,
		Verified:       longStats.Verified,
		AvgStrength:    longStats.AvgStrength,
	})
}
