package handlers

import (
	"time"

	"github.com/dpxrk/pactwise-memory/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// StoreResponse is returned by both memory write endpoints.
type StoreResponse struct {
	ID string `json:"id"`
}

// ShortTermListResponse wraps a list of short-term memories.
type ShortTermListResponse struct {
	Memories []*types.ShortTermMemory `json:"memories"`
	Total    int                      `json:"total"`
}

// LongTermListResponse wraps a list of long-term memories.
type LongTermListResponse struct {
	Memories []*types.LongTermMemory `json:"memories"`
	Total    int                     `json:"total"`
}

// SearchResultItem is a single scored long-term search result.
type SearchResultItem struct {
	Memory *types.LongTermMemory `json:"memory"`
	Score  float64               `json:"score"`
}

// LongTermSearchResponse wraps scored long-term search results.
type LongTermSearchResponse struct {
	Results []SearchResultItem `json:"results"`
	Total   int                `json:"total"`
	Query   string             `json:"query"`
}

// MarkConsolidationRequest names the short-term records to flag for
// promotion.
type MarkConsolidationRequest struct {
	IDs []string `json:"ids"`
}

// ReinforceRequest carries an optional strength delta; zero or missing means
// the default boost.
type ReinforceRequest struct {
	Delta float64 `json:"delta,omitempty"`
}

// ConsolidationRunResponse reports one consolidation pass.
type ConsolidationRunResponse struct {
	Promoted int       `json:"promoted"`
	RanAt    time.Time `json:"ran_at"`
}

// StatsResponse is the response format for GET /api/stats.
type StatsResponse struct {
	ShortTermCount int     `json:"short_term_count"`
	LongTermCount  int     `json:"long_term_count"`
	Verified       int     `json:"verified"`
	AvgStrength    float64 `json:"avg_strength"`
}
