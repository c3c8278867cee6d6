// Package storage provides composable storage interfaces for the Pactwise
// memory subsystem.
//
// The storage layer is designed with small, focused interfaces that can be
// implemented independently and composed as needed. Backends only perform
// indexed lookups, range queries and bulk deletes; lifecycle semantics
// (dedup, decay, consolidation) live in internal/engine.
package storage

import (
	"errors"

	"github.com/dpxrk/pactwise-memory/pkg/types"
)

var (
	// ErrNotFound indicates that the requested record was not found, or does
	// not belong to the caller's owner scope.
	ErrNotFound = errors.New("memory not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

const (
	// DefaultListLimit is the default result bound for list operations.
	DefaultListLimit = 50

	// DefaultSearchLimit is the default result bound for search operations.
	DefaultSearchLimit = 20

	// MaxLimit caps any caller-supplied limit.
	MaxLimit = 500
)

// RecentQuery filters short-term reads by memory type and a minimum
// importance threshold.
type RecentQuery struct {
	// Types restricts results to the given memory types. Empty means all.
	Types []types.MemoryType

	// MinImportance is the inclusive importance floor; records ranking equal
	// or higher pass. Empty means no floor.
	MinImportance types.ImportanceLevel

	// Limit bounds the result set (default: DefaultListLimit).
	Limit int
}

// Normalize applies defaults and caps to the query.
func (q *RecentQuery) Normalize() {
	if q.Limit < 1 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
}

// ListQuery filters long-term reads by type, importance and strength.
type ListQuery struct {
	// Types restricts results to the given memory types. Empty means all.
	Types []types.MemoryType

	// MinImportance is the inclusive importance floor. Empty means no floor.
	MinImportance types.ImportanceLevel

	// MinStrength is the inclusive strength floor in [0,1].
	MinStrength float64

	// Limit bounds the result set after filtering and sorting complete
	// (default: DefaultListLimit).
	Limit int
}

// Normalize applies defaults and caps to the query.
func (q *ListQuery) Normalize() {
	if q.Limit < 1 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.MinStrength < 0 {
		q.MinStrength = 0
	}
	if q.MinStrength > 1 {
		q.MinStrength = 1
	}
}

// TierStats summarizes a user's records in one memory tier.
type TierStats struct {
	// Count is the number of live records.
	Count int `json:"count"`

	// Verified is the number of user-confirmed records. Always zero for the
	// short-term tier.
	Verified int `json:"verified"`

	// AvgStrength is the mean strength over live records, zero when there are
	// none. Always zero for the short-term tier.
	AvgStrength float64 `json:"avg_strength"`
}

// SearchQuery carries a free-text query with optional scoping.
type SearchQuery struct {
	// Query is the free-text search string.
	Query string

	// SessionID scopes a short-term search to one session. Empty means all
	// sessions. Ignored by long-term search.
	SessionID string

	// Types restricts long-term search to the given memory types. Empty
	// means all. Ignored by short-term search.
	Types []types.MemoryType

	// Limit bounds the result set (default: DefaultSearchLimit).
	Limit int
}

// Normalize applies defaults and caps to the query.
func (q *SearchQuery) Normalize() {
	if q.Limit < 1 {
		q.Limit = DefaultSearchLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
}
