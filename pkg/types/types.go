// Package types defines the core data structures for the Pactwise two-tier
// memory subsystem: the enumerations shared by both tiers, the short-term and
// long-term memory records, and the association edge between long-term
// memories.
package types

import "time"

// MemoryType classifies what kind of knowledge a memory captures.
type MemoryType string

// Memory type constants.
const (
	MemoryUserPreference      MemoryType = "user_preference"
	MemoryInteractionPattern  MemoryType = "interaction_pattern"
	MemoryDomainKnowledge     MemoryType = "domain_knowledge"
	MemoryConversationContext MemoryType = "conversation_context"
	MemoryTaskHistory         MemoryType = "task_history"
	MemoryFeedback            MemoryType = "feedback"
	MemoryEntityRelation      MemoryType = "entity_relation"
	MemoryProcessKnowledge    MemoryType = "process_knowledge"
)

// ValidMemoryTypes lists every valid memory type for validation.
var ValidMemoryTypes = []MemoryType{
	MemoryUserPreference,
	MemoryInteractionPattern,
	MemoryDomainKnowledge,
	MemoryConversationContext,
	MemoryTaskHistory,
	MemoryFeedback,
	MemoryEntityRelation,
	MemoryProcessKnowledge,
}

// IsValidMemoryType reports whether t is a member of the closed memory type set.
func IsValidMemoryType(t MemoryType) bool {
	for _, v := range ValidMemoryTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ImportanceLevel orders memories by how much they matter. The total order is
// critical > high > medium > low > temporary.
type ImportanceLevel string

// Importance level constants.
const (
	ImportanceCritical  ImportanceLevel = "critical"
	ImportanceHigh      ImportanceLevel = "high"
	ImportanceMedium    ImportanceLevel = "medium"
	ImportanceLow       ImportanceLevel = "low"
	ImportanceTemporary ImportanceLevel = "temporary"
)

// ValidImportanceLevels lists every valid importance level for validation.
var ValidImportanceLevels = []ImportanceLevel{
	ImportanceCritical,
	ImportanceHigh,
	ImportanceMedium,
	ImportanceLow,
	ImportanceTemporary,
}

// IsValidImportance reports whether l is a member of the closed importance set.
func IsValidImportance(l ImportanceLevel) bool {
	for _, v := range ValidImportanceLevels {
		if l == v {
			return true
		}
	}
	return false
}

// importanceRanks maps each level to its position in the total order.
var importanceRanks = map[ImportanceLevel]int{
	ImportanceCritical:  4,
	ImportanceHigh:      3,
	ImportanceMedium:    2,
	ImportanceLow:       1,
	ImportanceTemporary: 0,
}

// Rank returns the position of l in the total order (critical=4 .. temporary=0).
// Unknown levels rank below temporary.
func (l ImportanceLevel) Rank() int {
	if r, ok := importanceRanks[l]; ok {
		return r
	}
	return -1
}

// Higher returns whichever of a and b ranks higher in the importance order.
func Higher(a, b ImportanceLevel) ImportanceLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// shortTermTTLs maps importance to the short-term retention window. Critical
// memories get a year, which is effectively non-expiring for session data.
var shortTermTTLs = map[ImportanceLevel]time.Duration{
	ImportanceCritical:  365 * 24 * time.Hour,
	ImportanceHigh:      7 * 24 * time.Hour,
	ImportanceMedium:    24 * time.Hour,
	ImportanceLow:       4 * time.Hour,
	ImportanceTemporary: 30 * time.Minute,
}

// TTL returns the short-term retention window for l. Unknown levels fall back
// to the medium window.
func (l ImportanceLevel) TTL() time.Duration {
	if d, ok := shortTermTTLs[l]; ok {
		return d
	}
	return shortTermTTLs[ImportanceMedium]
}

// initialStrengths maps importance to the strength a fresh long-term memory
// starts with.
var initialStrengths = map[ImportanceLevel]float64{
	ImportanceCritical:  1.0,
	ImportanceHigh:      0.8,
	ImportanceMedium:    0.6,
	ImportanceLow:       0.4,
	ImportanceTemporary: 0.2,
}

// InitialStrength returns the starting strength for a long-term memory of
// importance l. Unknown levels fall back to the medium value.
func (l ImportanceLevel) InitialStrength() float64 {
	if s, ok := initialStrengths[l]; ok {
		return s
	}
	return initialStrengths[ImportanceMedium]
}

// decayRates maps importance to per-day strength loss.
var decayRates = map[ImportanceLevel]float64{
	ImportanceCritical:  0.001,
	ImportanceHigh:      0.005,
	ImportanceMedium:    0.01,
	ImportanceLow:       0.02,
	ImportanceTemporary: 0.05,
}

// DecayRate returns the per-day strength loss for a long-term memory of
// importance l. Unknown levels fall back to the medium rate.
func (l ImportanceLevel) DecayRate() float64 {
	if r, ok := decayRates[l]; ok {
		return r
	}
	return decayRates[ImportanceMedium]
}

// MemorySource records where a memory came from.
type MemorySource string

// Memory source constants.
const (
	SourceExplicitFeedback  MemorySource = "explicit_feedback"
	SourceImplicitLearning  MemorySource = "implicit_learning"
	SourceTaskOutcome       MemorySource = "task_outcome"
	SourceErrorCorrection   MemorySource = "error_correction"
	SourceConversation      MemorySource = "conversation"
	SourceSystemObservation MemorySource = "system_observation"

	// SourceConsolidation marks entries appended to a source chain when a
	// short-term memory is promoted into the long-term store.
	SourceConsolidation MemorySource = "consolidation"
)

// ValidMemorySources lists the caller-suppliable sources for validation.
// SourceConsolidation is system-appended only and intentionally excluded.
var ValidMemorySources = []MemorySource{
	SourceExplicitFeedback,
	SourceImplicitLearning,
	SourceTaskOutcome,
	SourceErrorCorrection,
	SourceConversation,
	SourceSystemObservation,
}

// IsValidMemorySource reports whether s is a caller-suppliable source.
func IsValidMemorySource(s MemorySource) bool {
	for _, v := range ValidMemorySources {
		if s == v {
			return true
		}
	}
	return false
}
