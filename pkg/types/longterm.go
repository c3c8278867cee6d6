package types

import "time"

// LongTermContext organizes a long-term memory within the wider knowledge
// graph: a domain tag, explicit links to other long-term memories, links to
// domain entities (contracts, vendors), and free-form tags.
type LongTermContext struct {
	Domain          string   `json:"domain,omitempty"`
	RelatedMemories []string `json:"related_memories,omitempty"`
	RelatedEntities []string `json:"related_entities,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// LongTermMemory is a durable memory record with strength that decays over
// time and grows on reinforcement.
type LongTermMemory struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	EnterpriseID string `json:"enterprise_id"`

	MemoryType     MemoryType             `json:"memory_type"`
	Content        string                 `json:"content"`
	StructuredData map[string]interface{} `json:"structured_data,omitempty"`

	// Summary defaults to the first 200 characters of Content.
	Summary string `json:"summary"`

	// Embedding is populated by an external service; absent by default.
	Embedding []float32 `json:"embedding,omitempty"`

	// Keywords are auto-extracted from Content when not supplied.
	Keywords []string `json:"keywords,omitempty"`

	Context LongTermContext `json:"context"`

	Importance ImportanceLevel `json:"importance"`
	Confidence float64         `json:"confidence"` // [0,1]
	Source     MemorySource    `json:"source"`

	// SourceChain is the ordered provenance trail; ConsolidatedFrom holds the
	// short-term ids that produced this record, if any.
	SourceChain      []MemorySource `json:"source_chain,omitempty"`
	ConsolidatedFrom []string       `json:"consolidated_from,omitempty"`

	// Decay/strength fields. Strength is the current relevance weight in
	// [0,1]; DecayRate is per-day strength loss.
	Strength           float64    `json:"strength"`
	ReinforcementCount int        `json:"reinforcement_count"`
	DecayRate          float64    `json:"decay_rate"`
	LastReinforcedAt   *time.Time `json:"last_reinforced_at,omitempty"`

	AccessCount    int       `json:"access_count"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// IsVerified pins the record against decay permanently.
	IsVerified bool `json:"is_verified"`

	// ContradictedBy is reserved for a future contradiction-detection
	// feature; no write path in this subsystem populates it.
	ContradictedBy string `json:"contradicted_by,omitempty"`
}

// LongTermInput is the caller-supplied portion of a long-term store
// operation.
type LongTermInput struct {
	MemoryType     MemoryType             `json:"memory_type"`
	Content        string                 `json:"content"`
	StructuredData map[string]interface{} `json:"structured_data,omitempty"`
	Summary        string                 `json:"summary,omitempty"`
	Embedding      []float32              `json:"embedding,omitempty"`
	Keywords       []string               `json:"keywords,omitempty"`
	Context        LongTermContext        `json:"context"`
	Importance     ImportanceLevel        `json:"importance"`
	Confidence     float64                `json:"confidence"`
	Source         MemorySource           `json:"source"`

	// ConsolidatedFrom lists the short-term ids being promoted, if this write
	// comes from the consolidation bridge.
	ConsolidatedFrom []string `json:"consolidated_from,omitempty"`
}

// MemoryAssociation is a directed edge between two long-term memories. This
// subsystem only reads associations; an external collaborator writes them.
type MemoryAssociation struct {
	FromMemoryID string `json:"from_memory_id"`
	ToMemoryID   string `json:"to_memory_id"`
}
