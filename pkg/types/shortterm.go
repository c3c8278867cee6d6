package types

import "time"

// ShortTermContext links a short-term memory to the entities it was learned
// from. All fields are optional.
type ShortTermContext struct {
	ConversationID  string   `json:"conversation_id,omitempty"`
	TaskID          string   `json:"task_id,omitempty"`
	ContractID      string   `json:"contract_id,omitempty"`
	VendorID        string   `json:"vendor_id,omitempty"`
	AgentID         string   `json:"agent_id,omitempty"`
	RelatedEntities []string `json:"related_entities,omitempty"`
}

// ShortTermMemory is a session-scoped, fast-expiring memory record.
//
// At most one record exists per (UserID, SessionID, MemoryType, Content)
// tuple: the write path upserts into an existing record rather than creating
// a duplicate.
type ShortTermMemory struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	EnterpriseID string `json:"enterprise_id"`
	SessionID    string `json:"session_id"`

	MemoryType     MemoryType             `json:"memory_type"`
	Content        string                 `json:"content"`
	StructuredData map[string]interface{} `json:"structured_data,omitempty"`
	Context        ShortTermContext       `json:"context"`

	Importance ImportanceLevel        `json:"importance"`
	Confidence float64                `json:"confidence"` // [0,1]
	Source     MemorySource           `json:"source"`
	SourceMeta map[string]interface{} `json:"source_metadata,omitempty"`

	// Lifecycle fields.
	AccessCount    int       `json:"access_count"` // Starts at 1, incremented on dedup hit.
	LastAccessedAt time.Time `json:"last_accessed_at"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"` // Importance-derived unless explicitly supplied.

	// IsProcessed is reserved for downstream consumers; no path in this
	// subsystem sets it.
	IsProcessed bool `json:"is_processed"`

	// ShouldConsolidate is true at creation for critical/high importance. A
	// flagged record is protected from the expiry sweep until ConsolidatedAt
	// is set.
	ShouldConsolidate bool       `json:"should_consolidate"`
	ConsolidatedAt    *time.Time `json:"consolidated_at,omitempty"`
}

// ShortTermInput is the caller-supplied portion of a short-term store
// operation.
type ShortTermInput struct {
	SessionID      string                 `json:"session_id"`
	MemoryType     MemoryType             `json:"memory_type"`
	Content        string                 `json:"content"`
	StructuredData map[string]interface{} `json:"structured_data,omitempty"`
	Context        ShortTermContext       `json:"context"`
	Importance     ImportanceLevel        `json:"importance"`
	Confidence     float64                `json:"confidence"`
	Source         MemorySource           `json:"source"`
	SourceMeta     map[string]interface{} `json:"source_metadata,omitempty"`

	// ExpiresAt overrides the importance-derived TTL when non-nil.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
