package storage

import (
	"context"
	"time"

	"github.com/dpxrk/pactwise-memory/pkg/types"
)

// ShortTermStore persists session-scoped memory records.
type ShortTermStore interface {
	// Insert creates a new short-term record.
	Insert(ctx context.Context, m *types.ShortTermMemory) error

	// Get retrieves a record by ID. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*types.ShortTermMemory, error)

	// Update overwrites an existing record. Returns ErrNotFound if it
	// doesn't exist.
	Update(ctx context.Context, m *types.ShortTermMemory) error

	// FindDuplicate returns the record matching the exact
	// (userID, sessionID, memoryType, content) tuple, or ErrNotFound.
	FindDuplicate(ctx context.Context, userID, sessionID string, memoryType types.MemoryType, content string) (*types.ShortTermMemory, error)

	// ListBySession returns up to limit records for one session, newest
	// first.
	ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]*types.ShortTermMemory, error)

	// ListRecent returns records for a user filtered by type and minimum
	// importance rank, newest first, bounded by q.Limit.
	ListRecent(ctx context.Context, userID string, q RecentQuery) ([]*types.ShortTermMemory, error)

	// SearchContent returns records whose content contains the query
	// case-insensitively, optionally scoped to one session, newest first.
	SearchContent(ctx context.Context, userID string, q SearchQuery) ([]*types.ShortTermMemory, error)

	// SetShouldConsolidate flags the given records for consolidation,
	// restricted to records owned by userID. Unknown ids are skipped.
	SetShouldConsolidate(ctx context.Context, userID string, ids []string) error

	// ListPendingConsolidation returns up to limit records flagged for
	// consolidation that have not been consolidated yet, oldest first.
	ListPendingConsolidation(ctx context.Context, userID string, limit int) ([]*types.ShortTermMemory, error)

	// ListPendingConsolidationAll is the cross-user variant backing the
	// background consolidation sweep.
	ListPendingConsolidationAll(ctx context.Context, limit int) ([]*types.ShortTermMemory, error)

	// MarkConsolidated stamps consolidated_at = at on the given records,
	// restricted to records owned by userID; ids outside that scope are
	// ignored. Safe to repeat; already-stamped records keep their original
	// timestamp.
	MarkConsolidated(ctx context.Context, userID string, ids []string, at time.Time) error

	// ListExpired returns all records (across users) whose expires_at is
	// before now. The expiry sweep decides which of them to delete.
	ListExpired(ctx context.Context, now time.Time) ([]*types.ShortTermMemory, error)

	// Delete removes the given records permanently.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of records owned by userID.
	Count(ctx context.Context, userID string) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// LongTermStore persists durable memory records.
type LongTermStore interface {
	// Insert creates a new long-term record.
	Insert(ctx context.Context, m *types.LongTermMemory) error

	// Get retrieves a record by ID. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*types.LongTermMemory, error)

	// Update overwrites an existing record. Returns ErrNotFound if it
	// doesn't exist.
	Update(ctx context.Context, m *types.LongTermMemory) error

	// Delete removes a record permanently. Returns ErrNotFound if it
	// doesn't exist.
	Delete(ctx context.Context, id string) error

	// ListRecentByType returns up to limit records for (userID, memoryType),
	// newest first. This is the merge candidate pool for the similarity
	// check on write.
	ListRecentByType(ctx context.Context, userID string, memoryType types.MemoryType, limit int) ([]*types.LongTermMemory, error)

	// List returns records for a user filtered by type, minimum importance
	// rank and minimum strength. No ordering or truncation is applied; the
	// caller sorts and truncates after filtering completes.
	List(ctx context.Context, userID string, q ListQuery) ([]*types.LongTermMemory, error)

	// ListDecayCandidates returns all records (across users) whose
	// last_accessed_at is before the cutoff.
	ListDecayCandidates(ctx context.Context, cutoff time.Time) ([]*types.LongTermMemory, error)

	// Stats summarizes the user's live records.
	Stats(ctx context.Context, userID string) (TierStats, error)

	// Close releases any resources held by the store.
	Close() error
}

// AssociationStore reads the directed association graph between long-term
// memories. Edges are written by an external collaborator; Insert exists so
// that collaborator can share the same backing store.
type AssociationStore interface {
	// Insert records a directed edge.
	Insert(ctx context.Context, a types.MemoryAssociation) error

	// ListFrom returns all edges originating at fromMemoryID.
	ListFrom(ctx context.Context, fromMemoryID string) ([]types.MemoryAssociation, error)
}
