package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpxrk/pactwise-memory/internal/storage"
	"github.com/dpxrk/pactwise-memory/internal/storage/sqlite"
	"github.com/dpxrk/pactwise-memory/pkg/types"
)

func newShortTerm(userID, sessionID, content string) *types.ShortTermMemory {
	now := time.Now()
	return &types.ShortTermMemory{
		ID:             uuid.NewString(),
		UserID:         userID,
		EnterpriseID:   "ent-test",
		SessionID:      sessionID,
		MemoryType:     types.MemoryConversationContext,
		Content:        content,
		Importance:     types.ImportanceMedium,
		Confidence:     0.5,
		Source:         types.SourceConversation,
		AccessCount:    1,
		LastAccessedAt: now,
		CreatedAt:      now,
		ExpiresAt:      now.Add(24 * time.Hour),
	}
}

func TestDedupIndexRejectsSecondInsert(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	ctx := context.Background()

	first := newShortTerm("user-1", "session-1", "same content")
	require.NoError(t, db.ShortTerm().Insert(ctx, first))

	// Same (user, session, type, content) violates the unique content-hash
	// index. The service layer is expected to upsert instead of inserting.
	second := newShortTerm("user-1", "session-1", "same content")
	assert.Error(t, db.ShortTerm().Insert(ctx, second))

	// A different session is a different tuple.
	other := newShortTerm("user-1", "session-2", "same content")
	assert.NoError(t, db.ShortTerm().Insert(ctx, other))
}

func TestOpenPersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memories.db")
	ctx := context.Background()

	db, err := sqlite.Open(path)
	require.NoError(t, err)

	m := newShortTerm("user-1", "session-1", "survives reopen")
	require.NoError(t, db.ShortTerm().Insert(ctx, m))
	require.NoError(t, db.Close())

	db, err = sqlite.Open(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	got, err := db.ShortTerm().Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "survives reopen", got.Content)
}

func TestListExpiredCrossesUsers(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	ctx := context.Background()

	expired1 := newShortTerm("user-1", "session-1", "expired one")
	expired1.ExpiresAt = time.Now().Add(-time.Hour)
	expired2 := newShortTerm("user-2", "session-9", "expired two")
	expired2.ExpiresAt = time.Now().Add(-time.Minute)
	alive := newShortTerm("user-1", "session-1", "still alive")

	for _, m := range []*types.ShortTermMemory{expired1, expired2, alive} {
		require.NoError(t, db.ShortTerm().Insert(ctx, m))
	}

	got, err := db.ShortTerm().ListExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLongTermUpdateMissingRecord(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	ctx := context.Background()

	now := time.Now()
	m := &types.LongTermMemory{
		ID:             uuid.NewString(),
		UserID:         "user-1",
		EnterpriseID:   "ent-test",
		MemoryType:     types.MemoryDomainKnowledge,
		Content:        "never inserted",
		Summary:        "never inserted",
		Importance:     types.ImportanceMedium,
		Confidence:     0.5,
		Source:         types.SourceConversation,
		Strength:       0.6,
		DecayRate:      0.01,
		LastAccessedAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	assert.ErrorIs(t, db.LongTerm().Update(ctx, m), storage.ErrNotFound)
	assert.ErrorIs(t, db.LongTerm().Delete(ctx, m.ID), storage.ErrNotFound)
	_, err = db.LongTerm().Get(ctx, m.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListQueryStrengthFloor(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	ctx := context.Background()

	now := time.Now()
	dead := &types.LongTermMemory{
		ID: uuid.NewString(), UserID: "user-1", EnterpriseID: "ent-test",
		MemoryType: types.MemoryDomainKnowledge, Content: "dead record", Summary: "dead record",
		Importance: types.ImportanceMedium, Confidence: 0.5, Source: types.SourceConversation,
		Strength: 0, DecayRate: 0.01, LastAccessedAt: now, CreatedAt: now, UpdatedAt: now,
	}
	live := &types.LongTermMemory{
		ID: uuid.NewString(), UserID: "user-1", EnterpriseID: "ent-test",
		MemoryType: types.MemoryDomainKnowledge, Content: "live record", Summary: "live record",
		Importance: types.ImportanceMedium, Confidence: 0.5, Source: types.SourceConversation,
		Strength: 0.4, DecayRate: 0.01, LastAccessedAt: now, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, db.LongTerm().Insert(ctx, dead))
	require.NoError(t, db.LongTerm().Insert(ctx, live))

	// Zero-strength records are invisible to every read path.
	got, err := db.LongTerm().List(ctx, "user-1", storage.ListQuery{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, live.ID, got[0].ID)
}

func TestMarkConsolidatedScopedToOwner(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	ctx := context.Background()

	mine := newShortTerm("user-1", "session-1", "my pending record")
	theirs := newShortTerm("user-2", "session-2", "their pending record")
	require.NoError(t, db.ShortTerm().Insert(ctx, mine))
	require.NoError(t, db.ShortTerm().Insert(ctx, theirs))

	// Stamping as user-1 must touch only user-1's record, even when the
	// id list names another user's.
	at := time.Now()
	require.NoError(t, db.ShortTerm().MarkConsolidated(ctx, "user-1", []string{mine.ID, theirs.ID}, at))

	got, err := db.ShortTerm().Get(ctx, mine.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ConsolidatedAt)

	got, err = db.ShortTerm().Get(ctx, theirs.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ConsolidatedAt)
}
