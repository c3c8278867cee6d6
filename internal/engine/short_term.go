package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dpxrk/pactwise-memory/internal/storage"
	"github.com/dpxrk/pactwise-memory/pkg/types"
)

// ShortTermService manages the session-scoped memory tier: importance-derived
// expiry, write-time deduplication, and flagging for consolidation.
type ShortTermService struct {
	store storage.ShortTermStore
}

// NewShortTermService creates a short-term service over the given store.
func NewShortTermService(store storage.ShortTermStore) *ShortTermService {
	return &ShortTermService{store: store}
}

// Store writes a short-term memory. If a record with the same
// (user, session, type, content) tuple already exists, the write is an
// idempotent upsert: access count and timestamps are bumped, importance is
// overwritten, confidence is raised to the max of both values, and the
// existing id is returned.
func (s *ShortTermService) Store(ctx context.Context, actor types.Actor, in types.ShortTermInput) (string, error) {
	if !actor.Valid() {
		return "", ErrAuthenticationRequired
	}
	if in.SessionID == "" {
		return "", fmt.Errorf("%w: session ID is required", storage.ErrInvalidInput)
	}
	if in.Content == "" {
		return "", fmt.Errorf("%w: content is required", storage.ErrInvalidInput)
	}
	if err := validateClassification(in.MemoryType, in.Importance, in.Source, in.Confidence); err != nil {
		return "", err
	}

	now := time.Now()

	existing, err := s.store.FindDuplicate(ctx, actor.UserID, in.SessionID, in.MemoryType, in.Content)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}
	if existing != nil {
		existing.AccessCount++
		existing.LastAccessedAt = now
		existing.Importance = in.Importance
		if in.Confidence > existing.Confidence {
			existing.Confidence = in.Confidence
		}
		if err := s.store.Update(ctx, existing); err != nil {
			return "", err
		}
		return existing.ID, nil
	}

	expiresAt := now.Add(in.Importance.TTL())
	if in.ExpiresAt != nil {
		expiresAt = *in.ExpiresAt
	}

	m := &types.ShortTermMemory{
		ID:                uuid.NewString(),
		UserID:            actor.UserID,
		EnterpriseID:      actor.EnterpriseID,
		SessionID:         in.SessionID,
		MemoryType:        in.MemoryType,
		Content:           in.Content,
		StructuredData:    in.StructuredData,
		Context:           in.Context,
		Importance:        in.Importance,
		Confidence:        in.Confidence,
		Source:            in.Source,
		SourceMeta:        in.SourceMeta,
		AccessCount:       1,
		LastAccessedAt:    now,
		CreatedAt:         now,
		ExpiresAt:         expiresAt,
		ShouldConsolidate: in.Importance.Rank() >= types.ImportanceHigh.Rank(),
	}

	if err := s.store.Insert(ctx, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

// GetSessionMemories returns up to limit memories for one session, newest
// first.
func (s *ShortTermService) GetSessionMemories(ctx context.Context, actor types.Actor, sessionID string, limit int) ([]*types.ShortTermMemory, error) {
	if !actor.Valid() {
		return nil, ErrAuthenticationRequired
	}
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session ID is required", storage.ErrInvalidInput)
	}
	if limit < 1 {
		limit = storage.DefaultListLimit
	}
	if limit > storage.MaxLimit {
		limit = storage.MaxLimit
	}
	return s.store.ListBySession(ctx, actor.UserID, sessionID, limit)
}

// GetRecentMemories returns the caller's memories filtered by type and a
// minimum importance threshold, newest first.
func (s *ShortTermService) GetRecentMemories(ctx context.Context, actor types.Actor, q storage.RecentQuery) ([]*types.ShortTermMemory, error) {
	if !actor.Valid() {
		return nil, ErrAuthenticationRequired
	}
	return s.store.ListRecent(ctx, actor.UserID, q)
}

// SearchMemories performs a case-insensitive substring match of the query
// against memory content, optionally scoped to one session.
func (s *ShortTermService) SearchMemories(ctx context.Context, actor types.Actor, q storage.SearchQuery) ([]*types.ShortTermMemory, error) {
	if !actor.Valid() {
		return nil, ErrAuthenticationRequired
	}
	if q.Query == "" {
		return nil, fmt.Errorf("%w: search query is required", storage.ErrInvalidInput)
	}
	return s.store.SearchContent(ctx, actor.UserID, q)
}

// MarkForConsolidation idempotently flags the given memories for promotion
// into the long-term tier. Only the caller's own records are affected.
func (s *ShortTermService) MarkForConsolidation(ctx context.Context, actor types.Actor, ids []string) error {
	if !actor.Valid() {
		return ErrAuthenticationRequired
	}
	return s.store.SetShouldConsolidate(ctx, actor.UserID, ids)
}

// CleanupExpiredMemories deletes every expired record except those flagged
// for consolidation that have not been consolidated yet — those are retained
// past their nominal expiry until the consolidation bridge processes them.
// Returns the number of records examined.
//
// The sweep is idempotent and safe to run on any schedule.
func (s *ShortTermService) CleanupExpiredMemories(ctx context.Context) (int, error) {
	expired, err := s.store.ListExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	var deletable []string
	for _, m := range expired {
		if m.ShouldConsolidate && m.ConsolidatedAt == nil {
			continue
		}
		deletable = append(deletable, m.ID)
	}

	if len(deletable) > 0 {
		if err := s.store.Delete(ctx, deletable); err != nil {
			// Partial failure must not abort the sweep's accounting.
			log.Printf("short-term cleanup: failed to delete %d expired memories: %v", len(deletable), err)
		}
	}

	return len(expired), nil
}
