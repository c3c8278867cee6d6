package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dpxrk/pactwise-memory/internal/storage"
	"github.com/dpxrk/pactwise-memory/pkg/types"
)

const (
	// mergeCandidateLimit bounds the recency window searched for a similar
	// existing memory on write. A heuristic, not an exhaustive scan.
	mergeCandidateLimit = 50

	// similarityThreshold is the similarity above which an incoming memory
	// is treated as a duplicate of an existing one and merged into it.
	similarityThreshold = 0.8

	// reinforcementBoost is the default strength increase on reinforcement.
	reinforcementBoost = 0.1

	// verificationBoost is the strength increase applied by verification.
	verificationBoost = 0.2

	// summaryLength is the number of characters of content used as the
	// default summary.
	summaryLength = 200

	// decayIdleWindow is how long a memory must go unaccessed before the
	// decay sweep considers it.
	decayIdleWindow = 24 * time.Hour

	// keywordCount is how many keywords are auto-extracted from content.
	keywordCount = 10

	// strengthTieWindow is the strength difference within which two records
	// are considered tied and ordered by recency instead.
	strengthTieWindow = 0.1
)

// LongTermService manages the durable memory tier: similarity-based merge on
// write, reinforcement, verification pinning, the periodic decay sweep, and
// relevance-ranked retrieval.
type LongTermService struct {
	store        storage.LongTermStore
	shortTerm    storage.ShortTermStore
	associations storage.AssociationStore
	embedder     EmbeddingProvider
}

// NewLongTermService creates a long-term service. shortTerm is used to stamp
// consolidated records on promotion and may be nil when the consolidation
// bridge is not wired. associations may be nil when the association graph is
// not available. embedder is optional; when present, incoming content is
// embedded on write and vector similarity is preferred over lexical
// similarity for the merge check.
func NewLongTermService(store storage.LongTermStore, shortTerm storage.ShortTermStore, associations storage.AssociationStore, embedder EmbeddingProvider) *LongTermService {
	return &LongTermService{
		store:        store,
		shortTerm:    shortTerm,
		associations: associations,
		embedder:     embedder,
	}
}

// SearchResult pairs a memory with its relevance score.
type SearchResult struct {
	Memory *types.LongTermMemory
	Score  float64
}

// Store writes a long-term memory. The incoming content is compared against
// the most recent records of the same (user, type); above the similarity
// threshold the existing record is reinforced instead of a new one being
// created. Either way, any short-term records named in in.ConsolidatedFrom
// are stamped as consolidated.
func (s *LongTermService) Store(ctx context.Context, actor types.Actor, in types.LongTermInput) (string, error) {
	if !actor.Valid() {
		return "", ErrAuthenticationRequired
	}
	if in.Content == "" {
		return "", fmt.Errorf("%w: content is required", storage.ErrInvalidInput)
	}
	if err := validateClassification(in.MemoryType, in.Importance, in.Source, in.Confidence); err != nil {
		return "", err
	}

	now := time.Now()

	// Fill in the semantic vector when a provider is configured and the
	// caller didn't supply one. Best-effort: an open circuit or a dead
	// service falls back to lexical similarity.
	if s.embedder != nil && len(in.Embedding) == 0 {
		vec, err := s.embedder.Embed(ctx, in.Content)
		if err != nil {
			log.Printf("long-term store: embedding unavailable, using lexical similarity: %v", err)
		} else {
			in.Embedding = vec
		}
	}

	candidates, err := s.mergeCandidates(ctx, actor.UserID, in)
	if err != nil {
		return "", err
	}

	for _, candidate := range candidates {
		if s.similarity(ctx, in, candidate) <= similarityThreshold {
			continue
		}

		// Same memory: reinforce instead of creating a duplicate.
		candidate.Strength = clamp01(candidate.Strength + reinforcementBoost)
		if in.Confidence > candidate.Confidence {
			candidate.Confidence = in.Confidence
		}
		candidate.ReinforcementCount++
		candidate.LastReinforcedAt = &now
		candidate.Importance = types.Higher(candidate.Importance, in.Importance)
		candidate.AccessCount++
		candidate.LastAccessedAt = now
		candidate.UpdatedAt = now

		if err := s.store.Update(ctx, candidate); err != nil {
			return "", err
		}

		s.stampConsolidated(ctx, actor.UserID, in.ConsolidatedFrom, now)
		return candidate.ID, nil
	}

	summary := in.Summary
	if summary == "" {
		summary = truncateRunes(in.Content, summaryLength)
	}
	keywords := in.Keywords
	if len(keywords) == 0 {
		keywords = ExtractKeywords(in.Content, keywordCount)
	}

	sourceChain := []types.MemorySource{in.Source}
	if len(in.ConsolidatedFrom) > 0 {
		sourceChain = append(sourceChain, types.SourceConsolidation)
	}

	m := &types.LongTermMemory{
		ID:               uuid.NewString(),
		UserID:           actor.UserID,
		EnterpriseID:     actor.EnterpriseID,
		MemoryType:       in.MemoryType,
		Content:          in.Content,
		StructuredData:   in.StructuredData,
		Summary:          summary,
		Embedding:        in.Embedding,
		Keywords:         keywords,
		Context:          in.Context,
		Importance:       in.Importance,
		Confidence:       in.Confidence,
		Source:           in.Source,
		SourceChain:      sourceChain,
		ConsolidatedFrom: in.ConsolidatedFrom,
		Strength:         in.Importance.InitialStrength(),
		DecayRate:        in.Importance.DecayRate(),
		AccessCount:      1,
		LastAccessedAt:   now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.Insert(ctx, m); err != nil {
		return "", err
	}

	s.stampConsolidated(ctx, actor.UserID, in.ConsolidatedFrom, now)
	return m.ID, nil
}

// vectorCandidateLister is implemented by backends that can rank merge
// candidates by embedding distance instead of recency.
type vectorCandidateLister interface {
	NearestByEmbedding(ctx context.Context, userID string, memoryType types.MemoryType, vec []float32, limit int) ([]*types.LongTermMemory, error)
}

// mergeCandidates returns the pool of existing records the incoming write is
// compared against. When the backend supports vector lookup and the input
// carries an embedding, the pool is the nearest records by cosine distance;
// otherwise it is the most recent records of the same type.
func (s *LongTermService) mergeCandidates(ctx context.Context, userID string, in types.LongTermInput) ([]*types.LongTermMemory, error) {
	if vl, ok := s.store.(vectorCandidateLister); ok && len(in.Embedding) > 0 {
		return vl.NearestByEmbedding(ctx, userID, in.MemoryType, in.Embedding, mergeCandidateLimit)
	}
	return s.store.ListRecentByType(ctx, userID, in.MemoryType, mergeCandidateLimit)
}

// similarity compares incoming content against a merge candidate, preferring
// embedding similarity when both sides carry a vector, falling back to
// lexical overlap otherwise. The same gate as mergeCandidates: vectors alone
// decide, no provider needed to compare them.
func (s *LongTermService) similarity(ctx context.Context, in types.LongTermInput, candidate *types.LongTermMemory) float64 {
	if len(in.Embedding) > 0 && len(candidate.Embedding) > 0 {
		return CosineSimilarity(in.Embedding, candidate.Embedding)
	}
	return LexicalSimilarity(in.Content, candidate.Content)
}

// stampConsolidated marks the originating short-term records as consolidated,
// scoped to the acting user so callers cannot stamp records they don't own.
// Stamping is best-effort: the long-term write has already happened, and a
// later consolidation pass will re-merge and re-stamp if this fails.
func (s *LongTermService) stampConsolidated(ctx context.Context, userID string, ids []string, at time.Time) {
	if len(ids) == 0 || s.shortTerm == nil {
		return
	}
	if err := s.shortTerm.MarkConsolidated(ctx, userID, ids, at); err != nil {
		log.Printf("long-term store: failed to stamp %d consolidated short-term memories: %v", len(ids), err)
	}
}

// ReinforceMemory increases a memory's strength by delta (default 0.1,
// clamped at 1.0) and records the reinforcement. Importance and confidence
// are unchanged.
func (s *LongTermService) ReinforceMemory(ctx context.Context, actor types.Actor, id string, delta float64) (*types.LongTermMemory, error) {
	if !actor.Valid() {
		return nil, ErrAuthenticationRequired
	}
	if delta <= 0 {
		delta = reinforcementBoost
	}

	m, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	m.Strength = clamp01(m.Strength + delta)
	m.ReinforcementCount++
	m.LastReinforcedAt = &now
	m.UpdatedAt = now

	if err := s.store.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// VerifyMemory marks a memory as user-confirmed: confidence becomes 1.0,
// strength gets a one-time boost, and the record is permanently exempt from
// the decay sweep.
func (s *LongTermService) VerifyMemory(ctx context.Context, actor types.Actor, id string) (*types.LongTermMemory, error) {
	if !actor.Valid() {
		return nil, ErrAuthenticationRequired
	}

	m, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	m.IsVerified = true
	m.Confidence = 1.0
	m.Strength = clamp01(m.Strength + verificationBoost)
	m.UpdatedAt = time.Now()

	if err := s.store.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ApplyDecay ages every memory that has gone unaccessed for more than 24
// hours. Critical and verified memories never decay. A memory whose strength
// reaches zero is deleted. A single record's failure is logged and skipped so
// the sweep completes for all other records.
//
// The sweep is idempotent: decay does not advance last_accessed_at, so
// re-running it computes a further, correctly smaller decrement. Returns the
// number of records examined.
func (s *LongTermService) ApplyDecay(ctx context.Context) (int, error) {
	now := time.Now()
	candidates, err := s.store.ListDecayCandidates(ctx, now.Add(-decayIdleWindow))
	if err != nil {
		return 0, err
	}

	for _, m := range candidates {
		if m.Importance == types.ImportanceCritical || m.IsVerified {
			continue
		}

		daysSinceAccess := now.Sub(m.LastAccessedAt).Hours() / 24
		loss := m.DecayRate * daysSinceAccess
		newStrength := m.Strength - loss

		if newStrength > 0 {
			// Patch strength only; access and update timestamps are not
			// advanced by decay itself.
			m.Strength = newStrength
			if err := s.store.Update(ctx, m); err != nil {
				log.Printf("decay sweep: failed to decay memory %s: %v", m.ID, err)
			}
			continue
		}

		if err := s.store.Delete(ctx, m.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("decay sweep: failed to delete dead memory %s: %v", m.ID, err)
		}
	}

	return len(candidates), nil
}

// GetMemories returns the caller's memories filtered by type, importance and
// strength thresholds. Results are ordered by strength descending; records
// within 0.1 strength of each other are ordered by most recent access.
// Truncation happens only after filtering and sorting complete.
func (s *LongTermService) GetMemories(ctx context.Context, actor types.Actor, q storage.ListQuery) ([]*types.LongTermMemory, error) {
	if !actor.Valid() {
		return nil, ErrAuthenticationRequired
	}
	q.Normalize()

	memories, err := s.store.List(ctx, actor.UserID, q)
	if err != nil {
		return nil, err
	}

	sort.Slice(memories, func(i, j int) bool {
		a, b := memories[i], memories[j]
		diff := a.Strength - b.Strength
		if diff < 0 {
			diff = -diff
		}
		if diff <= strengthTieWindow {
			return a.LastAccessedAt.After(b.LastAccessedAt)
		}
		return a.Strength > b.Strength
	})

	if len(memories) > q.Limit {
		memories = memories[:q.Limit]
	}
	return memories, nil
}

// SearchMemories scores every memory of the caller (optionally restricted by
// type) against a free-text query and returns the non-zero scores in
// descending order.
//
// Scoring: +3 for a content substring hit, +2 for a summary hit, +1.5 per
// query keyword appearing within a stored keyword, +1 per context tag
// containing the raw query. The sum is weighted by strength, then doubled
// for critical memories and raised 1.5x for high-importance ones.
func (s *LongTermService) SearchMemories(ctx context.Context, actor types.Actor, q storage.SearchQuery) ([]SearchResult, error) {
	if !actor.Valid() {
		return nil, ErrAuthenticationRequired
	}
	if q.Query == "" {
		return nil, fmt.Errorf("%w: search query is required", storage.ErrInvalidInput)
	}
	q.Normalize()

	memories, err := s.store.List(ctx, actor.UserID, storage.ListQuery{Types: q.Types})
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(q.Query)
	queryKeywords := ExtractKeywords(q.Query, keywordCount)

	var results []SearchResult
	for _, m := range memories {
		score := scoreMemory(m, q.Query, queryLower, queryKeywords)
		if score <= 0 {
			continue
		}
		results = append(results, SearchResult{Memory: m, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// scoreMemory computes the relevance score of one memory for a query.
func scoreMemory(m *types.LongTermMemory, rawQuery, queryLower string, queryKeywords []string) float64 {
	var score float64

	if strings.Contains(strings.ToLower(m.Content), queryLower) {
		score += 3
	}
	if strings.Contains(strings.ToLower(m.Summary), queryLower) {
		score += 2
	}

	for _, qk := range queryKeywords {
		for _, kw := range m.Keywords {
			if strings.Contains(kw, qk) {
				score += 1.5
				break
			}
		}
	}

	for _, tag := range m.Context.Tags {
		if strings.Contains(tag, rawQuery) {
			score += 1
		}
	}

	score *= m.Strength

	switch m.Importance {
	case types.ImportanceCritical:
		score *= 2.0
	case types.ImportanceHigh:
		score *= 1.5
	}

	return score
}

// GetRelatedMemories returns memories linked to the given one, combining the
// record's explicit related-memory ids with the association graph's outgoing
// edges. Ids that no longer resolve are silently dropped.
func (s *LongTermService) GetRelatedMemories(ctx context.Context, actor types.Actor, id string, limit int) ([]*types.LongTermMemory, error) {
	if !actor.Valid() {
		return nil, ErrAuthenticationRequired
	}
	if limit < 1 {
		limit = 10
	}

	m, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var relatedIDs []string
	for _, rid := range m.Context.RelatedMemories {
		if !seen[rid] {
			seen[rid] = true
			relatedIDs = append(relatedIDs, rid)
		}
	}

	if s.associations != nil {
		edges, err := s.associations.ListFrom(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if !seen[e.ToMemoryID] {
				seen[e.ToMemoryID] = true
				relatedIDs = append(relatedIDs, e.ToMemoryID)
			}
		}
	}

	if len(relatedIDs) > limit {
		relatedIDs = relatedIDs[:limit]
	}

	related := make([]*types.LongTermMemory, 0, len(relatedIDs))
	for _, rid := range relatedIDs {
		rm, err := s.store.Get(ctx, rid)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if rm.UserID != actor.UserID || rm.Strength == 0 {
			continue
		}
		related = append(related, rm)
	}
	return related, nil
}

// getOwned fetches a memory and enforces owner scoping: a record belonging
// to another user is reported as not found, never leaked.
func (s *LongTermService) getOwned(ctx context.Context, actor types.Actor, id string) (*types.LongTermMemory, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.UserID != actor.UserID {
		return nil, storage.ErrNotFound
	}
	return m, nil
}

// clamp01 clamps v to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// truncateRunes returns the first n runes of s.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
