package engine_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dpxrk/pactwise-memory/internal/engine"
	"github.com/dpxrk/pactwise-memory/internal/storage"
	"github.com/dpxrk/pactwise-memory/pkg/types"
)

func longTermInput(content string, importance types.ImportanceLevel, confidence float64) types.LongTermInput {
	return types.LongTermInput{
		MemoryType: types.MemoryUserPreference,
		Content:    content,
		Importance: importance,
		Confidence: confidence,
		Source:     types.SourceConversation,
	}
}

// insertLongTerm writes a record directly to the store with full control over
// timestamps and decay fields, bypassing the service's write path.
func insertLongTerm(t *testing.T, env *testEnv, m *types.LongTermMemory) {
	t.Helper()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.UserID == "" {
		m.UserID = testActor.UserID
		m.EnterpriseID = testActor.EnterpriseID
	}
	if m.Summary == "" {
		m.Summary = m.Content
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
		m.UpdatedAt = m.CreatedAt
	}
	if err := env.db.LongTerm().Insert(context.Background(), m); err != nil {
		t.Fatalf("failed to insert long-term record: %v", err)
	}
}

func TestLongTermStoreCreatesWithDerivedDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	long := "Vendor Acme requires purchase orders for every engagement above the negotiated threshold amount. "
	for len(long) < 300 {
		long += "Additional context about the procurement workflow and invoice approvals. "
	}

	id, err := env.longTerm.Store(ctx, testActor, longTermInput(long, types.ImportanceHigh, 0.7))
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	m, err := env.db.LongTerm().Get(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if m.Strength != 0.8 {
		t.Errorf("strength = %f, want the high-importance initial 0.8", m.Strength)
	}
	if m.DecayRate != 0.005 {
		t.Errorf("decay rate = %f, want 0.005", m.DecayRate)
	}
	if len([]rune(m.Summary)) != 200 {
		t.Errorf("summary length = %d runes, want 200", len([]rune(m.Summary)))
	}
	if len(m.Keywords) == 0 {
		t.Error("expected auto-extracted keywords")
	}
	if m.ReinforcementCount != 0 || m.AccessCount != 1 || m.IsVerified {
		t.Errorf("fresh record has wrong lifecycle fields: %+v", m)
	}
	if len(m.SourceChain) != 1 || m.SourceChain[0] != types.SourceConversation {
		t.Errorf("source chain = %v, want [conversation]", m.SourceChain)
	}
}

func TestLongTermMergeOnWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id1, err := env.longTerm.Store(ctx, testActor,
		longTermInput("User prefers email notifications over SMS", types.ImportanceMedium, 0.6))
	if err != nil {
		t.Fatalf("first store failed: %v", err)
	}

	id2, err := env.longTerm.Store(ctx, testActor,
		longTermInput("User prefers email over SMS notifications", types.ImportanceHigh, 0.9))
	if err != nil {
		t.Fatalf("second store failed: %v", err)
	}

	if id1 != id2 {
		t.Fatalf("expected a merge into the existing record, got ids %s and %s", id1, id2)
	}

	m, err := env.db.LongTerm().Get(ctx, id1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if math.Abs(m.Strength-0.7) > 1e-9 {
		t.Errorf("strength = %f, want initial 0.6 + 0.1 = 0.7", m.Strength)
	}
	if m.Importance != types.ImportanceHigh {
		t.Errorf("importance = %s, want upgraded to high", m.Importance)
	}
	if m.Confidence != 0.9 {
		t.Errorf("confidence = %f, want max(0.6, 0.9) = 0.9", m.Confidence)
	}
	if m.ReinforcementCount != 1 {
		t.Errorf("reinforcement count = %d, want 1", m.ReinforcementCount)
	}
	if m.AccessCount != 2 {
		t.Errorf("access count = %d, want 2", m.AccessCount)
	}
	if m.LastReinforcedAt == nil {
		t.Error("last_reinforced_at should be set after merge")
	}
}

func TestLongTermDissimilarContentCreatesSeparateRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id1, err := env.longTerm.Store(ctx, testActor,
		longTermInput("User prefers email notifications", types.ImportanceMedium, 0.6))
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	id2, err := env.longTerm.Store(ctx, testActor,
		longTermInput("Vendor invoices arrive quarterly", types.ImportanceMedium, 0.6))
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	if id1 == id2 {
		t.Error("dissimilar content must not merge")
	}
}

func TestReinforceMemory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.longTerm.Store(ctx, testActor, longTermInput("reinforce me", types.ImportanceMedium, 0.5))
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	m, err := env.longTerm.ReinforceMemory(ctx, testActor, id, 0)
	if err != nil {
		t.Fatalf("reinforce failed: %v", err)
	}
	if math.Abs(m.Strength-0.7) > 1e-9 {
		t.Errorf("strength = %f, want 0.6 + default 0.1 = 0.7", m.Strength)
	}
	if m.ReinforcementCount != 1 {
		t.Errorf("reinforcement count = %d, want 1", m.ReinforcementCount)
	}

	// Strength clamps at 1.0 no matter how large the delta.
	m, err = env.longTerm.ReinforceMemory(ctx, testActor, id, 5)
	if err != nil {
		t.Fatalf("reinforce failed: %v", err)
	}
	if m.Strength != 1.0 {
		t.Errorf("strength = %f, want clamped to 1.0", m.Strength)
	}
}

func TestReinforceMemoryScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.longTerm.Store(ctx, testActor, longTermInput("private", types.ImportanceMedium, 0.5))
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	stranger := types.Actor{UserID: "user-2", EnterpriseID: "ent-1"}
	if _, err := env.longTerm.ReinforceMemory(ctx, stranger, id, 0.1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a foreign record, got %v", err)
	}
	if _, err := env.longTerm.ReinforceMemory(ctx, testActor, "no-such-id", 0.1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a missing record, got %v", err)
	}
}

func TestVerifyMemoryPinsAgainstDecay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.longTerm.Store(ctx, testActor, longTermInput("verified fact", types.ImportanceMedium, 0.4))
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	m, err := env.longTerm.VerifyMemory(ctx, testActor, id)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !m.IsVerified {
		t.Error("record should be verified")
	}
	if m.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", m.Confidence)
	}
	if math.Abs(m.Strength-0.8) > 1e-9 {
		t.Errorf("strength = %f, want 0.6 + 0.2 = 0.8", m.Strength)
	}
}

func TestApplyDecaySkipsCriticalAndVerified(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	old := time.Now().Add(-30 * 24 * time.Hour)

	critical := &types.LongTermMemory{
		MemoryType:     types.MemoryDomainKnowledge,
		Content:        "critical record",
		Importance:     types.ImportanceCritical,
		Confidence:     0.9,
		Source:         types.SourceSystemObservation,
		Strength:       1.0,
		DecayRate:      0.001,
		AccessCount:    1,
		LastAccessedAt: old,
	}
	verified := &types.LongTermMemory{
		MemoryType:     types.MemoryDomainKnowledge,
		Content:        "verified record",
		Importance:     types.ImportanceLow,
		Confidence:     1.0,
		Source:         types.SourceExplicitFeedback,
		Strength:       0.4,
		DecayRate:      0.02,
		IsVerified:     true,
		AccessCount:    1,
		LastAccessedAt: old,
	}
	insertLongTerm(t, env, critical)
	insertLongTerm(t, env, verified)

	if _, err := env.longTerm.ApplyDecay(ctx); err != nil {
		t.Fatalf("decay failed: %v", err)
	}

	got, _ := env.db.LongTerm().Get(ctx, critical.ID)
	if got.Strength != 1.0 {
		t.Errorf("critical strength = %f, want untouched 1.0", got.Strength)
	}
	got, _ = env.db.LongTerm().Get(ctx, verified.ID)
	if got.Strength != 0.4 {
		t.Errorf("verified strength = %f, want untouched 0.4", got.Strength)
	}
}

func TestApplyDecayReducesStrength(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := &types.LongTermMemory{
		MemoryType:     types.MemoryUserPreference,
		Content:        "slowly fading",
		Importance:     types.ImportanceMedium,
		Confidence:     0.5,
		Source:         types.SourceConversation,
		Strength:       0.6,
		DecayRate:      0.01,
		AccessCount:    1,
		LastAccessedAt: time.Now().Add(-2 * 24 * time.Hour),
	}
	insertLongTerm(t, env, m)

	if _, err := env.longTerm.ApplyDecay(ctx); err != nil {
		t.Fatalf("decay failed: %v", err)
	}

	got, err := env.db.LongTerm().Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	// 2 days at 0.01/day: 0.6 - 0.02 = 0.58.
	if math.Abs(got.Strength-0.58) > 1e-6 {
		t.Errorf("strength = %f, want 0.58", got.Strength)
	}
}

func TestApplyDecayDeletesDeadRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := &types.LongTermMemory{
		MemoryType:     types.MemoryUserPreference,
		Content:        "nearly dead",
		Importance:     types.ImportanceLow,
		Confidence:     0.3,
		Source:         types.SourceConversation,
		Strength:       0.05,
		DecayRate:      0.02,
		AccessCount:    1,
		LastAccessedAt: time.Now().Add(-3 * 24 * time.Hour),
	}
	insertLongTerm(t, env, m)

	// 3 days at 0.02/day: loss 0.06 > strength 0.05, so the record dies.
	if _, err := env.longTerm.ApplyDecay(ctx); err != nil {
		t.Fatalf("decay failed: %v", err)
	}

	if _, err := env.db.LongTerm().Get(ctx, m.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected the record to be deleted, got %v", err)
	}
}

func TestGetMemoriesSortsByStrengthWithRecencyTieBreak(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	strong := &types.LongTermMemory{
		MemoryType:     types.MemoryDomainKnowledge,
		Content:        "strong and stale",
		Importance:     types.ImportanceMedium,
		Confidence:     0.5,
		Source:         types.SourceConversation,
		Strength:       0.9,
		DecayRate:      0.01,
		AccessCount:    1,
		LastAccessedAt: now.Add(-48 * time.Hour),
	}
	tiedButFresh := &types.LongTermMemory{
		MemoryType:     types.MemoryDomainKnowledge,
		Content:        "slightly weaker but fresh",
		Importance:     types.ImportanceMedium,
		Confidence:     0.5,
		Source:         types.SourceConversation,
		Strength:       0.85,
		DecayRate:      0.01,
		AccessCount:    1,
		LastAccessedAt: now,
	}
	weak := &types.LongTermMemory{
		MemoryType:     types.MemoryDomainKnowledge,
		Content:        "clearly weaker",
		Importance:     types.ImportanceMedium,
		Confidence:     0.5,
		Source:         types.SourceConversation,
		Strength:       0.3,
		DecayRate:      0.01,
		AccessCount:    1,
		LastAccessedAt: now,
	}
	insertLongTerm(t, env, strong)
	insertLongTerm(t, env, tiedButFresh)
	insertLongTerm(t, env, weak)

	got, err := env.longTerm.GetMemories(ctx, testActor, storage.ListQuery{})
	if err != nil {
		t.Fatalf("GetMemories failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}

	// 0.9 and 0.85 are within the 0.1 tie window, so the more recently
	// accessed record wins despite lower strength.
	if got[0].ID != tiedButFresh.ID {
		t.Errorf("first = %q, want the fresh tied record", got[0].Content)
	}
	if got[2].ID != weak.ID {
		t.Errorf("last = %q, want the weak record", got[2].Content)
	}
}

func TestGetMemoriesAppliesThresholds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	records := []*types.LongTermMemory{
		{MemoryType: types.MemoryUserPreference, Content: "keep high", Importance: types.ImportanceHigh,
			Confidence: 0.5, Source: types.SourceConversation, Strength: 0.8, DecayRate: 0.005, AccessCount: 1, LastAccessedAt: now},
		{MemoryType: types.MemoryUserPreference, Content: "drop low importance", Importance: types.ImportanceLow,
			Confidence: 0.5, Source: types.SourceConversation, Strength: 0.8, DecayRate: 0.02, AccessCount: 1, LastAccessedAt: now},
		{MemoryType: types.MemoryUserPreference, Content: "drop weak", Importance: types.ImportanceHigh,
			Confidence: 0.5, Source: types.SourceConversation, Strength: 0.2, DecayRate: 0.005, AccessCount: 1, LastAccessedAt: now},
	}
	for _, m := range records {
		insertLongTerm(t, env, m)
	}

	got, err := env.longTerm.GetMemories(ctx, testActor, storage.ListQuery{
		MinImportance: types.ImportanceHigh,
		MinStrength:   0.5,
	})
	if err != nil {
		t.Fatalf("GetMemories failed: %v", err)
	}
	if len(got) != 1 || got[0].Content != "keep high" {
		t.Fatalf("thresholds returned wrong records: %v", got)
	}
}

func TestSearchRankingPrefersCriticalContentMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	critical := &types.LongTermMemory{
		MemoryType:     types.MemoryDomainKnowledge,
		Content:        "payment terms for Acme are NET-30",
		Importance:     types.ImportanceCritical,
		Confidence:     0.9,
		Source:         types.SourceExplicitFeedback,
		Strength:       0.9,
		DecayRate:      0.001,
		AccessCount:    1,
		LastAccessedAt: now,
	}
	tagged := &types.LongTermMemory{
		MemoryType:     types.MemoryDomainKnowledge,
		Content:        "vendor onboarding checklist",
		Importance:     types.ImportanceLow,
		Confidence:     0.5,
		Source:         types.SourceConversation,
		Context:        types.LongTermContext{Tags: []string{"payment terms"}},
		Strength:       0.9,
		DecayRate:      0.02,
		AccessCount:    1,
		LastAccessedAt: now,
	}
	insertLongTerm(t, env, critical)
	insertLongTerm(t, env, tagged)

	results, err := env.longTerm.SearchMemories(ctx, testActor, storage.SearchQuery{Query: "payment terms"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both records to score, got %d", len(results))
	}
	if results[0].Memory.ID != critical.ID {
		t.Errorf("first result = %q, want the critical content match", results[0].Memory.Content)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores not descending: %f then %f", results[0].Score, results[1].Score)
	}
}

func TestSearchDropsZeroScores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := &types.LongTermMemory{
		MemoryType:     types.MemoryDomainKnowledge,
		Content:        "nothing relevant here",
		Importance:     types.ImportanceMedium,
		Confidence:     0.5,
		Source:         types.SourceConversation,
		Strength:       0.9,
		DecayRate:      0.01,
		AccessCount:    1,
		LastAccessedAt: time.Now(),
	}
	insertLongTerm(t, env, m)

	results, err := env.longTerm.SearchMemories(ctx, testActor, storage.SearchQuery{Query: "blockchain"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestGetRelatedMemoriesUnionsContextAndAssociations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	related1 := &types.LongTermMemory{
		MemoryType: types.MemoryDomainKnowledge, Content: "explicitly related",
		Importance: types.ImportanceMedium, Confidence: 0.5, Source: types.SourceConversation,
		Strength: 0.6, DecayRate: 0.01, AccessCount: 1, LastAccessedAt: now,
	}
	related2 := &types.LongTermMemory{
		MemoryType: types.MemoryDomainKnowledge, Content: "related via association",
		Importance: types.ImportanceMedium, Confidence: 0.5, Source: types.SourceConversation,
		Strength: 0.6, DecayRate: 0.01, AccessCount: 1, LastAccessedAt: now,
	}
	insertLongTerm(t, env, related1)
	insertLongTerm(t, env, related2)

	root := &types.LongTermMemory{
		MemoryType: types.MemoryDomainKnowledge, Content: "root",
		Importance: types.ImportanceMedium, Confidence: 0.5, Source: types.SourceConversation,
		Context:  types.LongTermContext{RelatedMemories: []string{related1.ID, "ghost-id"}},
		Strength: 0.6, DecayRate: 0.01, AccessCount: 1, LastAccessedAt: now,
	}
	insertLongTerm(t, env, root)

	if err := env.db.Associations().Insert(ctx, types.MemoryAssociation{
		FromMemoryID: root.ID, ToMemoryID: related2.ID,
	}); err != nil {
		t.Fatalf("failed to insert association: %v", err)
	}
	// Duplicate of the explicit link; must not produce a duplicate result.
	if err := env.db.Associations().Insert(ctx, types.MemoryAssociation{
		FromMemoryID: root.ID, ToMemoryID: related1.ID,
	}); err != nil {
		t.Fatalf("failed to insert association: %v", err)
	}

	got, err := env.longTerm.GetRelatedMemories(ctx, testActor, root.ID, 10)
	if err != nil {
		t.Fatalf("GetRelatedMemories failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 related records (ghost dropped, dupes merged), got %d", len(got))
	}

	seen := map[string]bool{}
	for _, m := range got {
		seen[m.ID] = true
	}
	if !seen[related1.ID] || !seen[related2.ID] {
		t.Errorf("missing expected related records: %v", seen)
	}
}

func TestConsolidationStampScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	victim := types.Actor{UserID: "user-victim", EnterpriseID: "ent-victim"}
	victimID, err := env.shortTerm.Store(ctx, victim,
		shortTermInput("session-v", "Victim's renewal deadline is March 1st", types.ImportanceHigh))
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	// A different user names the victim's record as a consolidation source.
	in := longTermInput("Attacker content referencing someone else's record", types.ImportanceMedium, 0.5)
	in.ConsolidatedFrom = []string{victimID}
	if _, err := env.longTerm.Store(ctx, testActor, in); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	stm, err := env.db.ShortTerm().Get(ctx, victimID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stm.ConsolidatedAt != nil {
		t.Fatal("record owned by another user was stamped consolidated")
	}

	// The owner's own write path still stamps.
	ownID, err := env.shortTerm.Store(ctx, victim,
		shortTermInput("session-v", "Victim's own promoted fact", types.ImportanceHigh))
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}
	own := longTermInput("Victim's own promoted fact", types.ImportanceHigh, 0.8)
	own.ConsolidatedFrom = []string{ownID}
	if _, err := env.longTerm.Store(ctx, victim, own); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	stm, err = env.db.ShortTerm().Get(ctx, ownID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stm.ConsolidatedAt == nil {
		t.Fatal("owner's own record was not stamped consolidated")
	}
}

// stubEmbedder returns a fixed vector, or a fixed error, and counts calls.
type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vec, nil
}

func TestLongTermStoreEmbedsContentForMerge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Identical vectors for lexically unrelated content: only the embedding
	// path can merge these.
	stub := &stubEmbedder{vec: []float32{0.6, 0.8, 0}}
	svc := engine.NewLongTermService(env.db.LongTerm(), env.db.ShortTerm(), env.db.Associations(), stub)

	first, err := svc.Store(ctx, testActor, longTermInput("Quarterly invoices arrive from Globex", types.ImportanceMedium, 0.5))
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}
	second, err := svc.Store(ctx, testActor, longTermInput("Billing cadence: every three months", types.ImportanceMedium, 0.5))
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	if stub.calls != 2 {
		t.Errorf("embedder calls = %d, want 2 (once per write)", stub.calls)
	}
	if first != second {
		t.Errorf("expected the second write to merge into %s, got new record %s", first, second)
	}

	m, err := env.db.LongTerm().Get(ctx, first)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if m.ReinforcementCount != 1 {
		t.Errorf("reinforcement count = %d, want 1 after embedding merge", m.ReinforcementCount)
	}
}

func TestLongTermStoreFallsBackToLexicalWhenEmbedderFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stub := &stubEmbedder{err: engine.ErrEmbeddingUnavailable}
	svc := engine.NewLongTermService(env.db.LongTerm(), env.db.ShortTerm(), env.db.Associations(), stub)

	first, err := svc.Store(ctx, testActor, longTermInput("User prefers email notifications over SMS", types.ImportanceMedium, 0.6))
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}
	second, err := svc.Store(ctx, testActor, longTermInput("User prefers email over SMS notifications", types.ImportanceHigh, 0.9))
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	// The writes succeed and lexical overlap still merges them.
	if first != second {
		t.Errorf("expected lexical fallback to merge, got %s and %s", first, second)
	}
	if stub.calls != 2 {
		t.Errorf("embedder calls = %d, want 2", stub.calls)
	}
}

func TestSimilarityPrefersVectorsWithoutProvider(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Caller-supplied vectors are honored even when no provider is
	// configured: orthogonal vectors keep lexically identical content apart.
	a := longTermInput("Shared renewal policy statement", types.ImportanceMedium, 0.5)
	a.Embedding = []float32{1, 0, 0}
	first, err := env.longTerm.Store(ctx, testActor, a)
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	b := longTermInput("Shared renewal policy statement", types.ImportanceMedium, 0.5)
	b.Embedding = []float32{0, 1, 0}
	second, err := env.longTerm.Store(ctx, testActor, b)
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	if first == second {
		t.Fatal("orthogonal embeddings should not merge despite identical content")
	}
}
