package engine

import (
	"context"
	"log"

	"github.com/dpxrk/pactwise-memory/internal/storage"
	"github.com/dpxrk/pactwise-memory/pkg/types"
)

// defaultConsolidationBatch bounds how many pending records one Run handles.
const defaultConsolidationBatch = 100

// Consolidator promotes flagged short-term memories into the long-term tier.
// An external trigger invokes Run periodically; every transfer is
// at-least-once, with the long-term write path's merge and the consolidation
// stamp both idempotent under retry.
type Consolidator struct {
	shortTerm storage.ShortTermStore
	longTerm  *LongTermService
}

// NewConsolidator creates a consolidator over the two tiers.
func NewConsolidator(shortTerm storage.ShortTermStore, longTerm *LongTermService) *Consolidator {
	return &Consolidator{shortTerm: shortTerm, longTerm: longTerm}
}

// Run promotes up to limit pending short-term memories for the given actor.
// A single record's failure is logged and skipped. Returns the number of
// records promoted.
func (c *Consolidator) Run(ctx context.Context, actor types.Actor, limit int) (int, error) {
	if !actor.Valid() {
		return 0, ErrAuthenticationRequired
	}
	if limit < 1 {
		limit = defaultConsolidationBatch
	}

	pending, err := c.shortTerm.ListPendingConsolidation(ctx, actor.UserID, limit)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, m := range pending {
		in := promotionInput(m)
		if _, err := c.longTerm.Store(ctx, actor, in); err != nil {
			log.Printf("consolidation: failed to promote short-term memory %s: %v", m.ID, err)
			continue
		}
		promoted++
	}
	return promoted, nil
}

// RunAll promotes pending short-term memories across every user, deriving
// the acting identity from each record. This backs the periodic background
// sweep; the per-actor Run backs the on-demand API trigger.
func (c *Consolidator) RunAll(ctx context.Context, limit int) (int, error) {
	if limit < 1 {
		limit = defaultConsolidationBatch
	}

	pending, err := c.shortTerm.ListPendingConsolidationAll(ctx, limit)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, m := range pending {
		actor := types.Actor{UserID: m.UserID, EnterpriseID: m.EnterpriseID}
		in := promotionInput(m)
		if _, err := c.longTerm.Store(ctx, actor, in); err != nil {
			log.Printf("consolidation: failed to promote short-term memory %s: %v", m.ID, err)
			continue
		}
		promoted++
	}
	return promoted, nil
}

// promotionInput maps a short-term record onto the long-term write shape.
// The long-term store path stamps consolidated_at via ConsolidatedFrom.
func promotionInput(m *types.ShortTermMemory) types.LongTermInput {
	var entities []string
	entities = append(entities, m.Context.RelatedEntities...)
	if m.Context.ContractID != "" {
		entities = append(entities, m.Context.ContractID)
	}
	if m.Context.VendorID != "" {
		entities = append(entities, m.Context.VendorID)
	}

	return types.LongTermInput{
		MemoryType:     m.MemoryType,
		Content:        m.Content,
		StructuredData: m.StructuredData,
		Context: types.LongTermContext{
			RelatedEntities: entities,
		},
		Importance:       m.Importance,
		Confidence:       m.Confidence,
		Source:           m.Source,
		ConsolidatedFrom: []string{m.ID},
	}
}
