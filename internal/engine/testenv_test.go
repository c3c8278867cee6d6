package engine_test

import (
	"testing"

	"github.com/dpxrk/pactwise-memory/internal/engine"
	"github.com/dpxrk/pactwise-memory/internal/storage/sqlite"
	"github.com/dpxrk/pactwise-memory/pkg/types"
)

var testActor = types.Actor{UserID: "user-1", EnterpriseID: "ent-1"}

// testEnv wires both tier services over one in-memory SQLite database.
type testEnv struct {
	db           *sqlite.DB
	shortTerm    *engine.ShortTermService
	longTerm     *engine.LongTermService
	consolidator *engine.Consolidator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	stm := db.ShortTerm()
	longTerm := engine.NewLongTermService(db.LongTerm(), stm, db.Associations(), nil)

	return &testEnv{
		db:           db,
		shortTerm:    engine.NewShortTermService(stm),
		longTerm:     longTerm,
		consolidator: engine.NewConsolidator(stm, longTerm),
	}
}
