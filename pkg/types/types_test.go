package types

import (
	"testing"
	"time"
)

func TestImportanceRankOrdering(t *testing.T) {
	ordered := []ImportanceLevel{
		ImportanceTemporary,
		ImportanceLow,
		ImportanceMedium,
		ImportanceHigh,
		ImportanceCritical,
	}

	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Errorf("expected %s to rank above %s", ordered[i], ordered[i-1])
		}
	}

	if ImportanceLevel("bogus").Rank() >= ImportanceTemporary.Rank() {
		t.Error("unknown level should rank below temporary")
	}
}

func TestHigherPicksGreaterRank(t *testing.T) {
	cases := []struct {
		a, b, want ImportanceLevel
	}{
		{ImportanceLow, ImportanceHigh, ImportanceHigh},
		{ImportanceCritical, ImportanceTemporary, ImportanceCritical},
		{ImportanceMedium, ImportanceMedium, ImportanceMedium},
	}

	for _, tc := range cases {
		if got := Higher(tc.a, tc.b); got != tc.want {
			t.Errorf("Higher(%s, %s) = %s, want %s", tc.a, tc.b, got, tc.want)
		}
		if got := Higher(tc.b, tc.a); got != tc.want {
			t.Errorf("Higher(%s, %s) = %s, want %s", tc.b, tc.a, got, tc.want)
		}
	}
}

func TestImportanceTTL(t *testing.T) {
	cases := []struct {
		level ImportanceLevel
		want  time.Duration
	}{
		{ImportanceCritical, 365 * 24 * time.Hour},
		{ImportanceHigh, 7 * 24 * time.Hour},
		{ImportanceMedium, 24 * time.Hour},
		{ImportanceLow, 4 * time.Hour},
		{ImportanceTemporary, 30 * time.Minute},
		{ImportanceLevel("bogus"), 24 * time.Hour}, // falls back to medium
	}

	for _, tc := range cases {
		if got := tc.level.TTL(); got != tc.want {
			t.Errorf("%s.TTL() = %v, want %v", tc.level, got, tc.want)
		}
	}
}

func TestInitialStrengthAndDecayRate(t *testing.T) {
	cases := []struct {
		level    ImportanceLevel
		strength float64
		decay    float64
	}{
		{ImportanceCritical, 1.0, 0.001},
		{ImportanceHigh, 0.8, 0.005},
		{ImportanceMedium, 0.6, 0.01},
		{ImportanceLow, 0.4, 0.02},
		{ImportanceTemporary, 0.2, 0.05},
	}

	for _, tc := range cases {
		if got := tc.level.InitialStrength(); got != tc.strength {
			t.Errorf("%s.InitialStrength() = %f, want %f", tc.level, got, tc.strength)
		}
		if got := tc.level.DecayRate(); got != tc.decay {
			t.Errorf("%s.DecayRate() = %f, want %f", tc.level, got, tc.decay)
		}
	}
}

func TestEnumValidators(t *testing.T) {
	for _, mt := range ValidMemoryTypes {
		if !IsValidMemoryType(mt) {
			t.Errorf("IsValidMemoryType(%s) = false", mt)
		}
	}
	if IsValidMemoryType("vibes") {
		t.Error("IsValidMemoryType accepted an unknown type")
	}

	for _, src := range ValidMemorySources {
		if !IsValidMemorySource(src) {
			t.Errorf("IsValidMemorySource(%s) = false", src)
		}
	}
	if IsValidMemorySource(SourceConsolidation) {
		t.Error("consolidation source must not be caller-suppliable")
	}

	if !IsValidImportance(ImportanceHigh) || IsValidImportance("urgent") {
		t.Error("IsValidImportance mismatch")
	}
}

func TestActorValid(t *testing.T) {
	if (Actor{}).Valid() {
		t.Error("empty actor should be invalid")
	}
	if (Actor{UserID: "u1"}).Valid() {
		t.Error("actor without enterprise should be invalid")
	}
	if !(Actor{UserID: "u1", EnterpriseID: "e1"}).Valid() {
		t.Error("complete actor should be valid")
	}
}
