package engine_test

import (
	"reflect"
	"testing"

	"github.com/dpxrk/pactwise-memory/internal/engine"
)

func TestTokenizeLowercasesAndSplits(t *testing.T) {
	got := engine.Tokenize("  User Prefers   EMAIL notifications ")
	want := []string{"user", "prefers", "email", "notifications"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestLexicalSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "user prefers email", "user prefers email", 1.0},
		{"disjoint", "alpha beta", "gamma delta", 0.0},
		{"case_insensitive", "Payment Terms", "payment terms", 1.0},
		{"both_empty", "", "", 0.0},
		{"one_empty", "something", "", 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := engine.LexicalSimilarity(tc.a, tc.b); got != tc.want {
				t.Errorf("LexicalSimilarity(%q, %q) = %f, want %f", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestLexicalSimilarityPartialOverlap(t *testing.T) {
	// Sets: {user, prefers, email, over, sms} and {user, prefers, phone,
	// over, sms}: intersection 4, union 6.
	got := engine.LexicalSimilarity("user prefers email over sms", "user prefers phone over sms")
	want := 4.0 / 6.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("similarity = %f, want %f", got, want)
	}
}

func TestLexicalSimilarityNearDuplicateAboveThreshold(t *testing.T) {
	// Word order doesn't matter for set overlap: these two sentences share
	// every token, so they must exceed the 0.8 merge threshold.
	a := "User prefers email notifications over SMS"
	b := "User prefers email over SMS notifications"
	if got := engine.LexicalSimilarity(a, b); got <= 0.8 {
		t.Errorf("similarity = %f, want > 0.8", got)
	}
}

func TestExtractKeywordsFiltersShortAndStopwords(t *testing.T) {
	got := engine.ExtractKeywords("the contract with this vendor is a contract about payment", 10)
	want := []string{"contract", "vendor", "payment"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractKeywords() = %v, want %v", got, want)
	}
}

func TestExtractKeywordsFrequencyRankingWithFirstSeenTies(t *testing.T) {
	// "vendor" appears twice; "invoice" and "payment" once each, invoice
	// first. Expect frequency order with first-seen tie-break.
	got := engine.ExtractKeywords("invoice vendor payment vendor", 10)
	want := []string{"vendor", "invoice", "payment"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractKeywords() = %v, want %v", got, want)
	}
}

func TestExtractKeywordsHonorsTopN(t *testing.T) {
	got := engine.ExtractKeywords("alpha1 beta2 gamma3 delta4 epsilon5", 3)
	if len(got) != 3 {
		t.Errorf("expected 3 keywords, got %d: %v", len(got), got)
	}
}
