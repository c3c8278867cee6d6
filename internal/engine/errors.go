package engine

import (
	"errors"
	"fmt"

	"github.com/dpxrk/pactwise-memory/internal/storage"
	"github.com/dpxrk/pactwise-memory/pkg/types"
)

// ErrAuthenticationRequired indicates that no authenticated actor was
// supplied. Every mutating operation rejects with this error.
var ErrAuthenticationRequired = errors.New("authentication required")

// validateClassification checks the enum and range fields shared by both
// tiers' write paths.
func validateClassification(memoryType types.MemoryType, importance types.ImportanceLevel, source types.MemorySource, confidence float64) error {
	if !types.IsValidMemoryType(memoryType) {
		return fmt.Errorf("%w: unknown memory type %q", storage.ErrInvalidInput, memoryType)
	}
	if !types.IsValidImportance(importance) {
		return fmt.Errorf("%w: unknown importance level %q", storage.ErrInvalidInput, importance)
	}
	if !types.IsValidMemorySource(source) {
		return fmt.Errorf("%w: unknown memory source %q", storage.ErrInvalidInput, source)
	}
	if confidence < 0 || confidence > 1 {
		return fmt.Errorf("%w: confidence %f outside [0,1]", storage.ErrInvalidInput, confidence)
	}
	return nil
}
