package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dpxrk/pactwise-memory/internal/storage"
	"github.com/dpxrk/pactwise-memory/pkg/types"
)

// Ensure the interface is satisfied at compile time.
var _ storage.AssociationStore = (*AssociationStore)(nil)

// AssociationStore implements storage.AssociationStore using SQLite.
type AssociationStore struct {
	db *sql.DB
}

// Insert records a directed edge. Re-inserting an existing edge is a no-op.
func (s *AssociationStore) Insert(ctx context.Context, a types.MemoryAssociation) error {
	if a.FromMemoryID == "" || a.ToMemoryID == "" {
		return fmt.Errorf("%w: both edge endpoints are required", storage.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO memory_associations (from_memory_id, to_memory_id) VALUES (?, ?)`,
		a.FromMemoryID, a.ToMemoryID)
	if err != nil {
		return fmt.Errorf("failed to insert association: %w", err)
	}
	return nil
}

// ListFrom returns all edges originating at fromMemoryID.
func (s *AssociationStore) ListFrom(ctx context.Context, fromMemoryID string) ([]types.MemoryAssociation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_memory_id, to_memory_id FROM memory_associations WHERE from_memory_id = ?`,
		fromMemoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query associations: %w", err)
	}
	defer rows.Close()

	var edges []types.MemoryAssociation
	for rows.Next() {
		var a types.MemoryAssociation
		if err := rows.Scan(&a.FromMemoryID, &a.ToMemoryID); err != nil {
			return nil, fmt.Errorf("failed to scan association: %w", err)
		}
		edges = append(edges, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return edges, nil
}
