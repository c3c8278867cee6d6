package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dpxrk/pactwise-memory/internal/storage"
	"github.com/dpxrk/pactwise-memory/pkg/types"
)

// Ensure the interface is satisfied at compile time.
var _ storage.ShortTermStore = (*ShortTermStore)(nil)

// ShortTermStore implements storage.ShortTermStore using SQLite.
type ShortTermStore struct {
	db *sql.DB
}

const shortTermColumns = `
	id, user_id, enterprise_id, session_id, memory_type, content,
	structured_data, context, importance, confidence, source, source_metadata,
	access_count, last_accessed_at, created_at, expires_at,
	is_processed, should_consolidate, consolidated_at`

// Insert creates a new short-term record.
func (s *ShortTermStore) Insert(ctx context.Context, m *types.ShortTermMemory) error {
	if m == nil || m.ID == "" {
		return fmt.Errorf("%w: memory and ID are required", storage.ErrInvalidInput)
	}
	if m.Content == "" {
		return fmt.Errorf("%w: content is required", storage.ErrInvalidInput)
	}

	structuredJSON, err := marshalJSON(m.StructuredData)
	if err != nil {
		return fmt.Errorf("failed to marshal structured_data: %w", err)
	}
	contextJSON, err := marshalJSON(m.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}
	sourceMetaJSON, err := marshalJSON(m.SourceMeta)
	if err != nil {
		return fmt.Errorf("failed to marshal source_metadata: %w", err)
	}

	query := `
		INSERT INTO short_term_memories (
			id, user_id, enterprise_id, session_id, memory_type, content,
			content_hash, structured_data, context,
			importance, importance_rank, confidence, source, source_metadata,
			access_count, last_accessed_at, created_at, expires_at,
			is_processed, should_consolidate, consolidated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		m.ID,
		m.UserID,
		m.EnterpriseID,
		m.SessionID,
		string(m.MemoryType),
		m.Content,
		contentHash(m.Content),
		structuredJSON,
		contextJSON,
		string(m.Importance),
		m.Importance.Rank(),
		m.Confidence,
		string(m.Source),
		sourceMetaJSON,
		m.AccessCount,
		m.LastAccessedAt,
		m.CreatedAt,
		m.ExpiresAt,
		m.IsProcessed,
		m.ShouldConsolidate,
		nullableTime(m.ConsolidatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert short-term memory: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *ShortTermStore) Get(ctx context.Context, id string) (*types.ShortTermMemory, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+shortTermColumns+` FROM short_term_memories WHERE id = ?`, id)

	m, err := scanShortTerm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get short-term memory: %w", err)
	}
	return m, nil
}

// Update overwrites an existing record.
func (s *ShortTermStore) Update(ctx context.Context, m *types.ShortTermMemory) error {
	if m == nil || m.ID == "" {
		return fmt.Errorf("%w: memory and ID are required", storage.ErrInvalidInput)
	}

	structuredJSON, err := marshalJSON(m.StructuredData)
	if err != nil {
		return fmt.Errorf("failed to marshal structured_data: %w", err)
	}
	contextJSON, err := marshalJSON(m.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}
	sourceMetaJSON, err := marshalJSON(m.SourceMeta)
	if err != nil {
		return fmt.Errorf("failed to marshal source_metadata: %w", err)
	}

	query := `
		UPDATE short_term_memories SET
			content = ?, content_hash = ?, structured_data = ?, context = ?,
			importance = ?, importance_rank = ?, confidence = ?,
			source = ?, source_metadata = ?,
			access_count = ?, last_accessed_at = ?, expires_at = ?,
			is_processed = ?, should_consolidate = ?, consolidated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		m.Content,
		contentHash(m.Content),
		structuredJSON,
		contextJSON,
		string(m.Importance),
		m.Importance.Rank(),
		m.Confidence,
		string(m.Source),
		sourceMetaJSON,
		m.AccessCount,
		m.LastAccessedAt,
		m.ExpiresAt,
		m.IsProcessed,
		m.ShouldConsolidate,
		nullableTime(m.ConsolidatedAt),
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update short-term memory: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// FindDuplicate returns the record with the exact same
// (userID, sessionID, memoryType, content) tuple, or ErrNotFound.
func (s *ShortTermStore) FindDuplicate(ctx context.Context, userID, sessionID string, memoryType types.MemoryType, content string) (*types.ShortTermMemory, error) {
	// The unique index is on the content hash; compare full content too in
	// case of a hash collision.
	query := `SELECT ` + shortTermColumns + `
		FROM short_term_memories
		WHERE user_id = ? AND session_id = ? AND memory_type = ? AND content_hash = ? AND content = ?`

	row := s.db.QueryRowContext(ctx, query,
		userID, sessionID, string(memoryType), contentHash(content), content)

	m, err := scanShortTerm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate: %w", err)
	}
	return m, nil
}

// ListBySession returns up to limit records for one session, newest first.
func (s *ShortTermStore) ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]*types.ShortTermMemory, error) {
	query := `SELECT ` + shortTermColumns + `
		FROM short_term_memories
		WHERE user_id = ? AND session_id = ?
		ORDER BY created_at DESC
		LIMIT ?`

	return s.queryMemories(ctx, query, userID, sessionID, limit)
}

// ListRecent returns records filtered by type and minimum importance rank,
// newest first.
func (s *ShortTermStore) ListRecent(ctx context.Context, userID string, q storage.RecentQuery) ([]*types.ShortTermMemory, error) {
	q.Normalize()

	var sb strings.Builder
	sb.WriteString(`SELECT ` + shortTermColumns + `
		FROM short_term_memories
		WHERE user_id = ?`)
	args := []interface{}{userID}

	if len(q.Types) > 0 {
		sb.WriteString(" AND memory_type IN (" + placeholders(len(q.Types)) + ")")
		for _, t := range q.Types {
			args = append(args, string(t))
		}
	}
	if q.MinImportance != "" {
		sb.WriteString(" AND importance_rank >= ?")
		args = append(args, q.MinImportance.Rank())
	}

	sb.WriteString(" ORDER BY created_at DESC LIMIT ?")
	args = append(args, q.Limit)

	return s.queryMemories(ctx, sb.String(), args...)
}

// SearchContent returns records whose content contains the query
// case-insensitively, newest first.
func (s *ShortTermStore) SearchContent(ctx context.Context, userID string, q storage.SearchQuery) ([]*types.ShortTermMemory, error) {
	q.Normalize()

	var sb strings.Builder
	sb.WriteString(`SELECT ` + shortTermColumns + `
		FROM short_term_memories
		WHERE user_id = ? AND instr(lower(content), lower(?)) > 0`)
	args := []interface{}{userID, q.Query}

	if q.SessionID != "" {
		sb.WriteString(" AND session_id = ?")
		args = append(args, q.SessionID)
	}

	sb.WriteString(" ORDER BY created_at DESC LIMIT ?")
	args = append(args, q.Limit)

	return s.queryMemories(ctx, sb.String(), args...)
}

// SetShouldConsolidate flags the given records for consolidation, restricted
// to records owned by userID.
func (s *ShortTermStore) SetShouldConsolidate(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := `UPDATE short_term_memories
		SET should_consolidate = 1
		WHERE user_id = ? AND id IN (` + placeholders(len(ids)) + `)`

	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark for consolidation: %w", err)
	}
	return nil
}

// ListPendingConsolidation returns flagged, unconsolidated records, oldest
// first so the longest-waiting records are promoted first.
func (s *ShortTermStore) ListPendingConsolidation(ctx context.Context, userID string, limit int) ([]*types.ShortTermMemory, error) {
	query := `SELECT ` + shortTermColumns + `
		FROM short_term_memories
		WHERE user_id = ? AND should_consolidate = 1 AND consolidated_at IS NULL
		ORDER BY created_at ASC
		LIMIT ?`

	return s.queryMemories(ctx, query, userID, limit)
}

// ListPendingConsolidationAll is the cross-user variant used by the
// background consolidation sweep.
func (s *ShortTermStore) ListPendingConsolidationAll(ctx context.Context, limit int) ([]*types.ShortTermMemory, error) {
	query := `SELECT ` + shortTermColumns + `
		FROM short_term_memories
		WHERE should_consolidate = 1 AND consolidated_at IS NULL
		ORDER BY created_at ASC
		LIMIT ?`

	return s.queryMemories(ctx, query, limit)
}

// MarkConsolidated stamps consolidated_at on the given records, restricted
// to records owned by userID. Records already stamped keep their original
// timestamp, so retries are safe.
func (s *ShortTermStore) MarkConsolidated(ctx context.Context, userID string, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query := `UPDATE short_term_memories
		SET consolidated_at = ?
		WHERE user_id = ? AND consolidated_at IS NULL AND id IN (` + placeholders(len(ids)) + `)`

	args := make([]interface{}, 0, len(ids)+2)
	args = append(args, at, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark consolidated: %w", err)
	}
	return nil
}

// ListExpired returns all records whose expires_at is before now.
func (s *ShortTermStore) ListExpired(ctx context.Context, now time.Time) ([]*types.ShortTermMemory, error) {
	query := `SELECT ` + shortTermColumns + `
		FROM short_term_memories
		WHERE expires_at < ?`

	return s.queryMemories(ctx, query, now)
}

// Delete removes the given records permanently.
func (s *ShortTermStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM short_term_memories WHERE id IN (` + placeholders(len(ids)) + `)`
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete short-term memories: %w", err)
	}
	return nil
}

// Count returns the number of records owned by userID.
func (s *ShortTermStore) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM short_term_memories WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count short-term memories: %w", err)
	}
	return n, nil
}

// Close is a no-op; the shared DB owns the connection.
func (s *ShortTermStore) Close() error { return nil }

// queryMemories runs a multi-row query and scans all results.
func (s *ShortTermStore) queryMemories(ctx context.Context, query string, args ...interface{}) ([]*types.ShortTermMemory, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query short-term memories: %w", err)
	}
	defer rows.Close()

	var memories []*types.ShortTermMemory
	for rows.Next() {
		m, err := scanShortTerm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan short-term memory: %w", err)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return memories, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanShortTerm scans one short-term row in shortTermColumns order.
func scanShortTerm(row rowScanner) (*types.ShortTermMemory, error) {
	var (
		m                                        types.ShortTermMemory
		memoryType, importance, source           string
		structuredJSON, contextJSON, sourceMeta  sql.NullString
		consolidatedAt                           sql.NullTime
	)

	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.EnterpriseID,
		&m.SessionID,
		&memoryType,
		&m.Content,
		&structuredJSON,
		&contextJSON,
		&importance,
		&m.Confidence,
		&source,
		&sourceMeta,
		&m.AccessCount,
		&m.LastAccessedAt,
		&m.CreatedAt,
		&m.ExpiresAt,
		&m.IsProcessed,
		&m.ShouldConsolidate,
		&consolidatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.MemoryType = types.MemoryType(memoryType)
	m.Importance = types.ImportanceLevel(importance)
	m.Source = types.MemorySource(source)

	if err := unmarshalJSON(structuredJSON, &m.StructuredData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal structured_data: %w", err)
	}
	if err := unmarshalJSON(contextJSON, &m.Context); err != nil {
		return nil, fmt.Errorf("failed to unmarshal context: %w", err)
	}
	if err := unmarshalJSON(sourceMeta, &m.SourceMeta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source_metadata: %w", err)
	}
	if consolidatedAt.Valid {
		m.ConsolidatedAt = &consolidatedAt.Time
	}

	return &m, nil
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
