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
var _ storage.LongTermStore = (*LongTermStore)(nil)

// LongTermStore implements storage.LongTermStore using SQLite. The embedding
// vector is stored as a JSON array; deployments needing indexed vector search
// should use the postgres backend with pgvector instead.
type LongTermStore struct {
	db *sql.DB
}

const longTermColumns = `
	id, user_id, enterprise_id, memory_type, content, structured_data,
	summary, embedding, keywords, domain, related_memories, related_entities, tags,
	importance, confidence, source, source_chain, consolidated_from,
	strength, reinforcement_count, decay_rate, last_reinforced_at,
	access_count, last_accessed_at, created_at, updated_at,
	is_verified, contradicted_by`

// Insert creates a new long-term record.
func (s *LongTermStore) Insert(ctx context.Context, m *types.LongTermMemory) error {
	if m == nil || m.ID == "" {
		return fmt.Errorf("%w: memory and ID are required", storage.ErrInvalidInput)
	}
	if m.Content == "" {
		return fmt.Errorf("%w: content is required", storage.ErrInvalidInput)
	}

	cols, err := marshalLongTermJSON(m)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO long_term_memories (
			id, user_id, enterprise_id, memory_type, content, structured_data,
			summary, embedding, keywords, domain, related_memories, related_entities, tags,
			importance, importance_rank, confidence, source, source_chain, consolidated_from,
			strength, reinforcement_count, decay_rate, last_reinforced_at,
			access_count, last_accessed_at, created_at, updated_at,
			is_verified, contradicted_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		m.ID,
		m.UserID,
		m.EnterpriseID,
		string(m.MemoryType),
		m.Content,
		cols.structuredData,
		m.Summary,
		cols.embedding,
		cols.keywords,
		nullableString(m.Context.Domain),
		cols.relatedMemories,
		cols.relatedEntities,
		cols.tags,
		string(m.Importance),
		m.Importance.Rank(),
		m.Confidence,
		string(m.Source),
		cols.sourceChain,
		cols.consolidatedFrom,
		m.Strength,
		m.ReinforcementCount,
		m.DecayRate,
		nullableTime(m.LastReinforcedAt),
		m.AccessCount,
		m.LastAccessedAt,
		m.CreatedAt,
		m.UpdatedAt,
		m.IsVerified,
		nullableString(m.ContradictedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to insert long-term memory: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *LongTermStore) Get(ctx context.Context, id string) (*types.LongTermMemory, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+longTermColumns+` FROM long_term_memories WHERE id = ?`, id)

	m, err := scanLongTerm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get long-term memory: %w", err)
	}
	return m, nil
}

// Update overwrites an existing record.
func (s *LongTermStore) Update(ctx context.Context, m *types.LongTermMemory) error {
	if m == nil || m.ID == "" {
		return fmt.Errorf("%w: memory and ID are required", storage.ErrInvalidInput)
	}

	cols, err := marshalLongTermJSON(m)
	if err != nil {
		return err
	}

	query := `
		UPDATE long_term_memories SET
			content = ?, structured_data = ?, summary = ?, embedding = ?,
			keywords = ?, domain = ?, related_memories = ?, related_entities = ?, tags = ?,
			importance = ?, importance_rank = ?, confidence = ?,
			source = ?, source_chain = ?, consolidated_from = ?,
			strength = ?, reinforcement_count = ?, decay_rate = ?, last_reinforced_at = ?,
			access_count = ?, last_accessed_at = ?, updated_at = ?,
			is_verified = ?, contradicted_by = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		m.Content,
		cols.structuredData,
		m.Summary,
		cols.embedding,
		cols.keywords,
		nullableString(m.Context.Domain),
		cols.relatedMemories,
		cols.relatedEntities,
		cols.tags,
		string(m.Importance),
		m.Importance.Rank(),
		m.Confidence,
		string(m.Source),
		cols.sourceChain,
		cols.consolidatedFrom,
		m.Strength,
		m.ReinforcementCount,
		m.DecayRate,
		nullableTime(m.LastReinforcedAt),
		m.AccessCount,
		m.LastAccessedAt,
		m.UpdatedAt,
		m.IsVerified,
		nullableString(m.ContradictedBy),
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update long-term memory: %w", err)
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

// Delete removes a record permanently.
func (s *LongTermStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM long_term_memories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete long-term memory: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListRecentByType returns the merge candidate pool for (userID, memoryType),
// newest first.
func (s *LongTermStore) ListRecentByType(ctx context.Context, userID string, memoryType types.MemoryType, limit int) ([]*types.LongTermMemory, error) {
	query := `SELECT ` + longTermColumns + `
		FROM long_term_memories
		WHERE user_id = ? AND memory_type = ?
		ORDER BY created_at DESC
		LIMIT ?`

	return s.queryMemories(ctx, query, userID, string(memoryType), limit)
}

// List returns records filtered by type, minimum importance rank and minimum
// strength. Ordering and truncation are left to the caller.
func (s *LongTermStore) List(ctx context.Context, userID string, q storage.ListQuery) ([]*types.LongTermMemory, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + longTermColumns + `
		FROM long_term_memories
		WHERE user_id = ? AND strength > 0`)
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
	if q.MinStrength > 0 {
		sb.WriteString(" AND strength >= ?")
		args = append(args, q.MinStrength)
	}

	return s.queryMemories(ctx, sb.String(), args...)
}

// ListDecayCandidates returns all records whose last_accessed_at is before
// the cutoff.
func (s *LongTermStore) ListDecayCandidates(ctx context.Context, cutoff time.Time) ([]*types.LongTermMemory, error) {
	query := `SELECT ` + longTermColumns + `
		FROM long_term_memories
		WHERE last_accessed_at < ?`

	return s.queryMemories(ctx, query, cutoff)
}

// Stats summarizes the user's live records.
func (s *LongTermStore) Stats(ctx context.Context, userID string) (storage.TierStats, error) {
	var st storage.TierStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN is_verified THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(strength), 0)
		FROM long_term_memories
		WHERE user_id = ? AND strength > 0`, userID).
		Scan(&st.Count, &st.Verified, &st.AvgStrength)
	if err != nil {
		return st, fmt.Errorf("failed to compute long-term stats: %w", err)
	}
	return st, nil
}

// Close is a no-op; the shared DB owns the connection.
func (s *LongTermStore) Close() error { return nil }

// queryMemories runs a multi-row query and scans all results.
func (s *LongTermStore) queryMemories(ctx context.Context, query string, args ...interface{}) ([]*types.LongTermMemory, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query long-term memories: %w", err)
	}
	defer rows.Close()

	var memories []*types.LongTermMemory
	for rows.Next() {
		m, err := scanLongTerm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan long-term memory: %w", err)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return memories, nil
}

// longTermJSONColumns holds the marshalled JSON column values for a record.
type longTermJSONColumns struct {
	structuredData   sql.NullString
	embedding        sql.NullString
	keywords         sql.NullString
	relatedMemories  sql.NullString
	relatedEntities  sql.NullString
	tags             sql.NullString
	sourceChain      sql.NullString
	consolidatedFrom sql.NullString
}

func marshalLongTermJSON(m *types.LongTermMemory) (longTermJSONColumns, error) {
	var cols longTermJSONColumns
	var err error

	if cols.structuredData, err = marshalJSON(m.StructuredData); err != nil {
		return cols, fmt.Errorf("failed to marshal structured_data: %w", err)
	}
	if cols.embedding, err = marshalJSON(m.Embedding); err != nil {
		return cols, fmt.Errorf("failed to marshal embedding: %w", err)
	}
	if cols.keywords, err = marshalJSON(m.Keywords); err != nil {
		return cols, fmt.Errorf("failed to marshal keywords: %w", err)
	}
	if cols.relatedMemories, err = marshalJSON(m.Context.RelatedMemories); err != nil {
		return cols, fmt.Errorf("failed to marshal related_memories: %w", err)
	}
	if cols.relatedEntities, err = marshalJSON(m.Context.RelatedEntities); err != nil {
		return cols, fmt.Errorf("failed to marshal related_entities: %w", err)
	}
	if cols.tags, err = marshalJSON(m.Context.Tags); err != nil {
		return cols, fmt.Errorf("failed to marshal tags: %w", err)
	}
	if cols.sourceChain, err = marshalJSON(m.SourceChain); err != nil {
		return cols, fmt.Errorf("failed to marshal source_chain: %w", err)
	}
	if cols.consolidatedFrom, err = marshalJSON(m.ConsolidatedFrom); err != nil {
		return cols, fmt.Errorf("failed to marshal consolidated_from: %w", err)
	}
	return cols, nil
}

// scanLongTerm scans one long-term row in longTermColumns order.
func scanLongTerm(row rowScanner) (*types.LongTermMemory, error) {
	var (
		m                              types.LongTermMemory
		memoryType, importance, source string
		structuredJSON, embeddingJSON  sql.NullString
		keywordsJSON, relMemJSON       sql.NullString
		relEntJSON, tagsJSON           sql.NullString
		chainJSON, fromJSON            sql.NullString
		domain, contradictedBy         sql.NullString
		lastReinforcedAt               sql.NullTime
	)

	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.EnterpriseID,
		&memoryType,
		&m.Content,
		&structuredJSON,
		&m.Summary,
		&embeddingJSON,
		&keywordsJSON,
		&domain,
		&relMemJSON,
		&relEntJSON,
		&tagsJSON,
		&importance,
		&m.Confidence,
		&source,
		&chainJSON,
		&fromJSON,
		&m.Strength,
		&m.ReinforcementCount,
		&m.DecayRate,
		&lastReinforcedAt,
		&m.AccessCount,
		&m.LastAccessedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.IsVerified,
		&contradictedBy,
	)
	if err != nil {
		return nil, err
	}

	m.MemoryType = types.MemoryType(memoryType)
	m.Importance = types.ImportanceLevel(importance)
	m.Source = types.MemorySource(source)
	m.Context.Domain = domain.String
	m.ContradictedBy = contradictedBy.String
	if lastReinforcedAt.Valid {
		m.LastReinforcedAt = &lastReinforcedAt.Time
	}

	if err := unmarshalJSON(structuredJSON, &m.StructuredData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal structured_data: %w", err)
	}
	if err := unmarshalJSON(embeddingJSON, &m.Embedding); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedding: %w", err)
	}
	if err := unmarshalJSON(keywordsJSON, &m.Keywords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keywords: %w", err)
	}
	if err := unmarshalJSON(relMemJSON, &m.Context.RelatedMemories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal related_memories: %w", err)
	}
	if err := unmarshalJSON(relEntJSON, &m.Context.RelatedEntities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal related_entities: %w", err)
	}
	if err := unmarshalJSON(tagsJSON, &m.Context.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if err := unmarshalJSON(chainJSON, &m.SourceChain); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source_chain: %w", err)
	}
	if err := unmarshalJSON(fromJSON, &m.ConsolidatedFrom); err != nil {
		return nil, fmt.Errorf("failed to unmarshal consolidated_from: %w", err)
	}

	return &m, nil
}
