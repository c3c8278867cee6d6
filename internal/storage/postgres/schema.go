// Package postgres provides PostgreSQL implementations of the storage
// interfaces. It is the backend for multi-instance deployments; single-node
// installs default to sqlite.
package postgres

// Schema contains the SQL statements to create the database schema.
// All statements are idempotent (IF NOT EXISTS).
const Schema = `
CREATE TABLE IF NOT EXISTS short_term_memories (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    enterprise_id TEXT NOT NULL,
    session_id TEXT NOT NULL,

    memory_type TEXT NOT NULL,
    content TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    structured_data JSONB,
    context JSONB,

    importance TEXT NOT NULL,
    importance_rank INTEGER NOT NULL DEFAULT 0,
    confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
    source TEXT NOT NULL,
    source_metadata JSONB,

    access_count INTEGER NOT NULL DEFAULT 1,
    last_accessed_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,

    is_processed BOOLEAN NOT NULL DEFAULT FALSE,
    should_consolidate BOOLEAN NOT NULL DEFAULT FALSE,
    consolidated_at TIMESTAMPTZ
);

-- One record per (user, session, type, content) tuple; the write path
-- upserts into the existing record on a hash hit.
CREATE UNIQUE INDEX IF NOT EXISTS idx_stm_dedup
    ON short_term_memories(user_id, session_id, memory_type, content_hash);
CREATE INDEX IF NOT EXISTS idx_stm_session
    ON short_term_memories(user_id, session_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_stm_user_created
    ON short_term_memories(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_stm_expires
    ON short_term_memories(expires_at);
CREATE INDEX IF NOT EXISTS idx_stm_pending
    ON short_term_memories(user_id, should_consolidate)
    WHERE consolidated_at IS NULL;

CREATE TABLE IF NOT EXISTS long_term_memories (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    enterprise_id TEXT NOT NULL,

    memory_type TEXT NOT NULL,
    content TEXT NOT NULL,
    structured_data JSONB,
    summary TEXT NOT NULL DEFAULT '',
    embedding JSONB,
    keywords JSONB,

    domain TEXT,
    related_memories JSONB,
    related_entities JSONB,
    tags JSONB,

    importance TEXT NOT NULL,
    importance_rank INTEGER NOT NULL DEFAULT 0,
    confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
    source TEXT NOT NULL,
    source_chain JSONB,
    consolidated_from JSONB,

    strength DOUBLE PRECISION NOT NULL DEFAULT 1.0,
    reinforcement_count INTEGER NOT NULL DEFAULT 0,
    decay_rate DOUBLE PRECISION NOT NULL DEFAULT 0.01,
    last_reinforced_at TIMESTAMPTZ,

    access_count INTEGER NOT NULL DEFAULT 0,
    last_accessed_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,

    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
    contradicted_by TEXT
);

CREATE INDEX IF NOT EXISTS idx_ltm_user_type_created
    ON long_term_memories(user_id, memory_type, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_ltm_user
    ON long_term_memories(user_id);
CREATE INDEX IF NOT EXISTS idx_ltm_last_accessed
    ON long_term_memories(last_accessed_at);

CREATE TABLE IF NOT EXISTS memory_associations (
    from_memory_id TEXT NOT NULL,
    to_memory_id TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (from_memory_id, to_memory_id)
);

CREATE INDEX IF NOT EXISTS idx_assoc_from
    ON memory_associations(from_memory_id);
`

// MigrationPgvector adds an indexed vector column used for semantic merge
// candidate lookup. Applied only when the pgvector extension is available;
// the JSONB embedding column remains the source of truth either way.
const MigrationPgvector = `
ALTER TABLE long_term_memories ADD COLUMN IF NOT EXISTS embedding_vec vector(768);

CREATE INDEX IF NOT EXISTS idx_ltm_embedding_vec
    ON long_term_memories USING hnsw (embedding_vec vector_cosine_ops);
`
