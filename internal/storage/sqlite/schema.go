package sqlite

// Schema defines the SQLite schema for both memory tiers and the
// association edge table. All statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS short_term_memories (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL,
	enterprise_id      TEXT NOT NULL,
	session_id         TEXT NOT NULL,
	memory_type        TEXT NOT NULL,
	content            TEXT NOT NULL,
	content_hash       TEXT NOT NULL,
	structured_data    TEXT,
	context            TEXT,
	importance         TEXT NOT NULL,
	importance_rank    INTEGER NOT NULL,
	confidence         REAL NOT NULL,
	source             TEXT NOT NULL,
	source_metadata    TEXT,
	access_count       INTEGER NOT NULL DEFAULT 1,
	last_accessed_at   TIMESTAMP NOT NULL,
	created_at         TIMESTAMP NOT NULL,
	expires_at         TIMESTAMP NOT NULL,
	is_processed       INTEGER NOT NULL DEFAULT 0,
	should_consolidate INTEGER NOT NULL DEFAULT 0,
	consolidated_at    TIMESTAMP
);

-- Dedup lookup: one live record per (user, session, type, content).
CREATE UNIQUE INDEX IF NOT EXISTS idx_stm_dedup
	ON short_term_memories(user_id, session_id, memory_type, content_hash);

CREATE INDEX IF NOT EXISTS idx_stm_session
	ON short_term_memories(user_id, session_id, created_at);

CREATE INDEX IF NOT EXISTS idx_stm_user_created
	ON short_term_memories(user_id, created_at);

CREATE INDEX IF NOT EXISTS idx_stm_expires
	ON short_term_memories(expires_at);

CREATE INDEX IF NOT EXISTS idx_stm_pending
	ON short_term_memories(user_id, should_consolidate, created_at);

CREATE TABLE IF NOT EXISTS long_term_memories (
	id                  TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL,
	enterprise_id       TEXT NOT NULL,
	memory_type         TEXT NOT NULL,
	content             TEXT NOT NULL,
	structured_data     TEXT,
	summary             TEXT NOT NULL,
	embedding           TEXT,
	keywords            TEXT,
	domain              TEXT,
	related_memories    TEXT,
	related_entities    TEXT,
	tags                TEXT,
	importance          TEXT NOT NULL,
	importance_rank     INTEGER NOT NULL,
	confidence          REAL NOT NULL,
	source              TEXT NOT NULL,
	source_chain        TEXT,
	consolidated_from   TEXT,
	strength            REAL NOT NULL,
	reinforcement_count INTEGER NOT NULL DEFAULT 0,
	decay_rate          REAL NOT NULL,
	last_reinforced_at  TIMESTAMP,
	access_count        INTEGER NOT NULL DEFAULT 1,
	last_accessed_at    TIMESTAMP NOT NULL,
	created_at          TIMESTAMP NOT NULL,
	updated_at          TIMESTAMP NOT NULL,
	is_verified         INTEGER NOT NULL DEFAULT 0,
	contradicted_by     TEXT
);

-- Merge candidate pool: recent records per (user, type).
CREATE INDEX IF NOT EXISTS idx_ltm_user_type_created
	ON long_term_memories(user_id, memory_type, created_at);

CREATE INDEX IF NOT EXISTS idx_ltm_user
	ON long_term_memories(user_id);

-- Decay sweep scans by last access time.
CREATE INDEX IF NOT EXISTS idx_ltm_last_accessed
	ON long_term_memories(last_accessed_at);

CREATE TABLE IF NOT EXISTS memory_associations (
	from_memory_id TEXT NOT NULL,
	to_memory_id   TEXT NOT NULL,
	PRIMARY KEY (from_memory_id, to_memory_id)
);

CREATE INDEX IF NOT EXISTS idx_assoc_from
	ON memory_associations(from_memory_id);
`
