package ledger

// SchemaVersion is the current cost-record schema version.
const SchemaVersion = 1

// Schema creates the cost record tables and indexes.
const Schema = `
CREATE TABLE IF NOT EXISTS cost_records (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	conversation_id TEXT NOT NULL DEFAULT '',
	persona_id      TEXT NOT NULL DEFAULT '',
	provider        TEXT NOT NULL,
	model           TEXT NOT NULL,
	input_tokens    INTEGER NOT NULL,
	output_tokens   INTEGER NOT NULL,
	cached_tokens   INTEGER NOT NULL DEFAULT 0,
	total_cost      REAL NOT NULL,
	partial         INTEGER NOT NULL DEFAULT 0,
	estimated       INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cost_records_user ON cost_records(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_cost_records_conversation ON cost_records(conversation_id);
CREATE INDEX IF NOT EXISTS idx_cost_records_provider ON cost_records(provider, created_at);
CREATE INDEX IF NOT EXISTS idx_cost_records_created ON cost_records(created_at);

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);
`

// InsertSchemaVersion records the schema version on first initialization.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

// GetSchemaVersion reads the stored schema version.
const GetSchemaVersion = `SELECT version FROM schema_version LIMIT 1`
