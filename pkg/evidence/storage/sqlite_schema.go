package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the relay record tables. Times are stored as Unix
// nanoseconds and durations as nanoseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS relay_records (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,
    session_id TEXT,

    backend TEXT NOT NULL,
    model TEXT,

    messages INTEGER NOT NULL,
    system_prompt BOOLEAN NOT NULL,
    conversation_hash TEXT,

    outcome TEXT NOT NULL,
    tokens_sent INTEGER NOT NULL,
    status_code INTEGER NOT NULL,
    error TEXT,
    error_type TEXT,

    request_time INTEGER NOT NULL,
    first_token_latency INTEGER NOT NULL,
    duration INTEGER NOT NULL,
    recorded_time INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_relay_records_request_time ON relay_records(request_time);
CREATE INDEX IF NOT EXISTS idx_relay_records_session_id ON relay_records(session_id);
CREATE INDEX IF NOT EXISTS idx_relay_records_outcome ON relay_records(outcome);
CREATE INDEX IF NOT EXISTS idx_relay_records_request_id ON relay_records(request_id);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const recordColumns = `id, request_id, session_id, backend, model,
    messages, system_prompt, conversation_hash,
    outcome, tokens_sent, status_code, error, error_type,
    request_time, first_token_latency, duration, recorded_time`
