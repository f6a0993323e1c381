package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"grokgate/pkg/config"
	"grokgate/pkg/evidence"
)

// SQLiteStorage implements evidence.Storage on a SQLite database file using
// the pure-Go modernc driver.
type SQLiteStorage struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// sortColumns maps query sort fields onto columns; anything else falls back
// to request_time.
var sortColumns = map[string]string{
	"request_time":  "request_time",
	"recorded_time": "recorded_time",
	"duration":      "duration",
	"tokens_sent":   "tokens_sent",
}

// NewSQLiteStorage opens (creating if needed) the database at cfg.Path,
// enables WAL mode and the busy timeout, and applies the schema.
func NewSQLiteStorage(cfg config.SQLiteConfig) (*SQLiteStorage, error) {
	if cfg.Path == "" {
		return nil, evidence.NewStorageError("sqlite", "open", errors.New("db path cannot be empty"))
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = config.DefaultEvidenceMaxOpenConns
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = config.DefaultEvidenceBusyTimeout
	}

	logger := slog.Default().With("component", "evidence.storage.sqlite")

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, evidence.NewStorageError("sqlite", "open", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	s := &SQLiteStorage{
		db:     db,
		path:   cfg.Path,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", cfg.Path,
		"max_open_conns", cfg.MaxOpenConns,
		"busy_timeout", cfg.BusyTimeout,
	)

	return s, nil
}

// dsn builds a modernc connection string. Pragmas given this way are applied
// to every pooled connection.
func dsn(cfg config.SQLiteConfig) string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "synchronous(NORMAL)")
	return "file:" + cfg.Path + "?" + params.Encode()
}

// initialize creates the schema and checks its version.
func (s *SQLiteStorage) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return evidence.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return evidence.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return evidence.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return evidence.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Store persists a record.
func (s *SQLiteStorage) Store(ctx context.Context, record *evidence.RelayRecord) error {
	query := `INSERT INTO relay_records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.RequestID, nullString(record.SessionID),
		record.Backend, record.Model,
		record.Messages, record.SystemPrompt, record.ConversationHash,
		record.Outcome, record.TokensSent, record.StatusCode,
		nullString(record.Error), nullString(record.ErrorType),
		record.RequestTime.UnixNano(), int64(record.FirstTokenLatency),
		int64(record.Duration), record.RecordedTime.UnixNano(),
	)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query retrieves records matching the query filters. A zero Limit returns
// every match.
func (s *SQLiteStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.RelayRecord, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT " + recordColumns + " FROM relay_records"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	column, ok := sortColumns[query.SortBy]
	if !ok {
		column = "request_time"
	}
	order := "DESC"
	if strings.EqualFold(query.SortOrder, "asc") {
		order = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY %s %s, id %s", column, order, order)

	if query.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", query.Limit)
	} else if query.Offset > 0 {
		sqlQuery += " LIMIT -1"
	}
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*evidence.RelayRecord{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, evidence.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Count returns the number of records matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM relay_records"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, evidence.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes records matching the query filters.
func (s *SQLiteStorage) Delete(ctx context.Context, query *evidence.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM relay_records"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return evidence.NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return evidence.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed", "path", s.path)
	return nil
}

// buildWhereClause builds a SQL WHERE clause (without the keyword) and its
// arguments from the query filters.
func buildWhereClause(query *evidence.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if query.StartTime != nil {
		conditions = append(conditions, "request_time >= ?")
		args = append(args, query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "request_time <= ?")
		args = append(args, query.EndTime.UnixNano())
	}

	for _, f := range []struct{ column, value string }{
		{"request_id", query.RequestID},
		{"session_id", query.SessionID},
		{"backend", query.Backend},
		{"model", query.Model},
		{"outcome", query.Outcome},
	} {
		if f.value != "" {
			conditions = append(conditions, f.column+" = ?")
			args = append(args, f.value)
		}
	}

	return strings.Join(conditions, " AND "), args
}

// scanRow scans a database row into a RelayRecord.
func scanRow(rows *sql.Rows) (*evidence.RelayRecord, error) {
	var record evidence.RelayRecord
	var sessionID, model, hash, errorVal, errorTypeVal sql.NullString
	var requestTime, firstToken, duration, recordedTime int64

	err := rows.Scan(
		&record.ID, &record.RequestID, &sessionID,
		&record.Backend, &model,
		&record.Messages, &record.SystemPrompt, &hash,
		&record.Outcome, &record.TokensSent, &record.StatusCode,
		&errorVal, &errorTypeVal,
		&requestTime, &firstToken, &duration, &recordedTime,
	)
	if err != nil {
		return nil, err
	}

	record.SessionID = sessionID.String
	record.Model = model.String
	record.ConversationHash = hash.String
	record.Error = errorVal.String
	record.ErrorType = errorTypeVal.String
	record.RequestTime = time.Unix(0, requestTime).UTC()
	record.FirstTokenLatency = time.Duration(firstToken)
	record.Duration = time.Duration(duration)
	record.RecordedTime = time.Unix(0, recordedTime).UTC()

	return &record, nil
}

// nullString stores empty optional fields as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
