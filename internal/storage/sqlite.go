package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteStore persists idempotency and audit records in SQLite.
type SqliteStore struct {
	db *sql.DB
}

// NewSqliteStore creates a new SQLite store at the specified database path
// with the given WAL mode setting.
func NewSqliteStore(dbPath string, walMode bool) (*SqliteStore, error) {
	connStr := dbPath
	if walMode {
		connStr += "?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_foreign_keys=true"
	} else {
		connStr += "?_synchronous=FULL&_cache_size=1000&_foreign_keys=true"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SqliteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SqliteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS idempotency_results (
		tenant_id TEXT NOT NULL,
		key TEXT NOT NULL,
		tool_name TEXT NOT NULL,
		response BLOB NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (tenant_id, key)
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		tool_name TEXT NOT NULL,
		action_type TEXT NOT NULL,
		success INTEGER NOT NULL,
		request_id TEXT NOT NULL,
		error_message TEXT,
		execution_time_ms REAL NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_tenant ON audit_log(tenant_id);
	CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_log(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// GetResult returns the cached record for (tenantID, key), or nil when
// absent.
func (s *SqliteStore) GetResult(ctx context.Context, tenantID, key string) (*IdempotencyRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT tenant_id, key, tool_name, response, created_at
		FROM idempotency_results
		WHERE tenant_id = ? AND key = ?
	`, tenantID, key)

	var record IdempotencyRecord
	err := row.Scan(
		&record.TenantID,
		&record.Key,
		&record.ToolName,
		&record.Response,
		&record.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan idempotency record: %w", err)
	}

	return &record, nil
}

// PutResult caches a completed write outcome. Re-putting the same key
// keeps the original record so replays stay stable.
func (s *SqliteStore) PutResult(ctx context.Context, record *IdempotencyRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO idempotency_results (tenant_id, key, tool_name, response, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, key) DO NOTHING
	`,
		record.TenantID,
		record.Key,
		record.ToolName,
		record.Response,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert idempotency record: %w", err)
	}
	return nil
}

// DeleteResult removes a cached outcome.
func (s *SqliteStore) DeleteResult(ctx context.Context, tenantID, key string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM idempotency_results WHERE tenant_id = ? AND key = ?
	`, tenantID, key)
	if err != nil {
		return fmt.Errorf("failed to delete idempotency record: %w", err)
	}
	return nil
}

// RecordAudit appends an audit record.
func (s *SqliteStore) RecordAudit(ctx context.Context, record *AuditRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, tenant_id, tool_name, action_type, success, request_id, error_message, execution_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.TenantID,
		record.ToolName,
		record.ActionType,
		record.Success,
		record.RequestID,
		record.ErrorMessage,
		record.ExecutionTimeMs,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

// ListAudit returns the newest audit records for a tenant, newest first.
// An empty tenantID returns records for all tenants.
func (s *SqliteStore) ListAudit(ctx context.Context, tenantID string, limit int) ([]AuditRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows *sql.Rows
	var err error
	if tenantID == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, tenant_id, tool_name, action_type, success, request_id, error_message, execution_time_ms, created_at
			FROM audit_log
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, tenant_id, tool_name, action_type, success, request_id, error_message, execution_time_ms, created_at
			FROM audit_log
			WHERE tenant_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		`, tenantID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	results := []AuditRecord{}
	for rows.Next() {
		var record AuditRecord
		var errMsg sql.NullString
		err := rows.Scan(
			&record.ID,
			&record.TenantID,
			&record.ToolName,
			&record.ActionType,
			&record.Success,
			&record.RequestID,
			&errMsg,
			&record.ExecutionTimeMs,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		record.ErrorMessage = errMsg.String
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over audit rows: %w", err)
	}

	return results, nil
}

// Capabilities reports what this backend supports.
func (s *SqliteStore) Capabilities() Capabilities {
	return Capabilities{
		CapabilityPersistent: true,
		CapabilityAuditQuery: true,
	}
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
