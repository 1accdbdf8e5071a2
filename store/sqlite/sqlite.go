/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements the engine's persistence hooks using SQLite. In production,
  the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

INTERFACES IMPLEMENTED (one view type per interface):
  Outcomes      attendance.Store:           evaluated attendance outcomes
  LeaveRequests leave.Store:                leave requests and their events
  AuditLog      generic.AuditLog:           append-only audit trail
  Employees     generic.EmployeeRegistry:   employee directory
  Policies      attendance.PolicyPersister: policy definitions as JSON

APPEND-ONLY ENFORCEMENT:
  - attendance_outcomes: INSERT only, primary key (employee_id, date)
  - leave_events, audit_log: INSERT only
  - leave_requests: status UPDATE guarded by the expected current status

KEY TABLES:
  attendance_outcomes: one row per employee-day
  leave_requests:      integer ids, never reused
  leave_events:        creation and transition history
  policies:            policy JSON, versioned on every save
  employees:           directory records
  audit_log:           who did what when

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := attendance.NewLedger(store.Outcomes())

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - attendance/store.go, leave/store.go: interface definitions
  - generic/store/memory.go: in-memory implementations for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/attendance-engine/generic"
)

const memoryPath = ":memory:"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == memoryPath {
		// Every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Attendance outcomes (append-only, one per employee-day)
	CREATE TABLE IF NOT EXISTS attendance_outcomes (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		classification TEXT NOT NULL,
		check_in INTEGER NOT NULL,
		check_out INTEGER,
		worked_hours TEXT NOT NULL,
		overtime_hours TEXT NOT NULL,
		overtime_pay TEXT,
		late BOOLEAN NOT NULL DEFAULT FALSE,
		late_minutes INTEGER NOT NULL DEFAULT 0,
		early_leave BOOLEAN NOT NULL DEFAULT FALSE,
		policy_name TEXT NOT NULL,
		policy_json TEXT NOT NULL,
		recorded_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_date
		ON attendance_outcomes(date, employee_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_classification
		ON attendance_outcomes(classification);

	-- Leave requests
	CREATE TABLE IF NOT EXISTS leave_requests (
		id INTEGER PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		requested_on TEXT NOT NULL,
		decided_by TEXT,
		decided_at TEXT,
		note TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_leave_requests_employee
		ON leave_requests(employee_id, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_leave_requests_status
		ON leave_requests(status);

	-- Leave events (append-only)
	CREATE TABLE IF NOT EXISTS leave_events (
		id TEXT PRIMARY KEY,
		request_id INTEGER NOT NULL REFERENCES leave_requests(id),
		employee_id TEXT NOT NULL,
		from_status TEXT,
		to_status TEXT NOT NULL,
		actor TEXT,
		note TEXT,
		at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leave_events_request
		ON leave_events(request_id);

	-- Policies
	CREATE TABLE IF NOT EXISTS policies (
		name TEXT PRIMARY KEY,
		config_json TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		department TEXT,
		role TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	-- Audit log (append-only)
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		actor_id TEXT,
		action TEXT NOT NULL,
		employee_id TEXT,
		subject TEXT NOT NULL,
		payload_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_subject
		ON audit_log(subject);
	CREATE INDEX IF NOT EXISTS idx_audit_employee
		ON audit_log(employee_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"leave_events", "leave_requests", "attendance_outcomes", "policies", "employees", "audit_log"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// where accumulates AND-ed conditions.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) in(column string, values []string) {
	if len(values) == 0 {
		return
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	w.add(column+" IN ("+marks+")", args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Fixed width so that stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseDate(column, s string) (generic.Date, error) {
	d, err := generic.ParseDate(s)
	if err != nil {
		return generic.Date{}, fmt.Errorf("corrupt %s %q: %w", column, s, err)
	}
	return d, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
