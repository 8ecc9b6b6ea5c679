package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/zhouzirui/moodflow/backend/internal/model/session"
)

// Dialect selects the SQL flavour used by SQLStore.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const sessionColumns = "id, mood, step, completed, timestamp_created, timestamp_updated"

// SQLStore persists sessions in SQLite or Postgres through database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// OpenSQLite opens (or creates) a SQLite database file and ensures the schema exists.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// a single connection serializes writers and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	return newSQLStore(db, DialectSQLite)
}

// OpenPostgres connects to Postgres and ensures the schema exists.
func OpenPostgres(dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	return newSQLStore(db, DialectPostgres)
}

func newSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	store := &SQLStore{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return store, nil
}

func (s *SQLStore) createTables() error {
	var schema string
	switch s.dialect {
	case DialectPostgres:
		schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id BIGSERIAL PRIMARY KEY,
		mood TEXT NOT NULL,
		step INTEGER,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		timestamp_created TIMESTAMPTZ NOT NULL,
		timestamp_updated TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_mood ON sessions(mood);
	CREATE INDEX IF NOT EXISTS idx_sessions_completed ON sessions(completed);
	`
	default:
		// AUTOINCREMENT keeps ids from being reused after the highest row is removed
		schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mood TEXT NOT NULL,
		step INTEGER,
		completed BOOLEAN NOT NULL DEFAULT 0,
		timestamp_created DATETIME NOT NULL,
		timestamp_updated DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_mood ON sessions(mood);
	CREATE INDEX IF NOT EXISTS idx_sessions_completed ON sessions(completed);
	`
	}

	_, err := s.db.Exec(schema)
	return err
}

// Create inserts a session and returns it with its assigned id.
func (s *SQLStore) Create(ctx context.Context, in session.New) (session.Session, error) {
	if err := validateNew(in); err != nil {
		return session.Session{}, err
	}

	step := in.InitialStep()

	now := s.now()
	record := session.Session{
		Mood:             in.Mood,
		Step:             step,
		Completed:        in.Completed,
		TimestampCreated: now,
		TimestampUpdated: now,
	}

	query := s.rebind(`
		INSERT INTO sessions (mood, step, completed, timestamp_created, timestamp_updated)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := s.db.QueryRowContext(ctx, query,
		string(record.Mood),
		nullStep(record.Step),
		record.Completed,
		s.timeArg(record.TimestampCreated),
		s.timeArg(record.TimestampUpdated),
	).Scan(&record.ID)
	if err != nil {
		return session.Session{}, fmt.Errorf("insert session: %w", err)
	}

	return record, nil
}

// Update applies the patch inside a transaction.
func (s *SQLStore) Update(ctx context.Context, id int64, patch session.Patch) (session.Session, error) {
	if err := validatePatch(patch); err != nil {
		return session.Session{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return session.Session{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	selectQuery := "SELECT " + sessionColumns + " FROM sessions WHERE id = ?"
	if s.dialect == DialectPostgres {
		selectQuery += " FOR UPDATE"
	}

	current, err := scanSession(tx.QueryRowContext(ctx, s.rebind(selectQuery), id))
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("load session %d: %w", id, err)
	}

	updated := patch.Apply(current)
	updated.TimestampUpdated = s.now()
	if updated.TimestampUpdated.Before(current.TimestampUpdated) {
		updated.TimestampUpdated = current.TimestampUpdated
	}

	_, err = tx.ExecContext(ctx, s.rebind(`
		UPDATE sessions SET step = ?, completed = ?, timestamp_updated = ?
		WHERE id = ?
	`), nullStep(updated.Step), updated.Completed, s.timeArg(updated.TimestampUpdated), id)
	if err != nil {
		return session.Session{}, fmt.Errorf("update session %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return session.Session{}, fmt.Errorf("commit session %d: %w", id, err)
	}
	return updated, nil
}

// Get retrieves a session by identifier.
func (s *SQLStore) Get(ctx context.Context, id int64) (session.Session, error) {
	query := s.rebind("SELECT " + sessionColumns + " FROM sessions WHERE id = ?")
	record, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("get session %d: %w", id, err)
	}
	return record, nil
}

// List returns all sessions ordered by id.
func (s *SQLStore) List(ctx context.Context) ([]session.Session, error) {
	return s.query(ctx, "")
}

// ListByMood returns sessions with the given mood.
func (s *SQLStore) ListByMood(ctx context.Context, mood session.Mood) ([]session.Session, error) {
	return s.query(ctx, "WHERE mood = ?", string(mood))
}

// ListByStep returns sessions currently at the given step.
func (s *SQLStore) ListByStep(ctx context.Context, step session.Step) ([]session.Session, error) {
	return s.query(ctx, "WHERE step = ?", int64(step))
}

// ListCompleted returns sessions marked completed.
func (s *SQLStore) ListCompleted(ctx context.Context) ([]session.Session, error) {
	return s.query(ctx, "WHERE completed = ?", true)
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) query(ctx context.Context, where string, args ...any) ([]session.Session, error) {
	query := s.rebind("SELECT " + sessionColumns + " FROM sessions " + where + " ORDER BY id")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	records := make([]session.Session, 0)
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return records, nil
}

// rebind rewrites ? placeholders into $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// timeArg keeps full precision in SQLite, which has no native time type.
func (s *SQLStore) timeArg(t time.Time) any {
	if s.dialect == DialectSQLite {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (session.Session, error) {
	var (
		record  session.Session
		mood    string
		step    sql.NullInt64
		created timestampValue
		updated timestampValue
	)

	if err := row.Scan(&record.ID, &mood, &step, &record.Completed, &created, &updated); err != nil {
		return session.Session{}, err
	}

	record.Mood = session.Mood(mood)
	if step.Valid {
		record.Step = session.StepPtr(session.Step(step.Int64))
	}
	record.TimestampCreated = created.Time
	record.TimestampUpdated = updated.Time
	return record, nil
}

func nullStep(step *session.Step) sql.NullInt64 {
	if step == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*step), Valid: true}
}

// timestampValue accepts the representations drivers hand back for time columns.
type timestampValue struct {
	Time time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func (t *timestampValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case int64:
		t.Time = time.Unix(v, 0).UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	case nil:
		t.Time = time.Time{}
		return nil
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (t *timestampValue) parse(raw string) error {
	// drop the monotonic clock suffix that time.Time.String appends
	if i := strings.Index(raw, " m="); i >= 0 {
		raw = raw[:i]
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	if parsed, err := time.Parse("2006-01-02 15:04:05.999999999 -0700 MST", raw); err == nil {
		t.Time = parsed.UTC()
		return nil
	}
	return fmt.Errorf("unrecognised timestamp %q", raw)
}
