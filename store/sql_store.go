package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nomis52/procsim/activity"
	"github.com/nomis52/procsim/process"
)

//go:embed migrations/*/*.sql
var migrationFS embed.FS

// dialect captures what differs between the SQL backends.
type dialect struct {
	name string
	// numbered placeholders ($1, $2) instead of ?
	numbered         bool
	collectionsQuery string
}

var (
	sqliteDialect = dialect{
		name:             "sqlite",
		collectionsQuery: "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
	}
	postgresDialect = dialect{
		name:             "postgres",
		numbered:         true,
		collectionsQuery: "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name",
	}
)

// rebind rewrites ? placeholders for dialects using numbered ones.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore implements Store on database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

func newSQLStore(db *sql.DB, d dialect, logger *slog.Logger) *SQLStore {
	return &SQLStore{db: db, dialect: d, logger: logger}
}

const eventColumns = "id, process_key, stage_key, item_key, type, message, actor, meta, created_at"

// InsertProcess stores p unless a process with the same key exists.
func (s *SQLStore) InsertProcess(ctx context.Context, p process.Process) (bool, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return false, fmt.Errorf("encode process: %w", err)
	}

	res, err := s.db.ExecContext(ctx, s.dialect.rebind(
		"INSERT INTO processes (process_key, name, document, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (process_key) DO NOTHING"),
		p.Key, p.Name, string(doc), time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return false, classify(fmt.Errorf("insert process %q: %w", p.Key, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert process %q: %w", p.Key, err)
	}
	return n > 0, nil
}

// FindProcess returns the process with the given key, or nil if absent.
func (s *SQLStore) FindProcess(ctx context.Context, key string) (*process.Process, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(
		"SELECT document FROM processes WHERE process_key = ?"), key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(fmt.Errorf("find process %q: %w", key, err))
	}

	var p process.Process
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("decode process %q: %w", key, err)
	}
	return &p, nil
}

// InsertEvent stores e with a fresh ID.
func (s *SQLStore) InsertEvent(ctx context.Context, e activity.Event) (string, error) {
	meta, err := activity.EncodeMeta(e.Meta)
	if err != nil {
		return "", fmt.Errorf("encode meta: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, s.dialect.rebind(
		"INSERT INTO activity_logs ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		id, e.ProcessKey, e.StageKey, e.ItemKey, string(e.Type), e.Message, e.Actor,
		nullableJSON(meta), e.CreatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return "", classify(fmt.Errorf("insert event: %w", err))
	}
	return id, nil
}

// FindEvents returns matching events, newest first.
func (s *SQLStore) FindEvents(ctx context.Context, f activity.Filter) ([]activity.Event, error) {
	where, args := filterClause(f)
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(
		"SELECT "+eventColumns+" FROM activity_logs"+where+" ORDER BY created_at DESC, seq DESC"), args...)
	if err != nil {
		return nil, classify(fmt.Errorf("query events: %w", err))
	}
	defer rows.Close()

	events := make([]activity.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("iterate events: %w", err))
	}
	return events, nil
}

// CountEvents returns the number of matching events.
func (s *SQLStore) CountEvents(ctx context.Context, f activity.Filter) (int, error) {
	where, args := filterClause(f)
	var n int
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(
		"SELECT COUNT(1) FROM activity_logs"+where), args...).Scan(&n)
	if err != nil {
		return 0, classify(fmt.Errorf("count events: %w", err))
	}
	return n, nil
}

// Driver returns the dialect name.
func (s *SQLStore) Driver() string { return s.dialect.name }

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Collections lists the tables in the database.
func (s *SQLStore) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.collectionsQuery)
	if err != nil {
		return nil, classify(fmt.Errorf("list collections: %w", err))
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func filterClause(f activity.Filter) (string, []any) {
	clauses := []string{"process_key = ?"}
	args := []any{f.ProcessKey}
	if f.StageKey != "" {
		clauses = append(clauses, "stage_key = ?")
		args = append(args, f.StageKey)
	}
	if f.ItemKey != "" {
		clauses = append(clauses, "item_key = ?")
		args = append(args, f.ItemKey)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanEvent(scanner interface{ Scan(dest ...any) error }) (activity.Event, error) {
	var (
		e         activity.Event
		typ       string
		meta      sql.NullString
		createdAt int64
	)
	if err := scanner.Scan(&e.ID, &e.ProcessKey, &e.StageKey, &e.ItemKey, &typ, &e.Message, &e.Actor, &meta, &createdAt); err != nil {
		return activity.Event{}, fmt.Errorf("scan event: %w", err)
	}
	e.Type = activity.Type(typ)
	e.CreatedAt = time.Unix(0, createdAt).UTC()
	if meta.Valid {
		m, err := activity.DecodeMeta(e.Type, []byte(meta.String))
		if err != nil {
			return activity.Event{}, fmt.Errorf("event %s: %w", e.ID, err)
		}
		e.Meta = m
	}
	return e, nil
}

func nullableJSON(value []byte) any {
	if value == nil {
		return nil
	}
	return string(value)
}

// classify marks connection failures with ErrUnavailable.
func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

type migration struct {
	version string
	sql     string
}

func loadMigrations(d dialect) ([]migration, error) {
	dir := "migrations/" + d.name
	entries, err := migrationFS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	versions := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		versions = append(versions, entry.Name())
	}
	sort.Strings(versions)

	migrations := make([]migration, 0, len(versions))
	for _, name := range versions {
		data, err := migrationFS.ReadFile(dir + "/" + name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		migrations = append(migrations, migration{
			version: strings.TrimSuffix(name, ".sql"),
			sql:     string(data),
		})
	}
	return migrations, nil
}

func (s *SQLStore) applyMigrations(ctx context.Context) error {
	migrations, err := loadMigrations(s.dialect)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var count int
		row := tx.QueryRowContext(ctx, s.dialect.rebind("SELECT COUNT(1) FROM schema_migrations WHERE version = ?"), m.version)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, s.dialect.rebind("INSERT INTO schema_migrations (version) VALUES (?)"), m.version); err != nil {
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
		s.logger.Info("applied migration", "driver", s.dialect.name, "version", m.version)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}
