package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"study-planner/internal/models"

	_ "modernc.org/sqlite"
)

// Fixed-width so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS plans (
		id            TEXT PRIMARY KEY,
		topic         TEXT NOT NULL,
		total_minutes REAL NOT NULL,
		created_at    TEXT NOT NULL,
		entries       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_plans_created_at ON plans(created_at DESC)`,
}

// SQLiteStore keeps plan history in a SQLite database. Entries are stored
// as a JSON column. Plans older than maxAge are invisible to reads and are
// deleted on every save.
type SQLiteStore struct {
	db     *sql.DB
	maxAge time.Duration
	now    func() time.Time
}

func NewSQLiteStore(path string, maxAge time.Duration) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration %d: %w", i, err)
		}
	}

	return &SQLiteStore{db: db, maxAge: maxAge, now: time.Now}, nil
}

// cutoff is the oldest created_at still visible. The empty string admits
// every row when retention is off.
func (s *SQLiteStore) cutoff() string {
	if s.maxAge <= 0 {
		return ""
	}
	return s.now().Add(-s.maxAge).UTC().Format(timeLayout)
}

func (s *SQLiteStore) Save(ctx context.Context, plan *models.Plan) error {
	if plan == nil || plan.ID == "" {
		return fmt.Errorf("plan with an ID is required")
	}

	entries, err := json.Marshal(plan.Entries)
	if err != nil {
		return fmt.Errorf("encoding plan entries: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO plans (id, topic, total_minutes, created_at, entries)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			topic = excluded.topic,
			total_minutes = excluded.total_minutes,
			created_at = excluded.created_at,
			entries = excluded.entries`,
		plan.ID,
		plan.Topic,
		plan.TotalMinutes,
		plan.CreatedAt.UTC().Format(timeLayout),
		string(entries),
	)
	if err != nil {
		return fmt.Errorf("saving plan %s: %w", plan.ID, err)
	}

	if s.maxAge > 0 {
		if _, err := s.Prune(ctx, s.now().Add(-s.maxAge)); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Plan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, topic, total_minutes, created_at, entries FROM plans
		WHERE id = ? AND created_at >= ?`, id, s.cutoff())

	plan, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading plan %s: %w", id, err)
	}
	return plan, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*models.Plan, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, total_minutes, created_at, entries FROM plans
		WHERE created_at >= ?
		ORDER BY created_at DESC LIMIT ?`, s.cutoff(), limit)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting plan %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting plan %s: %w", id, err)
	}
	if n == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// Prune deletes plans created before cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE created_at < ?`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning plans: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*models.Plan, error) {
	var (
		plan      models.Plan
		createdAt string
		entries   string
	)
	if err := row.Scan(&plan.ID, &plan.Topic, &plan.TotalMinutes, &createdAt, &entries); err != nil {
		return nil, err
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	plan.CreatedAt = t

	if err := json.Unmarshal([]byte(entries), &plan.Entries); err != nil {
		return nil, fmt.Errorf("decoding entries: %w", err)
	}
	return &plan, nil
}
