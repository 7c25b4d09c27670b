// Package backend is the development server the HTTP gateway talks to:
// a SQLite-backed task and roster store behind an HTTP API.
package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fentz26/roster/internal/models"
)

// Validation errors returned by ReplaceTasks.
var (
	ErrDuplicateTask      = errors.New("duplicate task id")
	ErrEmptyTaskID        = errors.New("task id is required")
	ErrNegativeDuration   = errors.New("task duration must not be negative")
	ErrUnknownHousekeeper = errors.New("unknown housekeeper")
)

// Store provides access to the roster SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens the database at dbPath and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	dsn := ":memory:"
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time; this also keeps a
	// :memory: database alive on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS housekeepers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		duration INTEGER NOT NULL DEFAULT 0,
		deadline TEXT NOT NULL DEFAULT '',
		hotel_apartment TEXT NOT NULL DEFAULT '',
		assigned_to INTEGER,
		position INTEGER NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		inputs_hash TEXT NOT NULL,
		task_count INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_position ON tasks(position);
	CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Housekeeper Operations ---

// CreateHousekeeper inserts a housekeeper and returns it with its id.
func (s *Store) CreateHousekeeper(ctx context.Context, name string) (*models.Housekeeper, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO housekeepers (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert housekeeper: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("housekeeper id: %w", err)
	}
	return &models.Housekeeper{ID: int(id), Name: name}, nil
}

// ListHousekeepers returns the roster ordered by id.
func (s *Store) ListHousekeepers(ctx context.Context) ([]models.Housekeeper, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM housekeepers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query housekeepers: %w", err)
	}
	defer rows.Close()

	hks := []models.Housekeeper{}
	for rows.Next() {
		var hk models.Housekeeper
		if err := rows.Scan(&hk.ID, &hk.Name); err != nil {
			return nil, fmt.Errorf("scan housekeeper: %w", err)
		}
		hks = append(hks, hk)
	}
	return hks, rows.Err()
}

// --- Task Operations ---

// CreateTask appends a task to the end of the set. An empty id is replaced
// with a generated one.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (*models.Task, error) {
	task := t.Clone()
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Duration < 0 {
		return nil, ErrNegativeDuration
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, duration, deadline, hotel_apartment, assigned_to, position, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM tasks), ?)`,
		task.ID, task.Title, task.Duration, task.Deadline, task.HotelApartment, nullInt(task.AssignedTo), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return &task, nil
}

// ListTasks returns the task set in stored order.
func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, duration, deadline, hotel_apartment, assigned_to FROM tasks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		var assignedTo sql.NullInt64
		if err := rows.Scan(&task.ID, &task.Title, &task.Duration, &task.Deadline, &task.HotelApartment, &assignedTo); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if assignedTo.Valid {
			task.AssignedTo = models.HousekeeperID(int(assignedTo.Int64))
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// ReplaceTasks atomically replaces the whole task set. Slice order becomes
// the stored order. The set is rejected if ids repeat, a duration is
// negative, or a task is assigned to a housekeeper that does not exist.
func (s *Store) ReplaceTasks(ctx context.Context, tasks []models.Task) error {
	if err := validateTasks(tasks); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	known := map[int]bool{}
	rows, err := tx.QueryContext(ctx, `SELECT id FROM housekeepers`)
	if err != nil {
		return fmt.Errorf("query housekeepers: %w", err)
	}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan housekeeper: %w", err)
		}
		known[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate housekeepers: %w", err)
	}
	for _, t := range tasks {
		if t.AssignedTo != nil && !known[*t.AssignedTo] {
			return fmt.Errorf("%w: %d (task %s)", ErrUnknownHousekeeper, *t.AssignedTo, t.ID)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tasks (id, title, duration, deadline, hotel_apartment, assigned_to, position, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, t := range tasks {
		if _, err := stmt.ExecContext(ctx, t.ID, t.Title, t.Duration, t.Deadline, t.HotelApartment, nullInt(t.AssignedTo), i, now); err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func validateTasks(tasks []models.Task) error {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			return ErrEmptyTaskID
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateTask, t.ID)
		}
		seen[t.ID] = true
		if t.Duration < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeDuration, t.ID)
		}
	}
	return nil
}

// --- Seed ---

// Seed loads the given roster and tasks if the database has no
// housekeepers yet. Housekeeper ids are taken from the input. It reports
// whether anything was written.
func (s *Store) Seed(ctx context.Context, hks []models.Housekeeper, tasks []models.Task) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM housekeepers`).Scan(&n); err != nil {
		return false, fmt.Errorf("count housekeepers: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	for _, hk := range hks {
		if _, err := s.db.ExecContext(ctx, `INSERT INTO housekeepers (id, name) VALUES (?, ?)`, hk.ID, hk.Name); err != nil {
			return false, fmt.Errorf("insert housekeeper: %w", err)
		}
	}
	if err := s.ReplaceTasks(ctx, tasks); err != nil {
		return false, err
	}
	return true, nil
}

// --- Submission Operations ---

// RecordSubmission writes an audit row for an accepted task set.
func (s *Store) RecordSubmission(ctx context.Context, inputsHash string, taskCount int) (*models.Submission, error) {
	sub := &models.Submission{
		ID:         uuid.New().String(),
		InputsHash: inputsHash,
		TaskCount:  taskCount,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, inputs_hash, task_count, created_at) VALUES (?, ?, ?, ?)`,
		sub.ID, sub.InputsHash, sub.TaskCount, sub.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	return sub, nil
}

// ListSubmissions returns the most recent submissions first.
func (s *Store) ListSubmissions(ctx context.Context, limit int) ([]models.Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, inputs_hash, task_count, created_at FROM submissions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	subs := []models.Submission{}
	for rows.Next() {
		var sub models.Submission
		if err := rows.Scan(&sub.ID, &sub.InputsHash, &sub.TaskCount, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
