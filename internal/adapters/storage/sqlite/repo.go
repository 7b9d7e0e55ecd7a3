package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hylla/tickit/internal/app"
	"github.com/hylla/tickit/internal/domain"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its dialect and base FS in package state.
var migrateMu sync.Mutex

// Repository represents repository data used by this package.
type Repository struct {
	db *sql.DB
}

// Open opens the database file at path, creating it and its directory when needed.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"
	return open(dsn)
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	return open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
}

func open(dsn string) (*Repository, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps shared-cache memory databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate applies the embedded goose migrations.
func (r *Repository) migrate() error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetLogger(log.New(io.Discard, "", 0))
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(r.db, "migrations"); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

// CreateUser stores a new account. Duplicate emails report app.ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users(id, email, provider, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.Provider, u.PasswordHash, ts(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return app.ErrConflict
		}
		return err
	}
	return nil
}

// GetUser returns one account by id.
func (r *Repository) GetUser(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, provider, password_hash, created_at
		FROM users
		WHERE id = ?
	`, id)
	return scanUser(row)
}

// GetUserByEmail returns one account by normalized email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, provider, password_hash, created_at
		FROM users
		WHERE email = ?
	`, email)
	return scanUser(row)
}

// CreateTask inserts a task and its change event in one transaction.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks(id, owner_id, title, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.OwnerID, t.Title, boolToInt(t.Completed), ts(t.CreatedAt), ts(t.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return app.ErrConflict
		}
		return err
	}

	err = insertChangeEvent(ctx, tx, domain.ChangeEvent{
		OwnerID:   t.OwnerID,
		TaskID:    t.ID,
		Operation: domain.ChangeOperationCreate,
		Metadata: map[string]string{
			"title":     t.Title,
			"completed": strconv.FormatBool(t.Completed),
		},
		OccurredAt: t.CreatedAt,
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateTask applies patch to the stored task and records which fields
// changed. The read and the write share one transaction so concurrent patches
// to different fields never overwrite each other.
func (r *Repository) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch, now time.Time) (_ domain.Task, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	prev, err := getTaskByID(ctx, tx, id)
	if err != nil {
		return domain.Task{}, err
	}
	next := prev
	if err = next.Apply(patch, now); err != nil {
		return domain.Task{}, err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, completed = ?, updated_at = ?
		WHERE id = ?
	`, next.Title, boolToInt(next.Completed), ts(next.UpdatedAt), next.ID)
	if err != nil {
		return domain.Task{}, err
	}
	if err = translateNoRows(res); err != nil {
		return domain.Task{}, err
	}

	err = insertChangeEvent(ctx, tx, domain.ChangeEvent{
		OwnerID:   prev.OwnerID,
		TaskID:    next.ID,
		Operation: domain.ChangeOperationUpdate,
		Metadata: map[string]string{
			"changed_fields": strings.Join(changedTaskFields(prev, next), ","),
		},
		OccurredAt: next.UpdatedAt,
	})
	if err != nil {
		return domain.Task{}, err
	}
	if err = tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return next, nil
}

// GetTask returns one task by id.
func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return getTaskByID(ctx, r.db, id)
}

// ListTasks returns one owner's tasks in insertion order.
func (r *Repository) ListTasks(ctx context.Context, ownerID string) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, title, completed, created_at, updated_at
		FROM tasks
		WHERE owner_id = ?
		ORDER BY rowid ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTask removes one task and records the deletion.
func (r *Repository) DeleteTask(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	prev, err := getTaskByID(ctx, tx, id)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	err = insertChangeEvent(ctx, tx, domain.ChangeEvent{
		OwnerID:   prev.OwnerID,
		TaskID:    id,
		Operation: domain.ChangeOperationDelete,
		Metadata: map[string]string{
			"title": prev.Title,
		},
		OccurredAt: time.Now(),
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// ChangeVersion returns the newest change event id for the owner, or 0.
func (r *Repository) ChangeVersion(ctx context.Context, ownerID string) (int64, error) {
	var version int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(id), 0)
		FROM change_events
		WHERE owner_id = ?
	`, ownerID).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// ListChangeEvents returns the newest change events for one owner.
func (r *Repository) ListChangeEvents(ctx context.Context, ownerID string, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, task_id, operation, metadata_json, created_at
		FROM change_events
		WHERE owner_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ChangeEvent, 0)
	for rows.Next() {
		var (
			event       domain.ChangeEvent
			opRaw       string
			metadataRaw string
			createdRaw  string
		)
		if err := rows.Scan(&event.ID, &event.OwnerID, &event.TaskID, &opRaw, &metadataRaw, &createdRaw); err != nil {
			return nil, err
		}
		event.Operation = normalizeChangeOperation(opRaw)
		event.OccurredAt = parseTS(createdRaw)
		if strings.TrimSpace(metadataRaw) == "" {
			metadataRaw = "{}"
		}
		if err := json.Unmarshal([]byte(metadataRaw), &event.Metadata); err != nil {
			return nil, fmt.Errorf("decode change_events.metadata_json: %w", err)
		}
		if event.Metadata == nil {
			event.Metadata = map[string]string{}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execerContext interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getTaskByID(ctx context.Context, q queryRower, id string) (domain.Task, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, owner_id, title, completed, created_at, updated_at
		FROM tasks
		WHERE id = ?
	`, id)
	return scanTask(row)
}

func insertChangeEvent(ctx context.Context, execer execerContext, event domain.ChangeEvent) error {
	metadataJSON, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("encode change event metadata: %w", err)
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	_, err = execer.ExecContext(ctx, `
		INSERT INTO change_events(owner_id, task_id, operation, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, event.OwnerID, event.TaskID, string(event.Operation), string(metadataJSON), ts(occurredAt))
	if err != nil {
		return fmt.Errorf("insert change event: %w", err)
	}
	return nil
}

func changedTaskFields(prev, next domain.Task) []string {
	fields := make([]string, 0, 2)
	if prev.Title != next.Title {
		fields = append(fields, "title")
	}
	if prev.Completed != next.Completed {
		fields = append(fields, "completed")
	}
	return fields
}

func normalizeChangeOperation(raw string) domain.ChangeOperation {
	switch op := domain.ChangeOperation(strings.TrimSpace(strings.ToLower(raw))); op {
	case domain.ChangeOperationCreate, domain.ChangeOperationUpdate, domain.ChangeOperationDelete:
		return op
	default:
		return domain.ChangeOperationUpdate
	}
}

func scanTask(s scanner) (domain.Task, error) {
	var (
		t          domain.Task
		completed  int
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(&t.ID, &t.OwnerID, &t.Title, &completed, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, app.ErrNotFound
		}
		return domain.Task{}, err
	}
	t.Completed = completed != 0
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	return t, nil
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u          domain.User
		createdRaw string
	)
	if err := s.Scan(&u.ID, &u.Email, &u.Provider, &u.PasswordHash, &createdRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, app.ErrNotFound
		}
		return domain.User{}, err
	}
	u.CreatedAt = parseTS(createdRaw)
	return u, nil
}

func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
