package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jaronwright/repsync/internal/config"
)

// Store manages mutation queue persistence backed by SQLite. It owns the
// queue rows, the client/server ID map, and the transient syncing flag that
// serializes drain passes. The flag is in-memory only: a restart always
// begins with no in-flight sync.
type Store struct {
	db      *sql.DB
	path    string
	syncing atomic.Bool
}

// Open initializes or connects to the queue database and verifies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "queue.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the queue database location.
func (s *Store) Path() string {
	return s.path
}

// Enqueue appends a new pending mutation, assigning its identifier and
// timestamps. The payload is marshaled to JSON as given.
func (s *Store) Enqueue(ctx context.Context, typ MutationType, clientID string, payload any) (*Mutation, error) {
	if _, ok := typeSet[typ]; !ok {
		return nil, fmt.Errorf("unknown mutation type %q", typ)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	id := uuid.NewString()
	timestamp := nowTimestamp()
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO mutations (id, type, payload, client_id, status, retry_count, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		id,
		typ,
		string(raw),
		clientID,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert mutation: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a mutation by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Mutation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+mutationColumns+` FROM mutations WHERE id = ?`, id)
	mutation, err := scanMutation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mutation: %w", err)
	}
	return mutation, nil
}

// Dequeue removes a mutation by identifier. Removing an absent id is a no-op.
func (s *Store) Dequeue(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mutations WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete mutation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DequeueByClientID removes every mutation carrying the given client ID.
func (s *Store) DequeueByClientID(ctx context.Context, clientID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mutations WHERE client_id = ?`, clientID)
	if err != nil {
		return 0, fmt.Errorf("delete by client id: %w", err)
	}
	return res.RowsAffected()
}

// UpdateStatus transitions a mutation's status and error message. Unknown ids
// are a no-op.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error {
	if _, ok := statusSet[status]; !ok {
		return fmt.Errorf("unknown status %q", status)
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE mutations SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status,
		nullableString(errMsg),
		nowTimestamp(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// IncrementRetry bumps a mutation's retry counter. Unknown ids are a no-op.
func (s *Store) IncrementRetry(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE mutations SET retry_count = retry_count + 1, updated_at = ? WHERE id = ?`,
		nowTimestamp(),
		id,
	)
	if err != nil {
		return fmt.Errorf("increment retry: %w", err)
	}
	return nil
}

// List returns mutations filtered by status set (or all when no status is
// provided), in FIFO creation order.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Mutation, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + mutationColumns + ` FROM mutations`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list mutations: %w", err)
	}
	defer rows.Close()

	var mutations []*Mutation
	for rows.Next() {
		mutation, err := scanMutation(rows)
		if err != nil {
			return nil, err
		}
		mutations = append(mutations, mutation)
	}
	return mutations, rows.Err()
}

// ListForSync returns the snapshot a drain pass operates on: pending and
// failed mutations in FIFO creation order. Mutations enqueued after the
// snapshot is taken wait for the next pass.
func (s *Store) ListForSync(ctx context.Context) ([]*Mutation, error) {
	return s.List(ctx, StatusPending, StatusFailed)
}

// PendingCount returns the number of mutations still awaiting replay
// (status pending or syncing).
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM mutations WHERE status IN (?, ?)`,
		StatusPending,
		StatusSyncing,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return count, nil
}

// Stats returns a count of mutations grouped by status.
func (s *Store) Stats(ctx context.Context) (StatsSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM mutations GROUP BY status`)
	if err != nil {
		return StatsSummary{}, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	summary := StatsSummary{}
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return StatsSummary{}, err
		}
		summary.Total += count
		switch status {
		case StatusPending:
			summary.Pending += count
		case StatusSyncing:
			summary.Syncing += count
		case StatusFailed:
			summary.Failed += count
		}
	}
	return summary, rows.Err()
}

// RetryFailed moves failed mutations back to pending with a fresh retry
// budget. With no ids, every failed mutation is reset.
func (s *Store) RetryFailed(ctx context.Context, ids ...string) (int64, error) {
	timestamp := nowTimestamp()
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE mutations SET status = ?, retry_count = 0, error_message = NULL, updated_at = ? WHERE status = ?`,
			StatusPending,
			timestamp,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed mutations: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusPending, timestamp, StatusFailed)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE mutations SET status = ?, retry_count = 0, error_message = NULL, updated_at = ?
        WHERE status = ? AND id IN (` + placeholders + `)`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected mutations: %w", err)
	}
	return res.RowsAffected()
}

// ResetStuckSyncing returns mutations left in syncing back to pending. Called
// on startup: the flag is transient, so a syncing row can only be a leftover
// from a crashed process.
func (s *Store) ResetStuckSyncing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE mutations SET status = ?, updated_at = ? WHERE status = ?`,
		StatusPending,
		nowTimestamp(),
		StatusSyncing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck mutations: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all mutations from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mutations`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed mutations from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mutations WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// TryBeginSync attempts to claim the global sync flag. It returns false when
// another pass is already draining the queue.
func (s *Store) TryBeginSync() bool {
	return s.syncing.CompareAndSwap(false, true)
}

// EndSync releases the global sync flag.
func (s *Store) EndSync() {
	s.syncing.Store(false)
}

// IsSyncing reports whether a drain pass is currently running.
func (s *Store) IsSyncing() bool {
	return s.syncing.Load()
}
