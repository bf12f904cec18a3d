package database

import (
	"context"
	"sync"
	"sync/atomic"

	"cinebook/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Opener creates the underlying connection.
type Opener func(ctx context.Context) (PgxIface, error)

// Handle is a lazily opened PgxIface. The first call opens the connection;
// concurrent first calls share a single open. A failed open is not cached.
type Handle struct {
	open    Opener
	mu      sync.Mutex
	current atomic.Pointer[PgxIface]
}

func NewHandle(open Opener) *Handle {
	return &Handle{open: open}
}

var (
	sharedOnce sync.Once
	shared     *Handle
)

// Shared returns the process-wide handle. The config of the first call wins.
func Shared(config utils.DatabaseConfig) *Handle {
	sharedOnce.Do(func() {
		shared = NewHandle(func(ctx context.Context) (PgxIface, error) {
			return InitDB(ctx, config)
		})
	})
	return shared
}

// Get returns the open connection, opening it on first use.
func (h *Handle) Get(ctx context.Context) (PgxIface, error) {
	if db := h.current.Load(); db != nil {
		return *db, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if db := h.current.Load(); db != nil {
		return *db, nil
	}

	db, err := h.open(ctx)
	if err != nil {
		return nil, err
	}
	h.current.Store(&db)
	return db, nil
}

func (h *Handle) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	db, err := h.Get(ctx)
	if err != nil {
		return nil, err
	}
	return db.Query(ctx, sql, args...)
}

func (h *Handle) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	db, err := h.Get(ctx)
	if err != nil {
		return errRow{err: err}
	}
	return db.QueryRow(ctx, sql, args...)
}

func (h *Handle) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db, err := h.Get(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return db.Exec(ctx, sql, args...)
}

func (h *Handle) Begin(ctx context.Context) (pgx.Tx, error) {
	db, err := h.Get(ctx)
	if err != nil {
		return nil, err
	}
	return db.Begin(ctx)
}

func (h *Handle) Ping(ctx context.Context) error {
	db, err := h.Get(ctx)
	if err != nil {
		return err
	}
	return db.Ping(ctx)
}

// Close releases the connection if it was opened. A later call reopens it.
func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if db := h.current.Swap(nil); db != nil {
		(*db).Close()
	}
}

type errRow struct {
	err error
}

func (r errRow) Scan(dest ...any) error {
	return r.err
}
