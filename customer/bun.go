package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// BunRepository reads profiles from the customers table in Postgres.
type BunRepository struct {
	db      *bun.DB
	timeout time.Duration
}

// OpenPostgres connects to dsn and returns a repository. Close releases the
// connection pool.
func OpenPostgres(dsn string, timeout time.Duration) (*BunRepository, error) {
	if dsn == "" {
		return nil, errors.New("database dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	return NewBunRepository(bun.NewDB(sqldb, pgdialect.New()), timeout), nil
}

func NewBunRepository(db *bun.DB, timeout time.Duration) *BunRepository {
	return &BunRepository{db: db, timeout: timeout}
}

func (r *BunRepository) Get(ctx context.Context, customerID string) (*Customer, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: empty customer id", ErrNotFound)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	c := new(Customer)
	err := r.db.NewSelect().
		Model(c).
		Where("customer_id = ?", customerID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying customer %s: %w", customerID, err)
	}
	return c, nil
}

// Ping verifies the database is reachable.
func (r *BunRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *BunRepository) Close() error {
	return r.db.Close()
}
