package app

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-billing/internal/domain/menu"
	"github.com/xenking/kart-billing/internal/domain/orderlog"
	"github.com/xenking/kart-billing/internal/repository"
	"github.com/xenking/kart-billing/internal/storage/sqlite"
)

// Store bundles the repositories of the configured backend.
type Store struct {
	Orders orderlog.Repository
	Menu   menu.Repository

	ping  func(ctx context.Context) error
	close func()
}

// OpenStore connects to the configured store and creates its schema.
func OpenStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	switch cfg.Driver {
	case DriverPostgres:
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		return postgresStore(pool), nil
	case DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		return &Store{
			Orders: db.OrderLog(),
			Menu:   db.Menu(),
			ping:   db.Ping,
			close:  func() { _ = db.Close() },
		}, nil
	default:
		return nil, errors.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func postgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Orders: repository.NewOrderLogRepository(pool),
		Menu:   repository.NewMenuRepository(pool),
		ping:   pool.Ping,
		close:  pool.Close,
	}
}

// Ping checks store connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the store connections.
func (s *Store) Close() {
	s.close()
}
