package archive

import (
	"context"
	"io"
	"log/slog"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-billing/internal/domain/orderlog"
)

const (
	minFilterCapacity = 1024
	filterFPR         = 0.001
)

// Stats summarizes an import.
type Stats struct {
	Orders  int
	Rows    int
	Skipped int
}

// Import appends the orders read from src to dst. Rows are grouped into
// orders by consecutive order key; an order whose key already exists in dst
// is skipped, so importing the same archive twice is a no-op.
func Import(ctx context.Context, src *Reader, dst orderlog.Repository) (Stats, error) {
	filter, err := existingKeys(ctx, dst)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	orders := make(chan []orderlog.Row, 16)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(orders)
		return readOrders(ctx, src, orders)
	})
	g.Go(func() error {
		for rows := range orders {
			key := rows[0].Key()

			exists := false
			if filter.TestString(key.String()) {
				// Possible false positive: confirm against the store.
				ok, err := dst.Exists(ctx, key)
				if err != nil {
					return errors.Wrapf(err, "check order %s", key)
				}
				exists = ok
			}
			if exists {
				stats.Skipped++
				continue
			}

			if err := dst.Append(ctx, rows); err != nil {
				return errors.Wrapf(err, "append order %s", key)
			}
			filter.AddString(key.String())
			stats.Orders++
			stats.Rows += len(rows)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}

	slog.Info("import complete",
		slog.Int("orders", stats.Orders),
		slog.Int("rows", stats.Rows),
		slog.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

// existingKeys loads the order keys of dst into a bloom filter.
func existingKeys(ctx context.Context, dst orderlog.Repository) (*bloom.BloomFilter, error) {
	n, err := dst.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "count rows")
	}

	filter := bloom.NewWithEstimates(uint(max(n, minFilterCapacity)), filterFPR)
	if err := dst.Keys(ctx, func(k orderlog.Key) error {
		filter.AddString(k.String())
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "load order keys")
	}
	return filter, nil
}

// readOrders groups consecutive rows with the same key and sends each group.
func readOrders(ctx context.Context, src *Reader, out chan<- []orderlog.Row) error {
	var current []orderlog.Row

	flush := func() error {
		if len(current) == 0 {
			return nil
		}
		select {
		case out <- current:
			current = nil
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return flush()
		}
		if err != nil {
			return err
		}

		if len(current) > 0 && current[0].Key() != row.Key() {
			if err := flush(); err != nil {
				return err
			}
		}
		current = append(current, row)
	}
}
