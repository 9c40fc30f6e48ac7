package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-billing/internal/app"
	"github.com/xenking/kart-billing/internal/archive"
)

func main() {
	var (
		store app.StoreConfig
		mode  string
		file  string
	)

	flag.StringVar(&mode, "mode", "export", "export or import")
	flag.StringVar(&file, "file", "orders.jsonl.gz", "archive file")
	flag.StringVar(&store.Driver, "driver", "", "store driver: sqlite or postgres (default: postgres when a database URL is set)")
	flag.StringVar(&store.DatabaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&store.SQLitePath, "sqlite-path", "billing_system.db", "SQLite database file")
	flag.Parse()

	store.ApplyDefaults()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, mode, file, store); err != nil {
		slog.Error("archive failed", slog.String("mode", mode), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, mode, file string, cfg app.StoreConfig) error {
	if mode != "export" && mode != "import" {
		return errors.Errorf("unknown mode %q", mode)
	}

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer store.Close()

	if mode == "import" {
		return importFile(ctx, file, store)
	}
	return exportFile(ctx, file, store)
}

func exportFile(ctx context.Context, path string, store *app.Store) (rerr error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create archive")
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = errors.Wrap(err, "close archive")
		}
	}()

	w := archive.NewWriter(f)
	n, err := archive.Export(ctx, store.Orders, w)
	if err != nil {
		return errors.Wrap(err, "export")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "flush archive")
	}

	slog.Info("export complete", slog.String("file", path), slog.Int("rows", n))
	return nil
}

func importFile(ctx context.Context, path string, store *app.Store) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open archive")
	}
	defer func() { _ = f.Close() }()

	r, err := archive.NewReader(f)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	if _, err := archive.Import(ctx, r, store.Orders); err != nil {
		return errors.Wrap(err, "import")
	}
	return nil
}
