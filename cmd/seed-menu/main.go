package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-billing/internal/app"
	"github.com/xenking/kart-billing/internal/domain/menu"
)

func main() {
	var (
		store    app.StoreConfig
		menuFile string
	)

	flag.StringVar(&store.Driver, "driver", "", "store driver: sqlite or postgres (default: postgres when a database URL is set)")
	flag.StringVar(&store.DatabaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&store.SQLitePath, "sqlite-path", "billing_system.db", "SQLite database file")
	flag.StringVar(&menuFile, "menu-file", "", "JSON menu file; the house menu is used when empty")
	flag.Parse()

	store.ApplyDefaults()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, store, menuFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, cfg app.StoreConfig, menuFile string) error {
	items, err := readMenu(menuFile)
	if err != nil {
		return err
	}
	// Reject duplicates and negative prices before touching the store.
	if _, err := menu.NewCatalog(items); err != nil {
		return errors.Wrap(err, "validate menu")
	}

	slog.Info("opening store", slog.String("driver", cfg.Driver))
	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer store.Close()

	slog.Info("upserting menu items", slog.Int("count", len(items)))
	for _, it := range items {
		if err := store.Menu.Upsert(ctx, it); err != nil {
			return errors.Wrapf(err, "upsert %q", it.Name)
		}
		slog.Info("upserted menu item", slog.String("name", it.Name), slog.String("price", it.Price.String()))
	}
	return nil
}

func readMenu(path string) ([]menu.Item, error) {
	if path == "" {
		slog.Info("using house menu")
		return menu.DefaultItems(), nil
	}

	slog.Info("reading menu file", slog.String("path", path))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read menu file")
	}

	var items []menu.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrap(err, "parse menu JSON")
	}
	return items, nil
}
