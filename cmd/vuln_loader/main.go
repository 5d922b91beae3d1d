package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lcalzada-xor/netcity/internal/adapters/vulndb"
)

func main() {
	feed := flag.String("file", "", "Path to a vulnerability feed JSON file (empty loads the built-in seed)")
	dbPath := flag.String("db", "./data/vulndb.sqlite", "Path to the vulnerability catalog database")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	slog.Info("Vulnerability catalog loader", "feed", *feed, "db", *dbPath)

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		slog.Error("Failed to create data directory", "error", err)
		os.Exit(1)
	}

	repo, err := vulndb.NewSQLiteRepository(*dbPath)
	if err != nil {
		slog.Error("Failed to open catalog", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	loader := vulndb.NewSeedLoader(repo)
	ctx := context.Background()

	var loaded int
	if *feed == "" {
		loaded, err = loader.EnsureSeeded(ctx)
	} else {
		loaded, err = loader.LoadFromFile(ctx, *feed)
	}
	if err != nil {
		slog.Error("Failed to load feed", "error", err)
		os.Exit(1)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		slog.Error("Failed to count entries", "error", err)
		os.Exit(1)
	}
	slog.Info("Catalog updated", "loaded", loaded, "total", count)
}
