package vulndb

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
)

//go:embed seed.json
var embeddedSeed []byte

// EmbeddedSource names the built-in seed in the seed status table.
const EmbeddedSource = "embedded"

// SeedLoader loads catalog entries from JSON into the repository.
type SeedLoader struct {
	repo *SQLiteRepository
	now  func() time.Time
}

func NewSeedLoader(repo *SQLiteRepository) *SeedLoader {
	return &SeedLoader{repo: repo, now: time.Now}
}

// LoadFromFile loads a JSON array of entries from disk.
func (s *SeedLoader) LoadFromFile(ctx context.Context, path string) (int, error) {
	slog.Info("Loading vulnerability feed", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}
	return s.load(ctx, data, path)
}

// EnsureSeeded loads the built-in catalog into an empty database.
func (s *SeedLoader) EnsureSeeded(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	return s.load(ctx, embeddedSeed, EmbeddedSource)
}

func (s *SeedLoader) load(ctx context.Context, data []byte, source string) (int, error) {
	var entries []domain.VulnerabilityEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("failed to parse seed %s: %w", source, err)
	}

	loaded, failed := 0, 0
	for _, e := range entries {
		if err := s.repo.UpsertEntry(ctx, e); err != nil {
			slog.Warn("Failed to load vulnerability", "cve", e.CVE, "error", err)
			failed++
			continue
		}
		loaded++
	}
	slog.Info("Vulnerability feed loaded", "source", source, "loaded", loaded, "failed", failed)

	if err := s.repo.MarkSeeded(ctx, source, loaded, s.now()); err != nil {
		slog.Warn("Failed to update seed status", "error", err)
	}
	return loaded, nil
}
