// Package vulndb is the vulnerability catalog: a SQLite table of CVEs keyed
// by product with the version range each one affects.
package vulndb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteRepository implements ports.VulnerabilityRepository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the catalog database and applies the schema.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

const selectColumns = `cve_id, product, name, description, severity, published_date, version_introduced, version_fixed`

// FindByProduct returns every entry for a product, most severe first.
func (r *SQLiteRepository) FindByProduct(ctx context.Context, product string) ([]domain.VulnerabilityEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM vulnerabilities
		WHERE LOWER(product) = LOWER(?)
		ORDER BY severity DESC, cve_id
	`, product)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []domain.VulnerabilityEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetByCVE returns nil without error when the id is unknown.
func (r *SQLiteRepository) GetByCVE(ctx context.Context, cve string) (*domain.VulnerabilityEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM vulnerabilities WHERE cve_id = UPPER(?)`, cve)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", cve, err)
	}
	return &e, nil
}

// UpsertEntry inserts or updates a catalog entry.
func (r *SQLiteRepository) UpsertEntry(ctx context.Context, e domain.VulnerabilityEntry) error {
	if e.CVE == "" || e.Software == "" {
		return fmt.Errorf("entry needs a CVE id and a product")
	}
	var fixed sql.NullString
	if e.Fixed != (domain.SoftwareVersion{}) {
		fixed = sql.NullString{String: e.Fixed.String(), Valid: true}
	}
	var published sql.NullString
	if !e.Published.IsZero() {
		published = sql.NullString{String: e.Published.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vulnerabilities (
			cve_id, product, name, description, severity, published_date, version_introduced, version_fixed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cve_id) DO UPDATE SET
			product = excluded.product,
			name = excluded.name,
			description = excluded.description,
			severity = excluded.severity,
			published_date = excluded.published_date,
			version_introduced = excluded.version_introduced,
			version_fixed = excluded.version_fixed,
			updated_at = CURRENT_TIMESTAMP
	`, e.CVE, e.Software, e.Name, e.Description, e.Severity, published, e.Introduced.String(), fixed)
	return err
}

// Count returns the number of catalog entries.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vulnerabilities").Scan(&n)
	return n, err
}

// MarkSeeded records when and from where the catalog was last loaded.
func (r *SQLiteRepository) MarkSeeded(ctx context.Context, source string, count int, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE seed_status SET last_seeded = ?, record_count = ?, source = ? WHERE id = 1
	`, at.UTC().Format(time.RFC3339), count, source)
	return err
}

// LastSeeded returns the zero time when the catalog was never seeded.
func (r *SQLiteRepository) LastSeeded(ctx context.Context) (time.Time, error) {
	var last sql.NullString
	if err := r.db.QueryRowContext(ctx, "SELECT last_seeded FROM seed_status WHERE id = 1").Scan(&last); err != nil {
		return time.Time{}, err
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, last.String)
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (domain.VulnerabilityEntry, error) {
	var (
		e                domain.VulnerabilityEntry
		published, fixed sql.NullString
		introduced       string
	)
	if err := s.Scan(&e.CVE, &e.Software, &e.Name, &e.Description, &e.Severity, &published, &introduced, &fixed); err != nil {
		return e, err
	}
	if published.Valid {
		e.Published, _ = time.Parse(time.RFC3339, published.String)
	}
	v, err := domain.ParseVersion(introduced)
	if err != nil {
		return e, fmt.Errorf("%s: %w", e.CVE, err)
	}
	e.Introduced = v
	if fixed.Valid && fixed.String != "" {
		if e.Fixed, err = domain.ParseVersion(fixed.String); err != nil {
			return e, fmt.Errorf("%s: %w", e.CVE, err)
		}
	}
	return e, nil
}

var _ ports.VulnerabilityRepository = (*SQLiteRepository)(nil)
