package migrations

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"godoor/internal"
)

//go:embed *.sql
var embedded embed.FS

// Files returns the migrations compiled into the binary
func Files() fs.FS { return embedded }

// Migrator handles database schema migrations
type Migrator struct {
	db     *sql.DB
	files  fs.FS
	logger *internal.Logger
}

// NewMigrator creates a migrator over files; nil selects the embedded set
func NewMigrator(db *sql.DB, files fs.FS, logger *internal.Logger) *Migrator {
	if files == nil {
		files = embedded
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Migrator{db: db, files: files, logger: logger.With("migrate")}
}

// MigrationFile represents one migration: NNN_name.up.sql with an optional
// NNN_name.down.sql
type MigrationFile struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// MigrationStatus pairs a migration with whether it has been applied
type MigrationStatus struct {
	MigrationFile
	Applied bool
}

// Up executes all pending migrations and returns the versions applied
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	files, err := FindMigrationFiles(m.files)
	if err != nil {
		return nil, fmt.Errorf("failed to find migration files: %w", err)
	}

	var done []string
	for _, file := range files {
		if applied[file.Version] {
			continue
		}
		if err := m.applyMigration(ctx, file); err != nil {
			return done, fmt.Errorf("failed to apply migration %s: %w", file.Version, err)
		}
		m.logger.Info("Applied migration: %s_%s", file.Version, file.Name)
		done = append(done, file.Version)
	}

	return done, nil
}

// Down rolls back the last applied migration
func (m *Migrator) Down(ctx context.Context) (string, error) {
	var version string
	err := m.db.QueryRowContext(ctx, `
		SELECT version FROM schema_migrations
		ORDER BY version DESC LIMIT 1`).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("no migrations to rollback")
		}
		return "", fmt.Errorf("failed to get last migration: %w", err)
	}

	files, err := FindMigrationFiles(m.files)
	if err != nil {
		return "", fmt.Errorf("failed to find migration files: %w", err)
	}
	var target *MigrationFile
	for i := range files {
		if files[i].Version == version {
			target = &files[i]
		}
	}
	if target == nil || target.DownPath == "" {
		return "", fmt.Errorf("no down migration for version %s", version)
	}

	script, err := fs.ReadFile(m.files, target.DownPath)
	if err != nil {
		return "", fmt.Errorf("failed to read migration file: %w", err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(script)); err != nil {
		return "", fmt.Errorf("failed to execute rollback SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = $1", version); err != nil {
		return "", fmt.Errorf("failed to remove migration record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	m.logger.Info("Rolled back migration: %s", version)
	return version, nil
}

// Status reports every known migration in version order
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	files, err := FindMigrationFiles(m.files)
	if err != nil {
		return nil, fmt.Errorf("failed to find migration files: %w", err)
	}

	statuses := make([]MigrationStatus, len(files))
	for i, file := range files {
		statuses[i] = MigrationStatus{MigrationFile: file, Applied: applied[file.Version]}
	}
	return statuses, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// getAppliedMigrations returns map of applied migration versions
func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// calculateChecksum computes SHA256 checksum of migration content
func calculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// FindMigrationFiles discovers NNN_name.up.sql / NNN_name.down.sql pairs
// at the root of files. A file without a direction suffix counts as up.
func FindMigrationFiles(files fs.FS) ([]MigrationFile, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, err
	}

	byVersion := make(map[string]*MigrationFile)
	for _, entry := range entries {
		base := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(base, ".sql") {
			continue
		}

		parts := strings.SplitN(strings.TrimSuffix(base, ".sql"), "_", 2)
		if len(parts) < 2 {
			continue // skip invalid filenames
		}
		version, name := parts[0], parts[1]
		down := false
		switch {
		case strings.HasSuffix(name, ".down"):
			name, down = strings.TrimSuffix(name, ".down"), true
		case strings.HasSuffix(name, ".up"):
			name = strings.TrimSuffix(name, ".up")
		}

		file, ok := byVersion[version]
		if !ok {
			file = &MigrationFile{Version: version, Name: name}
			byVersion[version] = file
		}
		if down {
			file.DownPath = path.Clean(base)
		} else {
			file.UpPath = path.Clean(base)
		}
	}

	out := make([]MigrationFile, 0, len(byVersion))
	for _, file := range byVersion {
		if file.UpPath == "" {
			return nil, fmt.Errorf("migration %s has no up script", file.Version)
		}
		out = append(out, *file)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Version < out[j].Version
	})
	return out, nil
}

// applyMigration executes a single migration file
func (m *Migrator) applyMigration(ctx context.Context, file MigrationFile) error {
	script, err := fs.ReadFile(m.files, file.UpPath)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, checksum) VALUES ($1, $2)",
		file.Version, calculateChecksum(script))
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}
