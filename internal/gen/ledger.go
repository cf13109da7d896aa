package gen

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/funvibe/dyncast/internal/config"
)

// Ledger records every package generation in .dyncast/ledger.db next to
// the config file. A package whose fingerprint matches its last entry is
// up to date.
type Ledger struct {
	db *sql.DB

	// path is the database file.
	path string
}

// LedgerEntry is the last generation of one package.
type LedgerEntry struct {
	PkgPath     string
	Fingerprint string
	Output      string
	Types       int
	RunID       string
	GeneratedAt time.Time
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	version    TEXT NOT NULL,
	config     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS packages (
	path         TEXT PRIMARY KEY,
	fingerprint  TEXT NOT NULL,
	output       TEXT NOT NULL,
	types        INTEGER NOT NULL,
	run_id       TEXT NOT NULL REFERENCES runs(id),
	generated_at TEXT NOT NULL
);`

// LedgerDir returns the state directory for a project directory.
func LedgerDir(projectDir string) string {
	return filepath.Join(projectDir, config.StateDirName)
}

// OpenLedger opens or creates the ledger of projectDir.
func OpenLedger(ctx context.Context, projectDir string) (*Ledger, error) {
	dir := LedgerDir(projectDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger dir: %w", err)
	}

	path := filepath.Join(dir, config.LedgerFileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, ledgerSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing ledger %s: %w", path, err)
	}
	return &Ledger{db: db, path: path}, nil
}

// Path returns the database file.
func (l *Ledger) Path() string {
	return l.path
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// BeginRun records a new run and returns its id.
func (l *Ledger) BeginRun(ctx context.Context, configPath string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, version, config) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339Nano), config.CodegenVersion, configPath)
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	return id, nil
}

// Fresh reports whether pkgPath was last generated with fingerprint.
func (l *Ledger) Fresh(ctx context.Context, pkgPath, fingerprint string) (bool, error) {
	var got string
	err := l.db.QueryRowContext(ctx,
		`SELECT fingerprint FROM packages WHERE path = ?`, pkgPath).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading ledger: %w", err)
	}
	return got == fingerprint, nil
}

// Record stores the generation of one package under runID.
func (l *Ledger) Record(ctx context.Context, runID string, e LedgerEntry) error {
	if _, err := uuid.Parse(runID); err != nil {
		return fmt.Errorf("recording %s: bad run id %q: %w", e.PkgPath, runID, err)
	}
	_, err := l.db.ExecContext(ctx, `
INSERT INTO packages (path, fingerprint, output, types, run_id, generated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
	fingerprint = excluded.fingerprint,
	output = excluded.output,
	types = excluded.types,
	run_id = excluded.run_id,
	generated_at = excluded.generated_at`,
		e.PkgPath, e.Fingerprint, e.Output, e.Types, runID,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording %s: %w", e.PkgPath, err)
	}
	return nil
}

// Entries returns the last generation of every package, ordered by path.
func (l *Ledger) Entries(ctx context.Context) ([]LedgerEntry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT path, fingerprint, output, types, run_id, generated_at FROM packages ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		var at string
		if err := rows.Scan(&e.PkgPath, &e.Fingerprint, &e.Output, &e.Types, &e.RunID, &at); err != nil {
			return nil, fmt.Errorf("reading ledger: %w", err)
		}
		e.GeneratedAt, _ = time.Parse(time.RFC3339Nano, at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Forget drops the entry of pkgPath, forcing its next generation.
func (l *Ledger) Forget(ctx context.Context, pkgPath string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM packages WHERE path = ?`, pkgPath); err != nil {
		return fmt.Errorf("forgetting %s: %w", pkgPath, err)
	}
	return nil
}

// CleanLedger removes the state directory of projectDir.
func CleanLedger(projectDir string) error {
	return os.RemoveAll(LedgerDir(projectDir))
}

// Fingerprint hashes the config, the package's sources, the resolved
// types and the codegen version. Any change to one of them makes the
// package stale. The resolved types cover supertypes whose participation
// is decided in another package.
func Fingerprint(configData []byte, pkg *PackageInfo) (string, error) {
	h := sha256.New()
	h.Write(configData)
	h.Write([]byte("\x00"))
	h.Write([]byte(pkg.PkgPath))
	for _, f := range pkg.Files {
		data, err := os.ReadFile(f)
		if err != nil {
			return "", fmt.Errorf("fingerprinting %s: %w", f, err)
		}
		h.Write([]byte("\x00"))
		h.Write([]byte(filepath.Base(f)))
		h.Write([]byte("\x00"))
		h.Write(data)
	}
	for _, t := range pkg.Types {
		fmt.Fprintf(h, "\x00type %s header=%t manual=%t", t.Key(), t.HasHeader, t.Manual)
		for _, s := range t.Supers {
			fmt.Fprintf(h, "\x00super %s %s pointer=%t", s.Key(), s.Field, s.Pointer)
		}
	}
	h.Write([]byte("\x00"))
	h.Write([]byte(config.CodegenVersion))

	return hex.EncodeToString(h.Sum(nil))[:16], nil
}
