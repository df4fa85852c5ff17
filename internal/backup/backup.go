// Package backup writes point-in-time snapshots of the shopping database
// to a local directory, optionally encrypted with a passphrase, and
// restores them.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	filePrefix   = "shoplist-"
	plainSuffix  = ".db"
	sealedSuffix = ".db.enc"
	stampLayout  = "2006-01-02T150405Z"
)

// Options control where snapshots go and how many are kept.
type Options struct {
	Dir string
	// Passphrase, when set, encrypts the snapshot.
	Passphrase string
	// Keep is the number of snapshots retained after a run; 0 keeps all.
	Keep   int
	Now    func() time.Time
	Logger *slog.Logger
}

// Create snapshots db into opts.Dir and prunes old snapshots. It returns
// the path of the new file. The database stays online: VACUUM INTO reads a
// consistent view while writers continue.
func Create(ctx context.Context, db *sql.DB, opts Options) (string, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	stamp := now().UTC().Format(stampLayout)
	plain := filepath.Join(opts.Dir, filePrefix+stamp+plainSuffix)
	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, plain); err != nil {
		return "", fmt.Errorf("vacuum into: %w", err)
	}

	out := plain
	if opts.Passphrase != "" {
		data, err := os.ReadFile(plain)
		if err != nil {
			return "", fmt.Errorf("read snapshot: %w", err)
		}
		sealed, err := seal(data, opts.Passphrase)
		if err != nil {
			os.Remove(plain)
			return "", err
		}
		out = filepath.Join(opts.Dir, filePrefix+stamp+sealedSuffix)
		if err := os.WriteFile(out, sealed, 0o600); err != nil {
			os.Remove(plain)
			return "", fmt.Errorf("write encrypted snapshot: %w", err)
		}
		if err := os.Remove(plain); err != nil {
			return "", fmt.Errorf("remove plaintext snapshot: %w", err)
		}
	}
	logger.Info("backup created", "path", out)

	if opts.Keep > 0 {
		if err := prune(opts.Dir, opts.Keep, logger); err != nil {
			return out, err
		}
	}
	return out, nil
}

// List returns snapshot file names in dir, oldest first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasPrefix(n, filePrefix) {
			continue
		}
		if strings.HasSuffix(n, plainSuffix) || strings.HasSuffix(n, sealedSuffix) {
			names = append(names, n)
		}
	}
	// The timestamp layout sorts lexically.
	sort.Strings(names)
	return names, nil
}

func prune(dir string, keep int, logger *slog.Logger) error {
	names, err := List(dir)
	if err != nil {
		return err
	}
	for len(names) > keep {
		p := filepath.Join(dir, names[0])
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("prune %s: %w", p, err)
		}
		logger.Info("backup pruned", "path", p)
		names = names[1:]
	}
	return nil
}

// Restore replaces the database at dbPath with the snapshot at src. The
// caller must hold the database lock and have closed every connection.
// The snapshot is integrity-checked before anything is replaced.
func Restore(src, dbPath, passphrase string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if strings.HasSuffix(src, sealedSuffix) {
		if passphrase == "" {
			return fmt.Errorf("%s is encrypted: passphrase required", src)
		}
		if data, err = open(data, passphrase); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	tmp := dbPath + ".restore"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write restored db: %w", err)
	}
	if err := checkIntegrity(tmp); err != nil {
		os.Remove(tmp)
		return err
	}

	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")
	if err := os.Rename(tmp, dbPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace database: %w", err)
	}
	return nil
}

func checkIntegrity(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var integrity string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&integrity); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if integrity != "ok" {
		return fmt.Errorf("integrity check failed: %s", integrity)
	}
	return nil
}
