package mediacache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"subgen/internal/fileutil"
	"subgen/internal/logging"
)

// Cache is the on-disk media cache. A nil Cache (disabled in config) is
// safe to call; every operation becomes a no-op miss.
type Cache struct {
	db       *sql.DB
	dir      string
	maxBytes int64
	logger   *slog.Logger
}

// Open initializes the cache directory and its SQLite index.
func Open(dir string, maxGiB int, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("open cache index: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	schema := `CREATE TABLE IF NOT EXISTS media (
        cid TEXT PRIMARY KEY,
        path TEXT NOT NULL,
        size_bytes INTEGER NOT NULL,
        last_used TEXT NOT NULL
    )`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Cache{
		db:       db,
		dir:      dir,
		maxBytes: int64(maxGiB) << 30,
		logger:   logging.WithComponent(logger, "mediacache"),
	}, nil
}

// Close closes the index.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Lookup returns the cached path for the CID, refreshing its recency. A
// stale index row whose file vanished is dropped and reported as a miss.
func (c *Cache) Lookup(ctx context.Context, cid string) (string, bool) {
	if c == nil {
		return "", false
	}

	var path string
	err := c.db.QueryRowContext(ctx, `SELECT path FROM media WHERE cid = ?`, cid).Scan(&path)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false
	case err != nil:
		c.logger.Warn("cache lookup failed; treating as miss", logging.String("cid", cid), logging.Error(err))
		return "", false
	}

	if _, err := os.Stat(path); err != nil {
		_, _ = c.db.ExecContext(ctx, `DELETE FROM media WHERE cid = ?`, cid)
		return "", false
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := c.db.ExecContext(ctx, `UPDATE media SET last_used = ? WHERE cid = ?`, now, cid); err != nil {
		c.logger.Warn("cache recency update failed", logging.String("cid", cid), logging.Error(err))
	}
	return path, true
}

// Store copies the file into the cache under its CID and prunes the cache
// back under the size budget.
func (c *Cache) Store(ctx context.Context, cid, sourcePath string) error {
	if c == nil {
		return nil
	}

	dest := filepath.Join(c.dir, cid+filepath.Ext(sourcePath))
	size, err := fileutil.CopyFileVerified(sourcePath, dest)
	if err != nil {
		return fmt.Errorf("copy into cache: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO media (cid, path, size_bytes, last_used) VALUES (?, ?, ?, ?)
         ON CONFLICT(cid) DO UPDATE SET path = excluded.path, size_bytes = excluded.size_bytes, last_used = excluded.last_used`,
		cid, dest, size, now,
	)
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("index cache entry: %w", err)
	}
	return c.prune(ctx)
}

// Evict removes one entry and its file.
func (c *Cache) Evict(ctx context.Context, cid string) error {
	if c == nil {
		return nil
	}
	var path string
	err := c.db.QueryRowContext(ctx, `SELECT path FROM media WHERE cid = ?`, cid).Scan(&path)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("evict lookup: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM media WHERE cid = ?`, cid); err != nil {
		return fmt.Errorf("evict index row: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("evict file: %w", err)
	}
	return nil
}

// Size returns the total bytes the index accounts for.
func (c *Cache) Size(ctx context.Context) (int64, error) {
	if c == nil {
		return 0, nil
	}
	var total sql.NullInt64
	if err := c.db.QueryRowContext(ctx, `SELECT SUM(size_bytes) FROM media`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum cache size: %w", err)
	}
	return total.Int64, nil
}

func (c *Cache) prune(ctx context.Context) error {
	if c.maxBytes <= 0 {
		return nil
	}
	total, err := c.Size(ctx)
	if err != nil {
		return err
	}
	for total > c.maxBytes {
		var cid, path string
		var size int64
		err := c.db.QueryRowContext(ctx,
			`SELECT cid, path, size_bytes FROM media ORDER BY last_used ASC LIMIT 1`,
		).Scan(&cid, &path, &size)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("prune candidate: %w", err)
		}
		if _, err := c.db.ExecContext(ctx, `DELETE FROM media WHERE cid = ?`, cid); err != nil {
			return fmt.Errorf("prune index row: %w", err)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("prune could not remove cached file",
				logging.String("cid", cid),
				logging.Error(err),
			)
		}
		total -= size
		c.logger.Debug("evicted cached media",
			logging.String("cid", cid),
			logging.Int64("size_bytes", size),
		)
	}
	return nil
}
