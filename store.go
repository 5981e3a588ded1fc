package staticpress

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// BuildCache records per-document content hashes between builds so an
// incremental build can skip rendering documents that have not changed.
// It is keyed by a site-wide generation hash: any change to _config.yml or
// the layouts directory invalidates every entry.
type BuildCache struct {
	db *sql.DB
}

// OpenBuildCache opens (or creates) the cache database at path, ensures the
// parent directory exists, and runs schema migrations.
func OpenBuildCache(path string) (*BuildCache, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent read/write access and set a busy
	// timeout so writers wait instead of returning SQLITE_BUSY immediately.
	// synchronous=NORMAL is safe with WAL and avoids an fsync per
	// transaction; the cache is rebuildable, so durability is not critical.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	c := &BuildCache{db: db}
	if err := c.ensureSchema(); err != nil {
		return nil, err
	}
	return c, nil
}

// Close closes the underlying database connection.
func (c *BuildCache) Close() error {
	return c.db.Close()
}

func (c *BuildCache) ensureSchema() error {
	_, err := c.db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
    source TEXT PRIMARY KEY,
    hash TEXT NOT NULL,
    output TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`)
	return err
}

// Generation returns the stored site generation hash, empty when the cache
// is fresh.
func (c *BuildCache) Generation() (string, error) {
	var gen string
	err := c.db.QueryRow(`SELECT value FROM meta WHERE key = 'generation'`).Scan(&gen)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return gen, nil
}

// SetGeneration stores gen; when it differs from the previous value every
// document entry is dropped, forcing a full rebuild.
func (c *BuildCache) SetGeneration(gen string) error {
	prev, err := c.Generation()
	if err != nil {
		return err
	}
	if prev != gen {
		if _, err := c.db.Exec(`DELETE FROM documents`); err != nil {
			return err
		}
	}
	_, err = c.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('generation', ?)`, gen)
	return err
}

// Lookup returns the recorded hash and output path for source; ok is false
// when the document has never been cached.
func (c *BuildCache) Lookup(source string) (hash, output string, ok bool, err error) {
	err = c.db.QueryRow(`SELECT hash, output FROM documents WHERE source = ?`, source).Scan(&hash, &output)
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return hash, output, true, nil
}

// Record upserts the cache entry for one rendered document.
func (c *BuildCache) Record(source, hash, output string) error {
	_, err := c.db.Exec(`INSERT OR REPLACE INTO documents (source, hash, output) VALUES (?, ?, ?)`,
		source, hash, output)
	return err
}

// Forget removes sources that no longer exist so deleted documents do not
// linger in the cache.
func (c *BuildCache) Forget(sources []string) error {
	for _, s := range sources {
		if _, err := c.db.Exec(`DELETE FROM documents WHERE source = ?`, s); err != nil {
			return err
		}
	}
	return nil
}

// Sources lists every cached source path in lexical order.
func (c *BuildCache) Sources() ([]string, error) {
	rows, err := c.db.Query(`SELECT source FROM documents ORDER BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// HashBytes returns the hex SHA-256 of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// GenerationHash hashes the configuration file and every layout file into a
// single site generation value. Layout files are folded in sorted order so
// the hash is stable across directory listings.
func GenerationHash(configPath, layoutsDir string) (string, error) {
	h := sha256.New()

	cfg, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	h.Write(cfg)

	entries, err := os.ReadDir(layoutsDir)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".html") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(layoutsDir, name))
		if err != nil {
			return "", err
		}
		h.Write([]byte(name))
		h.Write(raw)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
