package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/praxis-map/pkg/geocode"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// A zero ttl keeps entries forever.
func NewSQLite(dsn string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	address_hash  TEXT PRIMARY KEY,
	latitude      REAL NOT NULL DEFAULT 0,
	longitude     REAL NOT NULL DEFAULT 0,
	matched       INTEGER NOT NULL DEFAULT 0,
	status        TEXT NOT NULL DEFAULT '',
	quality       TEXT NOT NULL DEFAULT '',
	formatted     TEXT NOT NULL DEFAULT '',
	cached_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_cached_at ON geocode_cache(cached_at);
`

// Migrate creates the cache schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// cutoff returns the oldest cached_at still considered fresh, or 0 without TTL.
func (s *SQLiteStore) cutoff() int64 {
	if s.ttl <= 0 {
		return 0
	}
	return s.now().Add(-s.ttl).Unix()
}

// Get returns the cached outcome for key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*geocode.Result, bool, error) {
	var (
		r       geocode.Result
		matched int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT latitude, longitude, matched, status, quality, formatted
		 FROM geocode_cache WHERE address_hash = ? AND cached_at >= ?`,
		key, s.cutoff(),
	).Scan(&r.Latitude, &r.Longitude, &matched, &r.Status, &r.Quality, &r.Formatted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: get geocode")
	}
	r.Matched = matched != 0
	return &r, true, nil
}

// Put stores or replaces the outcome for key.
func (s *SQLiteStore) Put(ctx context.Context, key string, r *geocode.Result) error {
	matched := 0
	if r.Matched {
		matched = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO geocode_cache (address_hash, latitude, longitude, matched, status, quality, formatted, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (address_hash) DO UPDATE SET
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			matched = excluded.matched,
			status = excluded.status,
			quality = excluded.quality,
			formatted = excluded.formatted,
			cached_at = excluded.cached_at`,
		key, r.Latitude, r.Longitude, matched, r.Status, r.Quality, r.Formatted, s.now().Unix(),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: put geocode")
	}
	return nil
}

// DeleteExpired removes entries older than the TTL.
func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM geocode_cache WHERE cached_at < ?`, s.cutoff())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired geocodes")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}
