package depcache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/warpdl/idleload/pkg/logger"
	"modernc.org/sqlite"
)

const corruptSuffix = ".corrupt"

const sqlSchema = `
CREATE TABLE IF NOT EXISTS features (
    name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS dependencies (
    feature TEXT NOT NULL REFERENCES features(name) ON DELETE CASCADE,
    pos     INTEGER NOT NULL,
    dep     TEXT NOT NULL,
    PRIMARY KEY (feature, pos)
);`

// SQLStore keeps the mapping in a SQLite database, one row per dependency.
type SQLStore struct {
	db   *sql.DB
	path string
}

// OpenSQLStore opens (creating if needed) the database at path. A file that
// is not a usable database is moved to path+".corrupt" and replaced by an
// empty one.
func OpenSQLStore(path string, l logger.Logger) (*SQLStore, error) {
	if l == nil {
		l = logger.NewNopLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := openSQL(path)
	if err == nil {
		return &SQLStore{db: db, path: path}, nil
	}
	if !isCorrupt(err) {
		return nil, err
	}
	l.Warning("Dependency cache %s is unusable, starting empty: %v", path, err)
	if rerr := os.Rename(path, path+corruptSuffix); rerr != nil {
		return nil, fmt.Errorf("move aside corrupt dependency cache: %w", rerr)
	}
	for _, ext := range []string{"-wal", "-shm", "-journal"} {
		os.Remove(path + ext)
	}
	if db, err = openSQL(path); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, path: path}, nil
}

// SQLite primary result codes for a damaged or foreign file.
const (
	sqliteCorrupt = 11
	sqliteNotADB  = 26
)

func isCorrupt(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqliteCorrupt, sqliteNotADB:
		return true
	}
	return false
}

func openSQL(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("open dependency cache database: %w", err)
	}
	if _, err := db.Exec(sqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create dependency cache schema: %w", err)
	}
	return db, nil
}

func (s *SQLStore) Read() (map[string][]string, error) {
	m := make(map[string][]string)
	names, err := s.db.Query(`SELECT name FROM features`)
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	for names.Next() {
		var name string
		if err := names.Scan(&name); err != nil {
			names.Close()
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		m[name] = []string{}
	}
	names.Close()
	if err := names.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT feature, dep FROM dependencies ORDER BY feature, pos`)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var feature, dep string
		if err := rows.Scan(&feature, &dep); err != nil {
			return nil, fmt.Errorf("scan dependency row: %w", err)
		}
		m[feature] = append(m[feature], dep)
	}
	return m, rows.Err()
}

func (s *SQLStore) Write(m map[string][]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM dependencies`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM features`); err != nil {
		return err
	}
	insFeature, err := tx.Prepare(`INSERT INTO features (name) VALUES (?)`)
	if err != nil {
		return err
	}
	defer insFeature.Close()
	insDep, err := tx.Prepare(`INSERT INTO dependencies (feature, pos, dep) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insDep.Close()

	names := make([]string, 0, len(m))
	for f := range m {
		names = append(names, f)
	}
	sort.Strings(names)
	for _, f := range names {
		if _, err := insFeature.Exec(f); err != nil {
			return fmt.Errorf("insert feature %q: %w", f, err)
		}
		for i, dep := range m[f] {
			if _, err := insDep.Exec(f, i, dep); err != nil {
				return fmt.Errorf("insert dependency %q of %q: %w", dep, f, err)
			}
		}
	}
	return tx.Commit()
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) String() string { return s.path }
