package depcache

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/warpdl/idleload/pkg/logger"
)

// Store persists the whole dependency mapping as one value. Read returns an
// error matching fs.ErrNotExist when nothing has been stored yet.
type Store interface {
	Read() (map[string][]string, error)
	Write(m map[string][]string) error
	Close() error
	String() string
}

// cacheFile is the on-disk JSON document.
type cacheFile struct {
	Version  int                 `json:"version"`
	Features map[string][]string `json:"features"`
}

const cacheFileVersion = 1

// FileStore keeps the mapping in a JSON file. Writes go to a temporary file
// in the same directory which is then renamed over the target.
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore returns a FileStore for path on fsys. A nil fsys means the
// host filesystem.
func NewFileStore(fsys afero.Fs, path string) *FileStore {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &FileStore{fs: fsys, path: path}
}

func (s *FileStore) Read() (map[string][]string, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, err
	}
	var doc cacheFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if doc.Version != cacheFileVersion {
		return nil, fmt.Errorf("%s: unsupported cache version %d", s.path, doc.Version)
	}
	if doc.Features == nil {
		doc.Features = map[string][]string{}
	}
	return doc.Features, nil
}

func (s *FileStore) Write(m map[string][]string) error {
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cacheFile{Version: cacheFileVersion, Features: m}, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return err
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		s.fs.Remove(tmpName)
		return err
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) String() string { return s.path }

// OpenStore picks a backend from the path's extension: *.db, *.sqlite and
// *.sqlite3 use SQLite, anything else a JSON FileStore.
func OpenStore(path string, l logger.Logger) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLStore(path, l)
	}
	return NewFileStore(nil, path), nil
}
