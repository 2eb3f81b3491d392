// Package secret resolves the Bearer token that guards the HTTP JSON-RPC
// endpoint. Tokens live in the operating system keyring, with a 0600 file
// in the config directory as fallback.
package secret

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"
)

const (
	appName      = "idleload"
	keyField     = "rpc-secret"
	fileName     = "rpc.secret"
	fileMode     = 0o600
	tokenByteLen = 32
)

// ErrNotFound is returned when no token is stored anywhere.
var ErrNotFound = errors.New("rpc secret not found")

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
	randRead      = rand.Read
)

// Store reads and writes the token.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore returns a Store whose file fallback lives in dir. A nil fs
// uses the OS filesystem.
func NewStore(fsys afero.Fs, dir string) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Store{fs: fsys, dir: dir}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, fileName)
}

// Get returns the stored token, preferring the keyring.
func (s *Store) Get() (string, error) {
	if tok, err := keyringGet(appName, keyField); err == nil && tok != "" {
		return tok, nil
	}
	data, err := afero.ReadFile(s.fs, s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", ErrNotFound
	}
	return tok, nil
}

// Generate creates a new random token and stores it in the keyring, or in
// the fallback file when the keyring is unavailable.
func (s *Store) Generate() (string, error) {
	buf := make([]byte, tokenByteLen)
	if _, err := randRead(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	tok := hex.EncodeToString(buf)
	if err := keyringSet(appName, keyField, tok); err == nil {
		return tok, nil
	}
	if err := s.writeFile(tok); err != nil {
		return "", err
	}
	return tok, nil
}

// writeFile stores tok atomically with owner-only permissions.
func (s *Store) writeFile(tok string) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := afero.TempFile(s.fs, s.dir, ".rpc.secret.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(tok); err != nil {
		tmp.Close()
		s.fs.Remove(tmpPath)
		return fmt.Errorf("write token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := s.fs.Chmod(tmpPath, fileMode); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := s.fs.Rename(tmpPath, s.path()); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("rename token file: %w", err)
	}
	return nil
}

// Resolve returns the stored token, generating one on first use.
func (s *Store) Resolve() (string, error) {
	tok, err := s.Get()
	if err == nil {
		return tok, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}
	return s.Generate()
}

// Delete removes the token from the keyring and the fallback file.
func (s *Store) Delete() error {
	kerr := keyringDelete(appName, keyField)
	ferr := s.fs.Remove(s.path())
	if kerr != nil && ferr != nil {
		return ErrNotFound
	}
	return nil
}
