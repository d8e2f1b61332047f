// Package keyfile loads or creates the device master key.
//
// The key is 32 random bytes generated once per installation. It is never
// rotated or re-derived; the same key protects every stored secret for the
// lifetime of the data directory. Two sources are supported: a flat file in
// the application data directory (the default) and the OS keyring.
package keyfile

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/otpkeeper/internal/filex"
)

const (
	KeySize  = 32
	FileName = "master.key"
)

var ErrCorruptKey = errors.New("corrupt master key")

// Source yields the master key, creating it on first use.
type Source interface {
	LoadOrCreate() ([]byte, error)
}

// FileSource keeps the key as raw bytes (no header) in Dir/master.key.
type FileSource struct {
	Dir string
}

func (s FileSource) path() string {
	return filepath.Join(s.Dir, FileName)
}

// LoadOrCreate reads the key file, or generates a key and writes it to a newly
// created file when none exists. A file of any length other than KeySize is
// reported as ErrCorruptKey and left untouched.
func (s FileSource) LoadOrCreate() ([]byte, error) {
	path := s.path()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(data) != KeySize {
			return nil, fmt.Errorf("%w: %s has %d bytes, want %d", ErrCorruptKey, path, len(data), KeySize)
		}
		return data, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read master key: %w", err)
	}

	if _, err := filex.EnsureDir(s.Dir); err != nil {
		return nil, err
	}
	key, err := newKey()
	if err != nil {
		return nil, err
	}
	if err := filex.CreateExclusive(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("write master key: %w", err)
	}
	return key, nil
}

// LoadOrCreate is shorthand for FileSource{Dir: dir}.LoadOrCreate().
func LoadOrCreate(dir string) ([]byte, error) {
	return FileSource{Dir: dir}.LoadOrCreate()
}

func newKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}
	return key, nil
}

// New returns the Source selected by kind ("file" or "keyring").
func New(kind, dir string) (Source, error) {
	switch kind {
	case "", "file":
		return FileSource{Dir: dir}, nil
	case "keyring":
		return KeyringSource{Service: DefaultService, User: dir}, nil
	default:
		return nil, fmt.Errorf("unknown key source %q", kind)
	}
}
