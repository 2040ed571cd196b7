// Package storage provides the filesystem collaborator used by pipelines
// and capture sessions. Production code runs against the OS filesystem;
// tests run against an in-memory afero filesystem.
package storage

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// Store is the persistence surface the rest of the module depends on.
type Store interface {
	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error

	// WriteArtifact writes content to path, creating or truncating the file.
	WriteArtifact(path string, content []byte) error

	// ReadArtifact reads the full content of path.
	ReadArtifact(path string) ([]byte, error)

	// ListDir returns the names (not paths) of the entries in a directory.
	ListDir(path string) ([]string, error)

	// AppendLine appends one line (a trailing newline is added) to path,
	// creating the file if needed.
	AppendLine(path, line string) error

	// ReadLines returns the non-empty lines of path, in order; a missing
	// file yields no lines.
	ReadLines(path string) ([]string, error)

	// LastLine returns the last non-empty line of path, or "" if the file
	// is empty or missing.
	LastLine(path string) (string, error)

	// TruncateLastLine removes the last non-empty line from path.
	TruncateLastLine(path string) error

	// Delete removes the file at path.
	Delete(path string) error

	// Exists reports whether path exists.
	Exists(path string) (bool, error)
}

// FileStore implements Store over an afero filesystem.
type FileStore struct {
	fs afero.Fs
}

// NewFileStore creates a store over the given filesystem.
func NewFileStore(fs afero.Fs) *FileStore {
	return &FileStore{fs: fs}
}

// NewOSStore creates a store over the real OS filesystem.
func NewOSStore() *FileStore {
	return &FileStore{fs: afero.NewOsFs()}
}

// Fs exposes the underlying filesystem for collaborators that need it.
func (s *FileStore) Fs() afero.Fs {
	return s.fs
}

// MkdirAll creates a directory and any missing parents.
func (s *FileStore) MkdirAll(path string) error {
	if err := s.fs.MkdirAll(path, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// WriteArtifact writes content to path, creating or truncating the file.
func (s *FileStore) WriteArtifact(path string, content []byte) error {
	if err := afero.WriteFile(s.fs, path, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadArtifact reads the full content of path.
func (s *FileStore) ReadArtifact(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// ListDir returns the names of the entries in a directory.
func (s *FileStore) ListDir(path string) ([]string, error) {
	infos, err := afero.ReadDir(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}

// AppendLine appends one line to path, creating the file if needed.
func (s *FileStore) AppendLine(path, line string) error {
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open %s for append: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return nil
}

// ReadLines returns the non-empty lines of path, in order.
func (s *FileStore) ReadLines(path string) ([]string, error) {
	return s.readLines(path)
}

// LastLine returns the last non-empty line of path, or "" for an empty or
// missing file.
func (s *FileStore) LastLine(path string) (string, error) {
	lines, err := s.readLines(path)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}
	return lines[len(lines)-1], nil
}

// TruncateLastLine removes the last non-empty line from path. A missing or
// empty file is left untouched.
func (s *FileStore) TruncateLastLine(path string) error {
	lines, err := s.readLines(path)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	lines = lines[:len(lines)-1]
	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	return s.WriteArtifact(path, []byte(content))
}

// Delete removes the file at path.
func (s *FileStore) Delete(path string) error {
	if err := s.fs.Remove(path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists.
func (s *FileStore) Exists(path string) (bool, error) {
	ok, err := afero.Exists(s.fs, path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return ok, nil
}

func (s *FileStore) readLines(path string) ([]string, error) {
	ok, err := afero.Exists(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !ok {
		return nil, nil
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	raw := strings.Split(string(data), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}
