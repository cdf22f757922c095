package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

const (
	profilesDir = "profiles"
	kvDir       = "kv"
	fileExt     = ".yaml"
)

// FileStore keeps one YAML file per profile and per key under a data
// directory:
//
//	<dir>/profiles/<id>.yaml
//	<dir>/kv/<key>.yaml
//
// Writes are atomic: a crash mid-write leaves the previous file intact.
type FileStore struct {
	dir string
	log *logger.Logger
	mu  sync.Mutex // serialises writers

	written map[string][]byte // last content Save wrote per key, guarded by mu
}

// NewFileStore opens (creating if needed) a store rooted at dir.
func NewFileStore(dir string, log *logger.Logger) (*FileStore, error) {
	for _, sub := range []string{profilesDir, kvDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("ensure dir %s: %w", sub, err)
		}
	}
	log.Debug("file store at %s", dir)
	return &FileStore{dir: dir, log: log, written: make(map[string][]byte)}, nil
}

// Dir returns the root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// KVDir returns the directory holding keyed documents.
func (s *FileStore) KVDir() string {
	return filepath.Join(s.dir, kvDir)
}

// List reads every profile file. Unreadable files are skipped with a warning.
func (s *FileStore) List(ctx context.Context) ([]*domain.Profile, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, profilesDir))
	if err != nil {
		return nil, fmt.Errorf("reading profiles dir: %w", err)
	}

	var out []*domain.Profile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != fileExt {
			continue
		}
		p, err := s.readProfile(filepath.Join(s.dir, profilesDir, name))
		if err != nil {
			s.log.Warn("skipping profile file %s: %v", name, err)
			continue
		}
		out = append(out, p)
	}
	s.log.Debug("listing profiles, count=%d", len(out))
	return out, nil
}

// Get reads one profile.
func (s *FileStore) Get(ctx context.Context, id string) (*domain.Profile, error) {
	path, err := s.path(profilesDir, id)
	if err != nil {
		return nil, err
	}
	p, err := s.readProfile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

// Put writes a profile, overwriting any previous version.
func (s *FileStore) Put(ctx context.Context, profile *domain.Profile) error {
	if profile == nil {
		return fmt.Errorf("%w: nil profile", domain.ErrInvalidProfile)
	}
	path, err := s.path(profilesDir, profile.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := atomicWrite(path, toRecord(profile)); err != nil {
		return fmt.Errorf("writing profile %s: %w", profile.ID, err)
	}
	s.log.Debug("saved profile %s (%s)", profile.ID, profile.Name)
	return nil
}

// Delete removes a profile file and its backup.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	path, err := s.path(profilesDir, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("deleting profile %s: %w", id, err)
	}
	_ = os.Remove(path + ".bak")
	s.log.Debug("deleted profile %s", id)
	return nil
}

// Clear removes every profile file.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.dir, profilesDir)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing profiles: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir %s: %w", profilesDir, err)
	}
	s.log.Debug("cleared profiles")
	return nil
}

// Load decodes the document stored under key into out.
func (s *FileStore) Load(ctx context.Context, key string, out any) error {
	path, err := s.path(kvDir, key)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// Save writes value under key.
func (s *FileStore) Save(ctx context.Context, key string, value any) error {
	path, err := s.path(kvDir, key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := atomicWrite(path, value)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	s.written[key] = content
	return nil
}

// Remove deletes the document under key.
func (s *FileStore) Remove(ctx context.Context, key string) error {
	path, err := s.path(kvDir, key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	_ = os.Remove(path + ".bak")
	delete(s.written, key)
	return nil
}

// ExternalChange reports whether the document under key differs from what
// this store last saved there. A missing or unreadable file counts as no
// change.
func (s *FileStore) ExternalChange(key string) bool {
	path, err := s.path(kvDir, key)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	last, ok := s.written[key]
	return !ok || !bytes.Equal(raw, last)
}

// WatchKV is Watch over the keyed documents, skipping events caused by this
// store's own writes.
func (s *FileStore) WatchKV(ctx context.Context, fn func(key string)) error {
	return Watch(ctx, s.KVDir(), s.log, func(key string) {
		if !s.ExternalChange(key) {
			s.log.Debug("ignoring own write to %s", key)
			return
		}
		fn(key)
	})
}

func (s *FileStore) readProfile(path string) (*domain.Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec profileRecord
	if err := yaml.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return fromRecord(rec), nil
}

// path maps a key to its file, rejecting anything that would escape sub.
func (s *FileStore) path(sub, key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("%w: bad key %q", domain.ErrInvalidProfile, key)
	}
	return filepath.Join(s.dir, sub, key+fileExt), nil
}

// atomicWrite marshals data to YAML and replaces path with it: temp file,
// fsync, re-read validation, .bak of the old file, rename. It returns the
// bytes now at path.
func atomicWrite(path string, data any) ([]byte, error) {
	content, err := yaml.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("yaml marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".vibetimer-tmp-*"+fileExt)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	written, err := os.ReadFile(tmpName)
	if err != nil {
		return nil, fmt.Errorf("read temp file for validation: %w", err)
	}
	var v any
	if err := yaml.Unmarshal(written, &v); err != nil {
		return nil, fmt.Errorf("yaml validation failed: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".bak"); err != nil {
			return nil, fmt.Errorf("create backup: %w", err)
		}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return nil, fmt.Errorf("atomic rename: %w", err)
	}
	return written, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
