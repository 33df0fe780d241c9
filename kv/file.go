package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"shortcut-panel/logging"
)

const (
	writeRetries    = 3
	writeRetryDelay = 50 * time.Millisecond
)

// FileStore keeps every key in a single JSON document. Each Set rewrites the
// whole document through a temp file and rename.
type FileStore struct {
	mu       sync.RWMutex
	fs       afero.Fs
	filePath string
	doc      map[string]json.RawMessage
	written  []byte
}

// NewFileStore loads filePath from the OS filesystem, or starts empty if the
// file does not exist.
func NewFileStore(filePath string) (*FileStore, error) {
	return NewFileStoreFs(afero.NewOsFs(), filePath)
}

// NewFileStoreFs is NewFileStore over an arbitrary afero filesystem.
// Returns an error only on unexpected I/O failures; a malformed document is
// logged and treated as empty.
func NewFileStoreFs(fsys afero.Fs, filePath string) (*FileStore, error) {
	s := &FileStore{fs: fsys, filePath: filePath, doc: make(map[string]json.RawMessage)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := afero.ReadFile(s.fs, s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	doc := make(map[string]json.RawMessage)
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			logging.Warn().Err(err).Str("path", s.filePath).Msg("store file is malformed, starting empty")
			doc = make(map[string]json.RawMessage)
		}
	}
	s.doc = doc
	s.written = data
	return nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.filePath
}

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.doc[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set replaces key and rewrites the document. The in-memory value is only
// updated once the write succeeded.
func (s *FileStore) Set(key string, value []byte) error {
	if !json.Valid(value) {
		return errors.New("kv: value is not valid JSON")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]json.RawMessage, len(s.doc)+1)
	for k, v := range s.doc {
		next[k] = v
	}
	next[key] = append(json.RawMessage(nil), value...)

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	op := func() error { return s.writeAtomic(data) }
	if err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewConstantBackOff(writeRetryDelay), writeRetries)); err != nil {
		return err
	}
	s.doc = next
	s.written = data
	return nil
}

// writeAtomic writes to a temp file then renames it over filePath.
// Caller must hold s.mu.
func (s *FileStore) writeAtomic(data []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return err
	}
	tmp := s.filePath + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return err
	}
	if err := s.fs.Rename(tmp, s.filePath); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	return nil
}

// Watch reloads the document whenever another process rewrites the file and
// calls onChange with the keys whose values differ. It blocks until ctx is
// done. Only OS-backed stores can be watched.
func (s *FileStore) Watch(ctx context.Context, onChange func(keys []string)) error {
	if _, ok := s.fs.(*afero.OsFs); !ok {
		return ErrWatchUnsupported
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: rename-over replaces the inode, which drops a
	// watch placed on the file itself.
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		return err
	}

	target := filepath.Clean(s.filePath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if keys := s.reload(); len(keys) > 0 {
				onChange(keys)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.Error().Err(err).Str("path", s.filePath).Msg("store watcher error")
		}
	}
}

// reload re-reads the file and returns the changed keys. Writes made by this
// store are recognised by content and ignored. The read happens under s.mu so
// it can never observe a document older than s.written.
func (s *FileStore) reload() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, s.filePath)
	if err != nil {
		return nil
	}
	if bytes.Equal(data, s.written) {
		return nil
	}
	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &doc); err != nil {
		logging.Warn().Err(err).Str("path", s.filePath).Msg("ignoring malformed store update")
		return nil
	}

	var changed []string
	for k, v := range doc {
		if old, ok := s.doc[k]; !ok || !bytes.Equal(old, v) {
			changed = append(changed, k)
		}
	}
	for k := range s.doc {
		if _, ok := doc[k]; !ok {
			changed = append(changed, k)
		}
	}
	s.doc = doc
	s.written = data
	return changed
}

var _ Store = (*FileStore)(nil)
