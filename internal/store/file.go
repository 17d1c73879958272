package store

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const fileExt = ".kv"

// DefaultFilePollInterval is how often a FileStore checks for peer writes.
const DefaultFilePollInterval = 100 * time.Millisecond

// FileStore persists each key as a file in a shared directory. Every
// FileStore instance is its own context, so two processes (or two instances
// in one process) pointed at the same directory see each other's writes as
// external changes.
type FileStore struct {
	dir  string
	poll *poller

	mu     sync.Mutex
	closed bool
}

var _ Store = (*FileStore)(nil)

// FileOption configures a FileStore.
type FileOption func(*fileConfig)

type fileConfig struct {
	interval time.Duration
	logger   *slog.Logger
}

// WithFilePollInterval sets how often the directory is polled for changes.
func WithFilePollInterval(d time.Duration) FileOption {
	return func(c *fileConfig) {
		c.interval = d
	}
}

// WithFileLogger sets the logger used for background poll failures.
func WithFileLogger(l *slog.Logger) FileOption {
	return func(c *fileConfig) {
		c.logger = l
	}
}

// NewFileStore opens (creating if needed) a store rooted at dir.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	cfg := fileConfig{interval: DefaultFilePollInterval}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.interval <= 0 {
		return nil, fmt.Errorf("file store poll interval must be positive, got %s", cfg.interval)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	fs := &FileStore{dir: dir}
	fs.poll = newPoller(fs.read, cfg.interval, cfg.logger)
	return fs, nil
}

// Dir returns the directory backing the store.
func (f *FileStore) Dir() string {
	return f.dir
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+fileExt)
}

func (f *FileStore) read(key string) ([]byte, bool, error) {
	b, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %q: %w", key, err)
	}
	return b, true, nil
}

// Read returns the value stored under key.
func (f *FileStore) Read(key string) ([]byte, bool, error) {
	if f.isClosed() {
		return nil, false, ErrClosed
	}
	return f.read(key)
}

// Write replaces the file for key atomically via rename.
func (f *FileStore) Write(key string, value []byte) error {
	if f.isClosed() {
		return ErrClosed
	}
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %q: %w", key, err)
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %q: %w", key, err)
	}
	f.poll.noteWrite(key, value, true)
	return nil
}

// Clear removes every key file in the directory.
func (f *FileStore) Clear() error {
	if f.isClosed() {
		return ErrClosed
	}
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	f.poll.noteClear()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("clear: %w", err)
		}
	}
	return nil
}

// OnExternalChange subscribes fn to changes of key made by other contexts.
func (f *FileStore) OnExternalChange(key string, fn ChangeHandler) func() {
	return f.poll.subscribe(key, fn)
}

// Close stops background polling. Further operations return ErrClosed.
func (f *FileStore) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.poll.close()
	return nil
}

func (f *FileStore) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
