// Package scratch manages the process-private temporary files that back
// buffered writable streams. File names come from a process-wide monotonic
// counter; creation and the bulk sweep serialize on a shared lock so a file
// handed to a caller as newly created can never be deleted by a concurrent
// sweep.
package scratch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scopedfs/scopedfs/internal/logger"
)

// scratchDirName is the fixed subdirectory under the private application
// storage root. Not part of any external contract; it may be wiped entirely
// at process start.
const scratchDirName = "scopedfs/scratch"

// ErrUnsupportedPlatform indicates no private application storage root
// could be determined on this host.
var ErrUnsupportedPlatform = errors.New("no private storage root on this platform")

// Metrics observes scratch file lifecycle events. A nil Metrics records
// nothing.
type Metrics interface {
	RecordCreate(err error)
	RecordSweep(duration time.Duration, err error)
	RecordRemove(err error)
}

// Config holds scratch storage configuration.
type Config struct {
	// Dir overrides the scratch root directory. When empty the root is
	// resolved under the user cache directory.
	Dir string
}

// File is one scratch file: a monotonic id and the path it lives at.
type File struct {
	ID   uint64
	Path string
}

// Manager creates and sweeps scratch files. The zero value is not usable;
// construct with NewManager.
type Manager struct {
	cfg     Config
	metrics Metrics

	rootOnce sync.Once
	root     string
	rootErr  error

	counter atomic.Uint64

	// lk serializes Create against SweepAll. It is held only across
	// local filesystem syscalls, never across a bridge call. Injectable
	// so tests can instrument the interleaving.
	lk sync.Locker
}

// NewManager creates a scratch manager. metrics may be nil.
func NewManager(cfg Config, metrics Metrics) *Manager {
	return &Manager{cfg: cfg, metrics: metrics, lk: &sync.Mutex{}}
}

// SetLocker replaces the create/sweep lock. Intended for tests that need
// to observe the serialization of the two operations.
func (m *Manager) SetLocker(lk sync.Locker) {
	m.lk = lk
}

// Root resolves and caches, once per process, the scratch root directory.
func (m *Manager) Root() (string, error) {
	m.rootOnce.Do(func() {
		if m.cfg.Dir != "" {
			m.root = m.cfg.Dir
			return
		}
		base, err := os.UserCacheDir()
		if err != nil {
			m.rootErr = fmt.Errorf("%w: %v", ErrUnsupportedPlatform, err)
			return
		}
		m.root = filepath.Join(base, scratchDirName)
	})
	return m.root, m.rootErr
}

// Create allocates the next scratch file and returns it together with the
// open file. The file is created exclusively; the monotonic counter makes a
// name collision practically impossible within one process lifetime, and a
// collision still fails loudly rather than reusing the file.
func (m *Manager) Create() (File, *os.File, error) {
	root, err := m.Root()
	if err != nil {
		m.recordCreate(err)
		return File{}, nil, err
	}

	id := m.counter.Add(1)
	path := filepath.Join(root, strconv.FormatUint(id, 10))

	m.lk.Lock()
	defer m.lk.Unlock()

	if err := os.MkdirAll(root, 0o700); err != nil {
		m.recordCreate(err)
		return File{}, nil, fmt.Errorf("creating scratch root: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		m.recordCreate(err)
		return File{}, nil, fmt.Errorf("creating scratch file: %w", err)
	}

	m.recordCreate(nil)
	logger.Debug("scratch file created",
		logger.KeyScratchID, id,
		logger.KeyScratchPath, path)
	return File{ID: id, Path: path}, f, nil
}

// Remove deletes a scratch file. A file that is already gone counts as
// success.
func (m *Manager) Remove(sf File) error {
	err := os.Remove(sf.Path)
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	if m.metrics != nil {
		m.metrics.RecordRemove(err)
	}
	return err
}

// SweepAll deletes the entire scratch subtree. Invoked once at process
// start to remove orphans left behind when a prior process terminated
// before its background reflects finished. A missing root is success.
func (m *Manager) SweepAll() error {
	start := time.Now()

	root, err := m.Root()
	if err != nil {
		m.recordSweep(start, err)
		return err
	}

	m.lk.Lock()
	defer m.lk.Unlock()

	err = os.RemoveAll(root)
	m.recordSweep(start, err)
	if err != nil {
		return fmt.Errorf("sweeping scratch root: %w", err)
	}

	logger.Info("scratch root swept", logger.KeyScratchRoot, root)
	return nil
}

func (m *Manager) recordCreate(err error) {
	if m.metrics != nil {
		m.metrics.RecordCreate(err)
	}
}

func (m *Manager) recordSweep(start time.Time, err error) {
	if m.metrics != nil {
		m.metrics.RecordSweep(time.Since(start), err)
	}
}
