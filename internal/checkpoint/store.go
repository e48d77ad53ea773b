// Package checkpoint tracks the persisted snapshot artifacts the split-brain
// resolver compares, and implements the pull contract against peers.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fairhaven/standbyd/internal/config"
)

const (
	archivePrefix = "chkpt_synch."
	archiveSuffix = ".tgz"
)

// Store answers "how fresh is this node's state" from modification times:
// the newest file in the canonical checkpoint dir for the local node, the
// newest pulled chkpt_synch.<host>.*.tgz archive for a peer. Scans are
// cached and invalidated by fsnotify events on the two directories.
type Store struct {
	dir     string
	syncDir string
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	// A cache entry is only trusted for a directory the watcher actually
	// covers; an unwatched directory is re-scanned on every read, since no
	// invalidation can ever arrive for it.
	localWatched bool
	syncWatched  bool

	mu          sync.Mutex
	localCached bool
	localLatest time.Time
	remoteCache map[string]time.Time
}

// NewStore builds the store and starts watching both directories. A watch
// failure is recoverable: the affected directory falls back to scanning on
// every read.
func NewStore(cfg config.CheckpointConfig, logger *zap.Logger) *Store {
	s := &Store{
		dir:         cfg.Dir,
		syncDir:     cfg.SyncDir,
		logger:      logger,
		remoteCache: make(map[string]time.Time),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("fsnotify unavailable, checkpoint scans are uncached", zap.Error(err))
		return s
	}
	s.watcher = watcher
	s.localWatched = watchDir(watcher, cfg.Dir, logger)
	s.syncWatched = watchDir(watcher, cfg.SyncDir, logger)
	go s.watch()

	return s
}

func watchDir(watcher *fsnotify.Watcher, dir string, logger *zap.Logger) bool {
	if err := watcher.Add(dir); err != nil {
		logger.Warn("cannot watch checkpoint dir, scans for it are uncached",
			zap.String("dir", dir), zap.Error(err))
		return false
	}
	return true
}

// Close releases the directory watcher.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}

func (s *Store) watch() {
	for {
		select {
		case _, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.invalidate()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("checkpoint watcher error", zap.Error(err))
			s.invalidate()
		}
	}
}

func (s *Store) invalidate() {
	s.mu.Lock()
	s.localCached = false
	s.remoteCache = make(map[string]time.Time)
	s.mu.Unlock()
}

// Latest is the modification time of the newest local checkpoint file.
func (s *Store) Latest() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.localWatched && s.localCached {
		return s.localLatest, nil
	}

	latest, err := newestFile(s.dir, func(string) bool { return true })
	if err != nil {
		return time.Time{}, err
	}
	if s.localWatched {
		s.localCached = true
		s.localLatest = latest
	}
	return latest, nil
}

// RemoteLatest is the modification time of the newest archive pulled from
// host.
func (s *Store) RemoteLatest(host string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.syncWatched {
		if ts, ok := s.remoteCache[host]; ok {
			return ts, nil
		}
	}

	prefix := archivePrefix + host + "."
	latest, err := newestFile(s.syncDir, func(name string) bool {
		return strings.HasPrefix(name, prefix) && strings.HasSuffix(name, archiveSuffix)
	})
	if err != nil {
		return time.Time{}, err
	}
	if s.syncWatched {
		s.remoteCache[host] = latest
	}
	return latest, nil
}

// forget drops the cached scan for one node so the next read hits the
// filesystem. Empty host means the local checkpoint dir.
func (s *Store) forget(host string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if host == "" {
		s.localCached = false
		return
	}
	delete(s.remoteCache, host)
}

func newestFile(dir string, match func(name string) bool) (time.Time, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return time.Time{}, fmt.Errorf("scan %s: %w", dir, err)
	}

	var latest time.Time
	found := false
	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if !found || info.ModTime().After(latest) {
			latest = info.ModTime()
			found = true
		}
	}
	if !found {
		return time.Time{}, fmt.Errorf("no checkpoint artifact in %s", filepath.Clean(dir))
	}
	return latest, nil
}
