package checkpoint

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fairhaven/standbyd/internal/config"
	"github.com/fairhaven/standbyd/internal/ha"
	"github.com/fairhaven/standbyd/internal/remote"
)

// skewCommand prints the host's wall clock as a unix timestamp.
const skewCommand = "date +%s"

// Syncer implements ha.CheckpointSync: pulls run the configured sync command
// on the target host through the runner, timestamps come from the Store, and
// clock skew is measured against the peer's `date` output.
type Syncer struct {
	store   *Store
	runner  remote.Runner
	syncCmd string
	now     func() time.Time
	logger  *zap.Logger
}

// NewSyncer wires the syncer. now is injectable for tests; nil means
// time.Now.
func NewSyncer(store *Store, runner remote.Runner, cfg config.CheckpointConfig,
	now func() time.Time, logger *zap.Logger) *Syncer {

	if now == nil {
		now = time.Now
	}
	return &Syncer{
		store:   store,
		runner:  runner,
		syncCmd: cfg.SyncCommand,
		now:     now,
		logger:  logger,
	}
}

// Pull forces a checkpoint synchronization for host (empty host = local) and
// reports success. Failures are recoverable; the resolver interprets them.
func (s *Syncer) Pull(ctx context.Context, host ha.NodeID) bool {
	if _, err := s.runner.Run(ctx, string(host), s.syncCmd); err != nil {
		s.logger.Warn("checkpoint sync failed",
			zap.String("host", string(host)), zap.Error(err))
		return false
	}
	// The resolver reads timestamps straight after a pull; watcher events
	// arrive asynchronously, so drop the cached scan ourselves.
	if s.store != nil {
		s.store.forget(string(host))
	}
	return true
}

// LocalTimestamp implements ha.CheckpointSync.
func (s *Syncer) LocalTimestamp() (time.Time, error) {
	return s.store.Latest()
}

// RemoteTimestamp implements ha.CheckpointSync.
func (s *Syncer) RemoteTimestamp(host ha.NodeID) (time.Time, error) {
	return s.store.RemoteLatest(string(host))
}

// ClockSkew measures local wall clock minus host wall clock, to normalize
// the host's timestamps into local time.
func (s *Syncer) ClockSkew(ctx context.Context, host ha.NodeID) (time.Duration, error) {
	out, err := s.runner.Run(ctx, string(host), skewCommand)
	if err != nil {
		return 0, fmt.Errorf("read clock on %s: %w", host, err)
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse clock output %q from %s: %w", strings.TrimSpace(string(out)), host, err)
	}
	return s.now().Sub(time.Unix(secs, 0)), nil
}
