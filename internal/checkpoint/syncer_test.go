package checkpoint

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fairhaven/standbyd/internal/config"
)

// fakeRunner records commands and returns scripted output per host.
type fakeRunner struct {
	output map[string][]byte
	err    map[string]error
	ran    []string
}

func (f *fakeRunner) Run(_ context.Context, host, command string) ([]byte, error) {
	f.ran = append(f.ran, host+":"+command)
	if err := f.err[host]; err != nil {
		return nil, err
	}
	return f.output[host], nil
}

func newTestSyncer(runner *fakeRunner, now time.Time) *Syncer {
	cfg := config.CheckpointConfig{SyncCommand: "/usr/bin/standbyd-synch"}
	return NewSyncer(nil, runner, cfg, func() time.Time { return now }, zap.NewNop())
}

func TestSyncer_PullRunsSyncCommandOnTarget(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestSyncer(runner, time.Now())

	assert.True(t, s.Pull(context.Background(), "alpha.example.net"))
	assert.True(t, s.Pull(context.Background(), ""))
	require.Equal(t, []string{
		"alpha.example.net:/usr/bin/standbyd-synch",
		":/usr/bin/standbyd-synch",
	}, runner.ran)
}

func TestSyncer_PullFailureIsRecoverable(t *testing.T) {
	runner := &fakeRunner{err: map[string]error{
		"alpha.example.net": errors.New("ssh: no route to host"),
	}}
	s := newTestSyncer(runner, time.Now())

	assert.False(t, s.Pull(context.Background(), "alpha.example.net"))
}

func TestSyncer_PullRefreshesCachedRemoteTimestamp(t *testing.T) {
	syncDir := t.TempDir()
	store := NewStore(config.CheckpointConfig{Dir: t.TempDir(), SyncDir: syncDir}, zap.NewNop())
	t.Cleanup(func() { _ = store.Close() })

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeFileAt(t, filepath.Join(syncDir, "chkpt_synch.alpha.example.net.1.tgz"), base)

	first, err := store.RemoteLatest("alpha.example.net")
	require.NoError(t, err)
	require.True(t, first.Equal(base))

	// Stop watcher delivery: only Pull's own invalidation can refresh the
	// cached entry now, which is exactly the resolver's read-after-pull
	// ordering.
	require.NoError(t, store.Close())
	writeFileAt(t, filepath.Join(syncDir, "chkpt_synch.alpha.example.net.2.tgz"), base.Add(time.Minute))

	s := NewSyncer(store, &fakeRunner{},
		config.CheckpointConfig{SyncCommand: "/usr/bin/standbyd-synch"}, nil, zap.NewNop())
	require.True(t, s.Pull(context.Background(), "alpha.example.net"))

	latest, err := store.RemoteLatest("alpha.example.net")
	require.NoError(t, err)
	assert.True(t, latest.Equal(base.Add(time.Minute)),
		"pulled archive must be visible to the very next timestamp read; got %v", latest)
}

func TestSyncer_ClockSkewFromRemoteClock(t *testing.T) {
	remoteNow := time.Unix(1774500000, 0)
	localNow := remoteNow.Add(40 * time.Second)

	runner := &fakeRunner{output: map[string][]byte{
		"alpha.example.net": []byte("1774500000\n"),
	}}
	s := newTestSyncer(runner, localNow)

	skew, err := s.ClockSkew(context.Background(), "alpha.example.net")
	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, skew, "skew is local minus remote")
}

func TestSyncer_ClockSkewGarbageOutputFails(t *testing.T) {
	runner := &fakeRunner{output: map[string][]byte{
		"alpha.example.net": []byte("bash: date: command not found"),
	}}
	s := newTestSyncer(runner, time.Now())

	_, err := s.ClockSkew(context.Background(), "alpha.example.net")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse clock output")
}

func TestSyncer_ClockSkewCommandFailureFails(t *testing.T) {
	runner := &fakeRunner{err: map[string]error{
		"alpha.example.net": errors.New("connection reset"),
	}}
	s := newTestSyncer(runner, time.Now())

	_, err := s.ClockSkew(context.Background(), "alpha.example.net")
	assert.Error(t, err)
}
