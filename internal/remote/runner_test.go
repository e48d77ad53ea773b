package remote

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fairhaven/standbyd/internal/config"
)

func testRemoteConfig() config.RemoteConfig {
	return config.RemoteConfig{
		User:              "standby",
		Port:              22,
		CommandTimeout:    5 * time.Second,
		ActivateCommand:   "true",
		DeactivateCommand: "true",
	}
}

func TestRunner_EmptyHostRunsLocally(t *testing.T) {
	r, err := NewRunner(testRemoteConfig(), zap.NewNop())
	require.NoError(t, err)

	out, err := r.Run(context.Background(), "", "echo standby")
	require.NoError(t, err)
	assert.Equal(t, "standby", strings.TrimSpace(string(out)))
}

func TestRunner_LocalNonZeroExitIsError(t *testing.T) {
	r, err := NewRunner(testRemoteConfig(), zap.NewNop())
	require.NoError(t, err)

	_, err = r.Run(context.Background(), "", "exit 3")
	require.Error(t, err)
}

func TestRunner_LocalCommandTimesOut(t *testing.T) {
	cfg := testRemoteConfig()
	cfg.CommandTimeout = 100 * time.Millisecond

	r, err := NewRunner(cfg, zap.NewNop())
	require.NoError(t, err)

	_, err = r.Run(context.Background(), "", "sleep 5")
	assert.Error(t, err)
}

func TestNewRunner_UnreadableKeyFails(t *testing.T) {
	cfg := testRemoteConfig()
	cfg.KeyPath = filepath.Join(t.TempDir(), "missing_key")

	_, err := NewRunner(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read ssh key")
}

func TestActivator_RunsConfiguredCommands(t *testing.T) {
	cfg := testRemoteConfig()
	cfg.ActivateCommand = "echo activate"
	cfg.DeactivateCommand = "exit 1"

	r, err := NewRunner(cfg, zap.NewNop())
	require.NoError(t, err)
	a := NewActivator(r, cfg, zap.NewNop())

	assert.NoError(t, a.Activate(context.Background(), ""))
	assert.Error(t, a.Deactivate(context.Background(), ""), "command exit status is the verdict")
}
