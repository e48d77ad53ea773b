package remote

import (
	"context"

	"go.uber.org/zap"

	"github.com/fairhaven/standbyd/internal/config"
	"github.com/fairhaven/standbyd/internal/ha"
)

// Activator starts and stops service instances by running the configured
// activate/deactivate commands through a Runner. Idempotency is the
// commands' contract: activating an already-active instance succeeds.
type Activator struct {
	runner        Runner
	activateCmd   string
	deactivateCmd string
	logger        *zap.Logger
}

// NewActivator builds the controller from config.
func NewActivator(runner Runner, cfg config.RemoteConfig, logger *zap.Logger) *Activator {
	return &Activator{
		runner:        runner,
		activateCmd:   cfg.ActivateCommand,
		deactivateCmd: cfg.DeactivateCommand,
		logger:        logger,
	}
}

// Activate implements ha.ActivationController.
func (a *Activator) Activate(ctx context.Context, host ha.NodeID) error {
	a.logger.Info("activating instance", zap.String("host", hostLabel(host)))
	_, err := a.runner.Run(ctx, string(host), a.activateCmd)
	return err
}

// Deactivate implements ha.ActivationController.
func (a *Activator) Deactivate(ctx context.Context, host ha.NodeID) error {
	a.logger.Info("deactivating instance", zap.String("host", hostLabel(host)))
	_, err := a.runner.Run(ctx, string(host), a.deactivateCmd)
	return err
}

func hostLabel(host ha.NodeID) string {
	if host == "" {
		return "local"
	}
	return string(host)
}
