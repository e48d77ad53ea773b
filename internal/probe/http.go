// Package probe implements the liveness check against candidate hosts.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fairhaven/standbyd/internal/config"
	"github.com/fairhaven/standbyd/internal/ha"
)

const (
	requestBody  = "ping"
	wantResponse = "pong"

	// maxResponseBytes bounds how much of a reply we read looking for the
	// affirmative token.
	maxResponseBytes = 512
)

// HTTPProbe asks the managed service's API endpoint whether it is running.
// Anything other than an affirmative reply within the timeout, including
// connection refusal and timeouts, counts as inactive.
type HTTPProbe struct {
	client *http.Client
	scheme string
	port   int
	path   string
	logger *zap.Logger
}

// New builds a probe from config.
func New(cfg config.ProbeConfig, logger *zap.Logger) *HTTPProbe {
	return &HTTPProbe{
		client: &http.Client{Timeout: cfg.Timeout},
		scheme: cfg.Scheme,
		port:   cfg.Port,
		path:   cfg.Path,
		logger: logger,
	}
}

// IsActive implements ha.LivenessProbe. Fail-closed: an unreachable node is
// reported inactive.
func (p *HTTPProbe) IsActive(ctx context.Context, host ha.NodeID) bool {
	url := fmt.Sprintf("%s://%s:%d%s", p.scheme, host, p.port, p.path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(requestBody))
	if err != nil {
		p.logger.Warn("building probe request failed",
			zap.String("host", string(host)), zap.Error(err))
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("probe failed", zap.String("host", string(host)), zap.Error(err))
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(body)), wantResponse)
}
