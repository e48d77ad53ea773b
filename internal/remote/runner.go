// Package remote executes activation, deactivation and sync commands either
// locally or on a peer over ssh, under a fixed service identity.
package remote

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/fairhaven/standbyd/internal/config"
)

// Runner runs a shell command on a host. An empty host means local
// execution. The returned bytes are the command's combined output; a
// non-zero exit status surfaces as an error.
type Runner interface {
	Run(ctx context.Context, host, command string) ([]byte, error)
}

// NewRunner builds the production runner: local exec for the empty host,
// ssh for everything else.
func NewRunner(cfg config.RemoteConfig, logger *zap.Logger) (Runner, error) {
	sshRunner, err := newSSHRunner(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &dispatchRunner{
		local:  &localRunner{timeout: cfg.CommandTimeout, logger: logger},
		remote: sshRunner,
	}, nil
}

type dispatchRunner struct {
	local  Runner
	remote Runner
}

func (r *dispatchRunner) Run(ctx context.Context, host, command string) ([]byte, error) {
	if host == "" {
		return r.local.Run(ctx, host, command)
	}
	return r.remote.Run(ctx, host, command)
}

type localRunner struct {
	timeout time.Duration
	logger  *zap.Logger
}

func (r *localRunner) Run(ctx context.Context, _, command string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Debug("running local command", zap.String("command", command))
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command) // #nosec G204 - operator-configured command
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("local command %q: %w", command, err)
	}
	return out, nil
}

// sshRunner dials the peer for every command. No host key verification,
// mirroring StrictHostKeyChecking=no on a closed management network.
type sshRunner struct {
	cfg    *ssh.ClientConfig
	port   int
	logger *zap.Logger
}

func newSSHRunner(cfg config.RemoteConfig, logger *zap.Logger) (*sshRunner, error) {
	var auth []ssh.AuthMethod
	if cfg.KeyPath != "" {
		key, err := os.ReadFile(cfg.KeyPath) // #nosec G304 - operator-supplied path
		if err != nil {
			return nil, fmt.Errorf("read ssh key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse ssh key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}

	return &sshRunner{
		cfg: &ssh.ClientConfig{
			User:            cfg.User,
			Auth:            auth,
			HostKeyCallback: ssh.InsecureIgnoreHostKey(), // #nosec G106
			Timeout:         cfg.CommandTimeout,
		},
		port:   cfg.Port,
		logger: logger,
	}, nil
}

func (r *sshRunner) Run(ctx context.Context, host, command string) ([]byte, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", r.port))
	r.logger.Debug("running remote command",
		zap.String("host", host), zap.String("command", command))

	d := net.Dialer{Timeout: r.cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	// Tear the connection down if ctx ends mid-command.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	cc, chans, reqs, err := ssh.NewClientConn(conn, addr, r.cfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	client := ssh.NewClient(cc, chans, reqs)
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("ssh session on %s: %w", addr, err)
	}
	defer func() { _ = session.Close() }()

	out, err := session.CombinedOutput(command)
	if err != nil {
		return out, fmt.Errorf("remote command %q on %s: %w", command, host, err)
	}
	return out, nil
}
