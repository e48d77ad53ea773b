package ha

import (
	"context"

	"go.uber.org/zap"
)

// SplitBrainResolver decides which of two simultaneously active instances
// must yield.
type SplitBrainResolver interface {
	// ShouldPeerBeActive reports whether host should remain active instead
	// of the local node. Invoked only when both were observed active in the
	// same tick. The caller performs the deactivation; the resolver only
	// picks the target.
	ShouldPeerBeActive(ctx context.Context, host NodeID) bool
}

// Resolver settles split-brain by comparing checkpoint freshness. The node
// with the staler persisted state yields; clock skew is measured and applied
// so the comparison is in local time, and equal timestamps fall back to
// lexical hostname order so exactly one side yields.
type Resolver struct {
	self   NodeID
	sync   CheckpointSync
	logger *zap.Logger
}

// NewResolver creates a resolver deciding on behalf of self.
func NewResolver(self NodeID, sync CheckpointSync, logger *zap.Logger) *Resolver {
	return &Resolver{self: self, sync: sync, logger: logger}
}

// ShouldPeerBeActive implements SplitBrainResolver.
//
// A failed pull of the peer's checkpoint means the peer is not authoritative
// and the local node wins. A failed re-sync of our own checkpoint means our
// state is suspect and the peer wins. Any failure after that defaults to
// keeping the local node active.
func (r *Resolver) ShouldPeerBeActive(ctx context.Context, host NodeID) bool {
	splitBrainTotal.Inc()

	if !r.sync.Pull(ctx, host) {
		r.logger.Warn("checkpoint pull from peer failed, keeping local instance",
			zap.String("peer", string(host)))
		return false
	}
	if !r.sync.Pull(ctx, "") {
		r.logger.Warn("local checkpoint re-sync failed, yielding to peer",
			zap.String("peer", string(host)))
		return true
	}

	skew, err := r.sync.ClockSkew(ctx, host)
	if err != nil {
		r.logger.Warn("clock skew measurement failed, keeping local instance",
			zap.String("peer", string(host)), zap.Error(err))
		return false
	}
	remoteTS, err := r.sync.RemoteTimestamp(host)
	if err != nil {
		r.logger.Warn("remote checkpoint timestamp unavailable, keeping local instance",
			zap.String("peer", string(host)), zap.Error(err))
		return false
	}
	localTS, err := r.sync.LocalTimestamp()
	if err != nil {
		r.logger.Warn("local checkpoint timestamp unavailable, keeping local instance",
			zap.Error(err))
		return false
	}

	adjusted := remoteTS.Add(skew)
	r.logger.Debug("comparing checkpoint timestamps",
		zap.String("peer", string(host)),
		zap.Time("local", localTS),
		zap.Time("remote_adjusted", adjusted),
		zap.Duration("skew", skew))

	if adjusted.After(localTS) {
		return true
	}
	// Equal timestamps: lexically smaller hostname wins, so the decision is
	// the same from both sides of the split.
	return adjusted.Equal(localTS) && host < r.self
}
