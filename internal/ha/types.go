package ha

import (
	"context"
	"fmt"
	"time"
)

// NodeID is a fully-qualified hostname identifying a cluster node. Equality
// is exact string match; tie-breaks use lexical ordering.
type NodeID string

// ClusterView is the static view of the cluster from the local node's
// perspective: who we are, who else might run the service, and our rank in
// the original ordered node list (0 = highest priority).
type ClusterView struct {
	Self         NodeID
	Peers        []NodeID
	SelfPriority int
}

// NewClusterView resolves the local node inside the ordered node list.
// The list order determines priority; self is removed from the peer set.
// Self appearing zero or multiple times is a fatal configuration error.
func NewClusterView(self NodeID, nodes []NodeID) (ClusterView, error) {
	view := ClusterView{Self: self, SelfPriority: -1}
	for i, n := range nodes {
		if n == self {
			if view.SelfPriority >= 0 {
				return ClusterView{}, fmt.Errorf("node %q listed more than once in node list", self)
			}
			view.SelfPriority = i
			continue
		}
		view.Peers = append(view.Peers, n)
	}
	if view.SelfPriority < 0 {
		return ClusterView{}, fmt.Errorf("node %q not present in node list", self)
	}
	return view, nil
}

// LivenessSnapshot is one node's observed activity for a single tick. It is
// never persisted; every tick rebuilds the full set from scratch.
type LivenessSnapshot struct {
	Host   NodeID    `json:"host"`
	Active bool      `json:"active"`
	At     time.Time `json:"at"`
}

// LivenessProbe answers whether the managed service is active on a host.
// Implementations must be bounded by a timeout and must normalize every
// transport failure to false.
type LivenessProbe interface {
	IsActive(ctx context.Context, host NodeID) bool
}

// CheckpointSync pulls checkpoint artifacts and exposes the timestamps the
// split-brain resolver compares. An empty host means the local node.
type CheckpointSync interface {
	// Pull fetches the host's latest checkpoint archive into local storage
	// and reports whether the fetch succeeded.
	Pull(ctx context.Context, host NodeID) bool
	// LocalTimestamp is the modification time of the newest local checkpoint.
	LocalTimestamp() (time.Time, error)
	// RemoteTimestamp is the modification time of the newest checkpoint
	// archive previously pulled from host.
	RemoteTimestamp(host NodeID) (time.Time, error)
	// ClockSkew measures local wall clock minus the host's wall clock.
	ClockSkew(ctx context.Context, host NodeID) (time.Duration, error)
}

// ActivationController starts and stops service instances. An empty host
// means the local node. Both operations are idempotent on the target.
type ActivationController interface {
	Activate(ctx context.Context, host NodeID) error
	Deactivate(ctx context.Context, host NodeID) error
}
