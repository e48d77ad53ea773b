package ha

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeSync scripts every CheckpointSync answer.
type fakeSync struct {
	pullPeerOK bool
	pullSelfOK bool

	skew    time.Duration
	skewErr error

	localTS   time.Time
	localErr  error
	remoteTS  time.Time
	remoteErr error
}

func (f *fakeSync) Pull(_ context.Context, host NodeID) bool {
	if host == "" {
		return f.pullSelfOK
	}
	return f.pullPeerOK
}

func (f *fakeSync) LocalTimestamp() (time.Time, error) { return f.localTS, f.localErr }

func (f *fakeSync) RemoteTimestamp(NodeID) (time.Time, error) { return f.remoteTS, f.remoteErr }

func (f *fakeSync) ClockSkew(context.Context, NodeID) (time.Duration, error) {
	return f.skew, f.skewErr
}

func healthySync(local, remote time.Time, skew time.Duration) *fakeSync {
	return &fakeSync{
		pullPeerOK: true,
		pullSelfOK: true,
		localTS:    local,
		remoteTS:   remote,
		skew:       skew,
	}
}

var baseTS = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func TestResolver_PeerPullFailureKeepsLocal(t *testing.T) {
	sync := healthySync(baseTS, baseTS.Add(time.Hour), 0)
	sync.pullPeerOK = false

	r := NewResolver("beta.example.net", sync, zap.NewNop())
	assert.False(t, r.ShouldPeerBeActive(context.Background(), "alpha.example.net"),
		"unreachable peer checkpoints mean the peer is not authoritative")
}

func TestResolver_SelfSyncFailureYieldsToPeer(t *testing.T) {
	sync := healthySync(baseTS.Add(time.Hour), baseTS, 0)
	sync.pullSelfOK = false

	r := NewResolver("beta.example.net", sync, zap.NewNop())
	assert.True(t, r.ShouldPeerBeActive(context.Background(), "alpha.example.net"),
		"a node that cannot re-sync its own checkpoint must assume it is stale")
}

func TestResolver_NewerRemoteCheckpointWins(t *testing.T) {
	r := NewResolver("beta.example.net",
		healthySync(baseTS, baseTS.Add(time.Second), 0), zap.NewNop())
	assert.True(t, r.ShouldPeerBeActive(context.Background(), "alpha.example.net"))
}

func TestResolver_NewerLocalCheckpointWins(t *testing.T) {
	r := NewResolver("beta.example.net",
		healthySync(baseTS.Add(time.Second), baseTS, 0), zap.NewNop())
	assert.False(t, r.ShouldPeerBeActive(context.Background(), "alpha.example.net"))
}

func TestResolver_SkewNormalizesRemoteTimestamp(t *testing.T) {
	// Remote clock runs 40s behind local. Its checkpoint looks 30s older
	// than ours but is actually 10s newer once corrected.
	r := NewResolver("beta.example.net",
		healthySync(baseTS, baseTS.Add(-30*time.Second), 40*time.Second), zap.NewNop())
	assert.True(t, r.ShouldPeerBeActive(context.Background(), "alpha.example.net"))
}

func TestResolver_EqualTimestampsTieBreakLexically(t *testing.T) {
	sync := healthySync(baseTS, baseTS, 0)

	r := NewResolver("beta.example.net", sync, zap.NewNop())
	assert.True(t, r.ShouldPeerBeActive(context.Background(), "alpha.example.net"),
		"lexically smaller peer wins the tie")
	assert.False(t, r.ShouldPeerBeActive(context.Background(), "gamma.example.net"),
		"lexically larger peer loses the tie")
}

func TestResolver_RetrievalFailuresDefaultToStayingActive(t *testing.T) {
	cases := map[string]func(*fakeSync){
		"skew":             func(f *fakeSync) { f.skewErr = errors.New("ssh: connect refused") },
		"remote timestamp": func(f *fakeSync) { f.remoteErr = errors.New("no archive") },
		"local timestamp":  func(f *fakeSync) { f.localErr = errors.New("no checkpoint") },
	}

	for name, breakIt := range cases {
		t.Run(name, func(t *testing.T) {
			sync := healthySync(baseTS, baseTS.Add(time.Hour), 0)
			breakIt(sync)

			r := NewResolver("beta.example.net", sync, zap.NewNop())
			assert.False(t, r.ShouldPeerBeActive(context.Background(), "alpha.example.net"))
		})
	}
}

// TestResolver_AntiSymmetry verifies that, evaluated independently from both
// sides of a split with consistent observations, exactly one node yields.
func TestResolver_AntiSymmetry(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	hostGen := gen.RegexMatch(`[a-z][a-z0-9-]{1,12}\.example\.net`)

	properties.Property("exactly one side yields", prop.ForAll(
		func(hostA, hostB string, offsetA, offsetB int64) bool {
			if hostA == hostB {
				return true
			}
			tsA := baseTS.Add(time.Duration(offsetA) * time.Second)
			tsB := baseTS.Add(time.Duration(offsetB) * time.Second)

			// A sees its own checkpoint as local and B's as remote; B sees
			// the mirror image. Clocks agree.
			onA := NewResolver(NodeID(hostA), healthySync(tsA, tsB, 0), zap.NewNop())
			onB := NewResolver(NodeID(hostB), healthySync(tsB, tsA, 0), zap.NewNop())

			aYields := onA.ShouldPeerBeActive(context.Background(), NodeID(hostB))
			bYields := onB.ShouldPeerBeActive(context.Background(), NodeID(hostA))
			return aYields != bYields
		},
		hostGen,
		hostGen,
		gen.Int64Range(-3600, 3600),
		gen.Int64Range(-3600, 3600),
	))

	properties.TestingRun(t)
}
