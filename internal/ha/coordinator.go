package ha

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CoordinatorConfig carries the timing knobs of the main loop.
type CoordinatorConfig struct {
	// Heartbeat is the normal interval between ticks.
	Heartbeat time.Duration
	// PriorityWaitUnit is multiplied by the node's priority to form the
	// backoff before a lower-ranked node self-promotes.
	PriorityWaitUnit time.Duration
	// Holdback marks a dedicated standby that never self-promotes.
	Holdback bool
}

// Coordinator runs the poll-decide-act loop: every tick it probes all nodes,
// resolves any split-brain it finds, and promotes the local node when nobody
// is active and it is this node's turn.
type Coordinator struct {
	view      ClusterView
	probe     LivenessProbe
	resolver  SplitBrainResolver
	activator ActivationController
	sched     *Scheduler
	clock     Clock
	logger    *zap.Logger
	cfg       CoordinatorConfig

	mu          sync.RWMutex
	subscribers []func(Event)
	lastView    []LivenessSnapshot
	lastTick    time.Time
	lastState   State

	eventChan chan Event
	stopChan  chan struct{}
}

// NewCoordinator wires the coordinator. Zero timing values fall back to the
// 5s defaults.
func NewCoordinator(view ClusterView, probe LivenessProbe, resolver SplitBrainResolver,
	activator ActivationController, cfg CoordinatorConfig, clock Clock, logger *zap.Logger) *Coordinator {

	if cfg.Heartbeat == 0 {
		cfg.Heartbeat = 5 * time.Second
	}
	if cfg.PriorityWaitUnit == 0 {
		cfg.PriorityWaitUnit = 5 * time.Second
	}

	c := &Coordinator{
		view:      view,
		probe:     probe,
		resolver:  resolver,
		activator: activator,
		sched:     NewScheduler(view.SelfPriority, cfg.Heartbeat, cfg.PriorityWaitUnit, cfg.Holdback),
		clock:     clock,
		logger:    logger,
		cfg:       cfg,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}

	go c.eventDispatcher()

	return c
}

// Run executes the loop until ctx is cancelled. Cancellation does not
// deactivate the managed service; stopping the watchdog is not a demotion.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Info("coordinator started",
		zap.String("self", string(c.view.Self)),
		zap.Int("priority", c.view.SelfPriority),
		zap.Int("peers", len(c.view.Peers)),
		zap.Bool("holdback", c.cfg.Holdback))

	for {
		if err := c.clock.Sleep(ctx, c.sched.NextWait()); err != nil {
			return err
		}
		c.tick(ctx)
	}
}

// Stop shuts down the event dispatcher.
func (c *Coordinator) Stop() {
	close(c.stopChan)
}

// tick runs a single poll-decide-act cycle.
func (c *Coordinator) tick(ctx context.Context) {
	ticksTotal.Inc()
	now := c.clock.Now()

	selfActive := c.probe.IsActive(ctx, c.view.Self)
	snaps := make([]LivenessSnapshot, 0, len(c.view.Peers)+1)
	snaps = append(snaps, LivenessSnapshot{Host: c.view.Self, Active: selfActive, At: now})
	for _, peer := range c.view.Peers {
		snaps = append(snaps, LivenessSnapshot{Host: peer, Active: c.probe.IsActive(ctx, peer), At: now})
	}

	observed := 0
	for _, s := range snaps {
		if s.Active {
			observed++
		}
	}
	activeInstances.Set(float64(observed))

	// The full view is in hand before anything mutates; a tick never acts on
	// a partial poll. anyActive tracks self as observed and peers as they
	// stand after conflict resolution.
	anyActive := selfActive
	for i := 1; i < len(snaps); i++ {
		peer := &snaps[i]
		if !peer.Active {
			continue
		}
		if selfActive {
			c.logger.Warn("split brain detected",
				zap.String("self", string(c.view.Self)),
				zap.String("peer", string(peer.Host)))
			c.emitEvent(newEvent(EventSplitBrainDetected, peer.Host, now, "two active instances observed"))

			if c.resolver.ShouldPeerBeActive(ctx, peer.Host) {
				c.demote(ctx, "", now)
				selfActive = false
				snaps[0].Active = false
			} else {
				c.demote(ctx, peer.Host, now)
				peer.Active = false
			}
		}
		anyActive = anyActive || peer.Active
	}

	if c.sched.Evaluate(anyActive) == ActionPromote {
		c.promote(ctx, now)
	} else if !anyActive {
		if c.cfg.Holdback {
			c.logger.Info("no active instance, holdback node stays passive")
		} else {
			c.logger.Info("no active instance, waiting for higher-priority node",
				zap.Duration("backoff", c.sched.NextWait()))
		}
	}

	c.mu.Lock()
	c.lastView = snaps
	c.lastTick = now
	c.lastState = c.sched.State()
	c.mu.Unlock()
}

func (c *Coordinator) promote(ctx context.Context, now time.Time) {
	c.logger.Info("no active instance found, promoting local node",
		zap.Int("priority", c.view.SelfPriority))
	if err := c.activator.Activate(ctx, ""); err != nil {
		actionFailuresTotal.WithLabelValues("activate").Inc()
		c.emitEvent(newEvent(EventActionFailed, c.view.Self, now, "activate failed: "+err.Error()))
		c.logger.Error("activation failed", zap.Error(err))
		return
	}
	promotionsTotal.Inc()
	c.emitEvent(newEvent(EventPromoted, c.view.Self, now, "local instance activated"))
}

// demote issues a deactivation picked by the resolver. The target is treated
// as inactive for the rest of the tick even if the command fails; the next
// tick re-evaluates from scratch.
func (c *Coordinator) demote(ctx context.Context, host NodeID, now time.Time) {
	target, evt, evtHost := "peer", EventPeerDemoted, host
	if host == "" {
		target, evt, evtHost = "self", EventSelfDemoted, c.view.Self
	}
	demotionsTotal.WithLabelValues(target).Inc()

	if err := c.activator.Deactivate(ctx, host); err != nil {
		actionFailuresTotal.WithLabelValues("deactivate").Inc()
		c.emitEvent(newEvent(EventActionFailed, evtHost, now, "deactivate failed: "+err.Error()))
		c.logger.Error("deactivation failed",
			zap.String("target", string(evtHost)), zap.Error(err))
		return
	}
	c.emitEvent(newEvent(evt, evtHost, now, "instance deactivated"))
}

// Status is a point-in-time summary of the coordinator for the admin API.
type Status struct {
	Self     NodeID             `json:"self"`
	Peers    []NodeID           `json:"peers"`
	Priority int                `json:"priority"`
	State    string             `json:"state"`
	Holdback bool               `json:"holdback"`
	LastTick time.Time          `json:"last_tick"`
	View     []LivenessSnapshot `json:"view"`
}

// Status returns a copy of the coordinator's last observed state.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	view := make([]LivenessSnapshot, len(c.lastView))
	copy(view, c.lastView)

	return Status{
		Self:     c.view.Self,
		Peers:    c.view.Peers,
		Priority: c.view.SelfPriority,
		State:    c.lastState.String(),
		Holdback: c.cfg.Holdback,
		LastTick: c.lastTick,
		View:     view,
	}
}
