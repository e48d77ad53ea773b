package ha

import "time"

// State represents the promotion state of the local node's coordinator.
type State int

const (
	// StateNormal means no promotion is pending.
	StateNormal State = iota
	// StatePriorityWait means nobody was active last tick and the node is
	// waiting out its priority delay before self-promoting.
	StatePriorityWait
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StatePriorityWait:
		return "priority-wait"
	default:
		return "unknown"
	}
}

// Action is the single decision a scheduler evaluation can produce.
type Action int

const (
	ActionNone Action = iota
	ActionPromote
)

// Scheduler decides whether and when the local node attempts promotion.
// Lower-ranked nodes back off once, for priority × waitUnit, to give
// higher-ranked nodes first chance; after that single extended wait the node
// always promotes if still nobody is active.
type Scheduler struct {
	state     State
	priority  int
	heartbeat time.Duration
	waitUnit  time.Duration
	holdback  bool
}

// NewScheduler creates a scheduler for a node with the given priority
// (zero-based list rank, 0 = highest). holdback marks a node that must never
// self-promote, e.g. a dedicated standby.
func NewScheduler(priority int, heartbeat, waitUnit time.Duration, holdback bool) *Scheduler {
	return &Scheduler{
		state:     StateNormal,
		priority:  priority,
		heartbeat: heartbeat,
		waitUnit:  waitUnit,
		holdback:  holdback,
	}
}

// State returns the current promotion state.
func (s *Scheduler) State() State { return s.state }

// Evaluate applies one tick's observation and returns the action to take.
//
//	Normal       + anyActive  -> Normal        none
//	Normal       + nobody, p0 -> Normal        promote now
//	Normal       + nobody     -> PriorityWait  none
//	PriorityWait + anyActive  -> Normal        none (someone else promoted)
//	PriorityWait + nobody     -> Normal        promote
func (s *Scheduler) Evaluate(anyActive bool) Action {
	if anyActive {
		s.state = StateNormal
		return ActionNone
	}
	if s.holdback {
		s.state = StateNormal
		return ActionNone
	}
	if s.state == StatePriorityWait || s.priority == 0 {
		s.state = StateNormal
		return ActionPromote
	}
	s.state = StatePriorityWait
	return ActionNone
}

// NextWait is the delay before the next tick: the priority backoff while in
// PriorityWait, the normal heartbeat otherwise.
func (s *Scheduler) NextWait() time.Duration {
	if s.state == StatePriorityWait {
		return time.Duration(s.priority) * s.waitUnit
	}
	return s.heartbeat
}
