// Package ha keeps exactly one instance of the managed service active across
// a statically ordered set of nodes, using only periodic liveness probes and
// locally readable checkpoint artifacts. There is no shared coordination
// service and no quorum store.
//
// # Overview
//
// Three pieces cooperate:
//   - Coordinator: the poll-decide-act loop, run once per node
//   - Scheduler: priority-ordered promotion backoff
//   - Resolver: split-brain settlement by checkpoint freshness
//
// Every tick the coordinator probes self and all peers, then classifies the
// cluster:
//   - exactly one active instance: nothing to do
//   - two or more active: the resolver compares clock-skew-corrected
//     checkpoint timestamps and the staler side is deactivated, with lexical
//     hostname order breaking exact ties
//   - none active: the scheduler gives higher-priority nodes first chance by
//     waiting priority × waitUnit once, then promotes the local node
//
// # Guarantees
//
// This is not a consensus protocol. A transient partition can briefly yield
// two active instances; the resolver corrects it on a following tick. The
// system converges to one active node rather than guaranteeing mutual
// exclusion at every instant. Every external failure (probe timeout, sync
// failure, command failure) degrades to a conservative per-operation default
// and the next tick retries from scratch.
//
// External effects go through three narrow interfaces, LivenessProbe,
// CheckpointSync and ActivationController, so tests drive whole failover
// scenarios in-process with fakes and a fake Clock.
package ha
