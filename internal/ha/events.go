package ha

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies coordinator events.
type EventType int

const (
	EventPromoted EventType = iota
	EventSelfDemoted
	EventPeerDemoted
	EventSplitBrainDetected
	EventActionFailed
)

func (t EventType) String() string {
	switch t {
	case EventPromoted:
		return "promoted"
	case EventSelfDemoted:
		return "self_demoted"
	case EventPeerDemoted:
		return "peer_demoted"
	case EventSplitBrainDetected:
		return "split_brain_detected"
	case EventActionFailed:
		return "action_failed"
	default:
		return "unknown"
	}
}

// Event is a coordinator state-change notification.
type Event struct {
	ID        string
	Type      EventType
	Host      NodeID
	Timestamp time.Time
	Message   string
}

func newEvent(typ EventType, host NodeID, at time.Time, msg string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Host:      host,
		Timestamp: at,
		Message:   msg,
	}
}

// Subscribe registers an event listener. Handlers run on their own
// goroutines and must not block indefinitely.
func (c *Coordinator) Subscribe(handler func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, handler)
}

// emitEvent queues an event without blocking the tick; a full channel drops
// the event.
func (c *Coordinator) emitEvent(event Event) {
	select {
	case c.eventChan <- event:
	default:
	}
}

func (c *Coordinator) eventDispatcher() {
	for {
		select {
		case event := <-c.eventChan:
			c.mu.RLock()
			for _, handler := range c.subscribers {
				go handler(event)
			}
			c.mu.RUnlock()
		case <-c.stopChan:
			return
		}
	}
}
