package ha

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_StaysIdleWhileSomethingIsActive(t *testing.T) {
	s := NewScheduler(2, 5*time.Second, 5*time.Second, false)

	for i := 0; i < 5; i++ {
		assert.Equal(t, ActionNone, s.Evaluate(true))
		assert.Equal(t, StateNormal, s.State())
		assert.Equal(t, 5*time.Second, s.NextWait())
	}
}

func TestScheduler_TopPriorityPromotesImmediately(t *testing.T) {
	s := NewScheduler(0, 5*time.Second, 5*time.Second, false)

	assert.Equal(t, ActionPromote, s.Evaluate(false))
	assert.Equal(t, StateNormal, s.State())
}

func TestScheduler_LowerPriorityWaitsOnceThenPromotes(t *testing.T) {
	s := NewScheduler(3, 5*time.Second, 2*time.Second, false)

	// First tick with nobody active: enter the wait, no action.
	assert.Equal(t, ActionNone, s.Evaluate(false))
	assert.Equal(t, StatePriorityWait, s.State())
	assert.Equal(t, 6*time.Second, s.NextWait(), "backoff is priority × wait unit")

	// Still nobody active after the wait: promote, single-shot backoff.
	assert.Equal(t, ActionPromote, s.Evaluate(false))
	assert.Equal(t, StateNormal, s.State())
	assert.Equal(t, 5*time.Second, s.NextWait())
}

func TestScheduler_WaitAbortedWhenSomeoneElsePromotes(t *testing.T) {
	s := NewScheduler(1, 5*time.Second, 5*time.Second, false)

	assert.Equal(t, ActionNone, s.Evaluate(false))
	assert.Equal(t, StatePriorityWait, s.State())

	// A higher-priority node took over during the wait.
	assert.Equal(t, ActionNone, s.Evaluate(true))
	assert.Equal(t, StateNormal, s.State())
	assert.Equal(t, 5*time.Second, s.NextWait())
}

func TestScheduler_HoldbackNeverPromotes(t *testing.T) {
	s := NewScheduler(0, 5*time.Second, 5*time.Second, true)

	for i := 0; i < 4; i++ {
		assert.Equal(t, ActionNone, s.Evaluate(false))
		assert.Equal(t, StateNormal, s.State())
	}
}
