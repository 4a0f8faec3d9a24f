// Package fallback decides what happens when playback of a variant fails.
//
// Every explicitly selected variant gets one automatic fallback. A failure
// on the fallback target is terminal until the user picks again, so an
// exhausted variant list never loops.
package fallback

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/source"
	"github.com/samber/lo"
)

// ErrAllFailed is returned once no automatic fallback is left.
var ErrAllFailed = errors.New("all servers failed during playback")

// State of the playback session.
type State int

const (
	Resolving State = iota
	Playing
	Failing
	FailedTerminal
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Playing:
		return "playing"
	case Failing:
		return "failing"
	case FailedTerminal:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Decision is an automatic switch to another variant. Position is where
// playback should resume, in seconds.
type Decision struct {
	Next     source.Variant
	Position float64
}

// Controller is safe for concurrent use; player signals usually arrive on
// another goroutine.
type Controller struct {
	mu       sync.Mutex
	state    State
	variants []source.Variant
	selected *source.Variant
	position float64
	tried    bool
}

// New returns a controller in the Resolving state with nothing selected.
func New() *Controller {
	return &Controller{}
}

// SetVariants replaces the variant list the fallback walks. The selection
// is kept when its id is still present.
func (c *Controller) SetVariants(variants []source.Variant) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.variants = append([]source.Variant(nil), variants...)
	if c.selected == nil {
		return
	}

	if v, ok := lo.Find(c.variants, func(v source.Variant) bool { return v.ID == c.selected.ID }); ok {
		c.selected = &v
	} else {
		c.selected = nil
	}
}

// Select is an explicit user choice. It resets the fallback guard.
func (c *Controller) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := lo.Find(c.variants, func(v source.Variant) bool { return v.ID == id })
	if !ok {
		return fmt.Errorf("unknown variant %q", id)
	}

	c.selected = &v
	c.tried = false
	c.state = Resolving
	return nil
}

// ChangeEpisode is an explicit episode change starting at start seconds.
// It resets the fallback guard.
func (c *Controller) ChangeEpisode(start float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.position = start
	c.tried = false
	c.state = Resolving
}

// Resolved marks the current episode as playing.
func (c *Controller) Resolved() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = Playing
}

// TimeUpdate records the last known playback position.
func (c *Controller) TimeUpdate(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.position = seconds
}

// Fail reports a playback error. It either names the variant to switch
// to or returns ErrAllFailed.
func (c *Controller) Fail() (Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = Failing

	if len(c.variants) <= 1 || c.selected == nil || c.tried {
		c.state = FailedTerminal
		log.Warnf("fallback: giving up (variants=%d, tried=%t)", len(c.variants), c.tried)
		return Decision{}, ErrAllFailed
	}

	c.tried = true

	_, idx, _ := lo.FindIndexOf(c.variants, func(v source.Variant) bool { return v.ID == c.selected.ID })
	next := c.variants[(idx+1)%len(c.variants)]
	if next.ID == c.selected.ID {
		c.state = FailedTerminal
		return Decision{}, ErrAllFailed
	}

	log.Infof("fallback: %s failed, switching to %s at %.0fs", c.selected.Name, next.Name, c.position)
	c.selected = &next
	c.state = Resolving

	return Decision{Next: next, Position: c.position}, nil
}

// EmptyEpisodes reports that the selected variant listed no episodes. It is
// handled like a playback failure.
func (c *Controller) EmptyEpisodes() (Decision, error) {
	return c.Fail()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Selected returns the selected variant.
func (c *Controller) Selected() (source.Variant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected == nil {
		return source.Variant{}, false
	}
	return *c.selected, true
}

// Position is the last known playback position in seconds.
func (c *Controller) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.position
}
