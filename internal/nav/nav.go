// Package nav turns discrete scroll gestures into single-step
// navigation between presentation units.
//
// A cooldown window after each accepted step serializes rapid repeated
// gestures into single steps instead of multi-unit jumps. The cooldown
// is a plain timestamp, not a lock: the scheduling model is
// single-threaded and the stamp is written synchronously before
// anything can suspend.
package nav

import "time"

// Defaults matching the production page.
const (
	// DefaultCooldown is the minimum time between accepted steps.
	DefaultCooldown = 650 * time.Millisecond
	// DefaultMinWidth is the viewport width below which discrete
	// navigation is disabled and native continuous scrolling takes
	// over (a layout concern outside this package).
	DefaultMinWidth = 1000
)

// Behavior is how the viewer should move to the new frontmost unit.
type Behavior int

const (
	// BehaviorSmooth animates the transition.
	BehaviorSmooth Behavior = iota
	// BehaviorInstant jumps immediately (reduced-motion preference).
	BehaviorInstant
)

// Navigator tracks the frontmost unit index.
type Navigator struct {
	// Current is the frontmost unit index.
	Current int
	// Count is the number of units; steps clamp to [0, Count-1].
	Count int
	// Cooldown overrides DefaultCooldown when positive.
	Cooldown time.Duration
	// MinWidth overrides DefaultMinWidth when positive.
	MinWidth int
	// ReducedMotion selects instant jumps over animation.
	ReducedMotion bool

	lockedUntil time.Time
}

// New returns a navigator over n units starting at index start.
func New(n, start int) *Navigator {
	nav := &Navigator{Count: n}
	nav.JumpTo(start)
	return nav
}

// Behavior returns the movement behavior honoring the reduced-motion
// preference.
func (n *Navigator) Behavior() Behavior {
	if n.ReducedMotion {
		return BehaviorInstant
	}
	return BehaviorSmooth
}

// JumpTo moves directly to an index (clamped) without engaging the
// cooldown. Used for the initial frontmost target on load.
func (n *Navigator) JumpTo(i int) {
	n.Current = clamp(i, 0, n.Count-1)
}

// Step processes one discrete scroll gesture. delta is the gesture's
// principal axis value; only its sign matters, and exactly one unit is
// advanced or retreated, clamped to the ends. width is the current
// viewport width. Returns the (possibly unchanged) frontmost index and
// whether a navigation was accepted.
func (n *Navigator) Step(delta float64, width int, now time.Time) (int, bool) {
	minWidth := n.MinWidth
	if minWidth <= 0 {
		minWidth = DefaultMinWidth
	}
	if width > 0 && width < minWidth {
		return n.Current, false
	}
	if now.Before(n.lockedUntil) {
		return n.Current, false
	}

	direction := sign(delta)
	if direction == 0 {
		return n.Current, false
	}

	next := clamp(n.Current+direction, 0, n.Count-1)

	cooldown := n.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	n.lockedUntil = now.Add(cooldown)
	n.Current = next
	return n.Current, true
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
