package nav

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestStep_SignOfDeltaMovesOneUnit(t *testing.T) {
	n := New(5, 2)

	idx, ok := n.Step(120, 1200, base)
	assert.True(t, ok)
	assert.Equal(t, 3, idx)

	// A huge delta still advances exactly one unit.
	idx, ok = n.Step(9000, 1200, base.Add(time.Second))
	assert.True(t, ok)
	assert.Equal(t, 4, idx)

	idx, ok = n.Step(-1, 1200, base.Add(2*time.Second))
	assert.True(t, ok)
	assert.Equal(t, 3, idx)
}

func TestStep_ClampsAtEnds(t *testing.T) {
	n := New(3, 2)

	idx, ok := n.Step(1, 1200, base)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	n2 := New(3, 0)
	idx, ok = n2.Step(-1, 1200, base)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestStep_CooldownSuppressesRapidGestures(t *testing.T) {
	n := New(10, 0)

	_, ok := n.Step(1, 1200, base)
	assert.True(t, ok)

	// Inside the window: rejected, index unchanged.
	idx, ok := n.Step(1, 1200, base.Add(300*time.Millisecond))
	assert.False(t, ok)
	assert.Equal(t, 1, idx)

	// At the window's end: accepted again.
	idx, ok = n.Step(1, 1200, base.Add(650*time.Millisecond))
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestStep_CustomCooldown(t *testing.T) {
	n := New(10, 0)
	n.Cooldown = 100 * time.Millisecond

	n.Step(1, 1200, base)
	_, ok := n.Step(1, 1200, base.Add(50*time.Millisecond))
	assert.False(t, ok)
	_, ok = n.Step(1, 1200, base.Add(100*time.Millisecond))
	assert.True(t, ok)
}

func TestStep_NarrowViewportDisablesNavigation(t *testing.T) {
	n := New(5, 0)

	idx, ok := n.Step(1, 800, base)
	assert.False(t, ok)
	assert.Equal(t, 0, idx)

	// Zero width means no width is known; the gate stays disarmed.
	_, ok = n.Step(1, 0, base)
	assert.True(t, ok)
}

func TestStep_ZeroDeltaIsNotAGesture(t *testing.T) {
	n := New(5, 2)
	idx, ok := n.Step(0, 1200, base)
	assert.False(t, ok)
	assert.Equal(t, 2, idx)

	// A rejected gesture must not engage the cooldown.
	_, ok = n.Step(1, 1200, base)
	assert.True(t, ok)
}

func TestJumpTo_ClampsAndSkipsCooldown(t *testing.T) {
	n := New(5, 99)
	assert.Equal(t, 4, n.Current)

	n.JumpTo(-3)
	assert.Equal(t, 0, n.Current)

	// JumpTo never engages the cooldown.
	_, ok := n.Step(1, 1200, base)
	assert.True(t, ok)
}

func TestBehavior_ReducedMotion(t *testing.T) {
	n := New(5, 0)
	assert.Equal(t, BehaviorSmooth, n.Behavior())
	n.ReducedMotion = true
	assert.Equal(t, BehaviorInstant, n.Behavior())
}

func TestNew_EmptyNavigator(t *testing.T) {
	n := New(0, 0)
	assert.Equal(t, 0, n.Current)
	idx, ok := n.Step(1, 1200, base)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}
