package graphview

import (
	"github.com/samirrijal/topomap/internal/core/domain"
)

type animation struct {
	from, to domain.CameraState
	step     int
	steps    int
}

// Camera holds the view state in framed coordinates: (0.5, 0.5) with ratio 1
// shows the whole graph.
type Camera struct {
	state    domain.CameraState
	anim     *animation
	renderer *Renderer
}

// DefaultCameraState frames the whole graph.
func DefaultCameraState() domain.CameraState {
	return domain.CameraState{X: 0.5, Y: 0.5, Ratio: 1}
}

func (c *Camera) State() domain.CameraState { return c.state }

// SetState replaces the whole state at once and schedules one render.
// Rotation is dropped while enableCameraRotation is off.
func (c *Camera) SetState(s domain.CameraState) {
	if s.Ratio <= 0 {
		s.Ratio = c.state.Ratio
	}
	if !c.renderer.rotationEnabled() {
		s.Angle = 0
	}
	c.state = s
	c.renderer.scheduleRender()
}

// IsAnimated reports whether an animation is running.
func (c *Camera) IsAnimated() bool { return c.anim != nil }

// Animate moves linearly to target, one step per tick.
func (c *Camera) Animate(target domain.CameraState, steps int) {
	if steps <= 1 {
		c.anim = nil
		c.SetState(target)
		return
	}
	c.anim = &animation{from: c.state, to: target, steps: steps}
	c.renderer.scheduler.Defer(c.advance)
}

func (c *Camera) advance() {
	a := c.anim
	if a == nil {
		return
	}
	a.step++
	t := float64(a.step) / float64(a.steps)
	next := domain.CameraState{
		X:     a.from.X + (a.to.X-a.from.X)*t,
		Y:     a.from.Y + (a.to.Y-a.from.Y)*t,
		Ratio: a.from.Ratio + (a.to.Ratio-a.from.Ratio)*t,
		Angle: a.from.Angle + (a.to.Angle-a.from.Angle)*t,
	}
	if a.step >= a.steps {
		c.anim = nil
		next = a.to
	} else {
		c.renderer.scheduler.Defer(c.advance)
	}
	c.SetState(next)
}
