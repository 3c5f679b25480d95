// Package tool models the single point tool that cuts and tensions the sheet.
//
// A [Tool] is the only consumer of pointer events. Callers feed it
// [Engage], [Disengage] and [Move] events with [Tool.Handle]; the tool turns
// "engaged with the cut button and moving" into cut requests against a
// [Cutter] when [Tool.Apply] is called. Renderers observe the tool through
// [Observer] subscriptions or by polling [Tool.State]; the tool never calls
// into rendering code beyond notifying observers.
package tool

import (
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/matzehuels/gauzecut/pkg/geom"
)

// Button ids carried by Engage events.
const (
	ButtonLeft   = 1
	ButtonMiddle = 2
	ButtonRight  = 3
)

// DefaultRadius is the default cutting influence of the tool.
const DefaultRadius = 5.0

// Cutter is anything a tool can cut. *cloth.Mesh satisfies it.
type Cutter interface {
	Cut(pos orb.Point, tolerance float64) int
}

// Event is a pointer event consumed by a Tool.
type Event interface {
	event()
}

// Engage presses a button.
type Engage struct {
	Button int
}

// Disengage releases the pressed button.
type Disengage struct{}

// Move moves the tool to (X, Y) in sheet coordinates.
type Move struct {
	X, Y float64
}

func (Engage) event()    {}
func (Disengage) event() {}
func (Move) event()      {}

// State is a snapshot of the tool for renderers.
type State struct {
	Pos     orb.Point
	Z       float64
	Engaged bool
	Button  int
}

// Observer receives the tool state after every handled event.
type Observer interface {
	OnToolEvent(State)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(State)

// OnToolEvent calls f(s).
func (f ObserverFunc) OnToolEvent(s State) { f(s) }

// Tool is a single interaction point. It is safe for concurrent use, so a UI
// goroutine may feed events while another polls State.
type Tool struct {
	// Radius is the cutting influence around the tool tip.
	Radius float64
	// CutButton is the button that cuts while engaged.
	CutButton int

	mu        sync.Mutex
	pos, prev orb.Point
	z         float64
	engaged   bool
	button    int
	moved     bool
	observers []Observer
}

// New returns a disengaged tool with the given radius that cuts with the
// left button.
func New(radius float64) *Tool {
	if radius <= 0 {
		radius = DefaultRadius
	}
	return &Tool{Radius: radius, CutButton: ButtonLeft}
}

// Subscribe registers o to be notified after every handled event.
func (t *Tool) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// Handle applies a pointer event to the tool.
func (t *Tool) Handle(e Event) {
	t.mu.Lock()
	switch e := e.(type) {
	case Engage:
		t.engaged = true
		t.button = e.Button
		t.prev = t.pos
		t.moved = true
	case Disengage:
		t.engaged = false
		t.button = 0
	case Move:
		t.pos = orb.Point{e.X, e.Y}
		t.moved = true
	}
	s := t.stateLocked()
	observers := append([]Observer(nil), t.observers...)
	t.mu.Unlock()

	for _, o := range observers {
		o.OnToolEvent(s)
	}
}

// State returns the current tool state.
func (t *Tool) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *Tool) stateLocked() State {
	return State{Pos: t.pos, Z: t.z, Engaged: t.engaged, Button: t.button}
}

// Cutting reports whether the tool is engaged with its cut button.
func (t *Tool) Cutting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engaged && t.button == t.CutButton
}

// Apply cuts c along the path travelled since the last Apply. The sweep is
// sampled at intervals no longer than Radius so a fast move cannot skip a
// link. It returns the number of links cut, or zero when the tool is not
// cutting or has not moved.
func (t *Tool) Apply(c Cutter) int {
	t.mu.Lock()
	from, to := t.prev, t.pos
	cutting := t.engaged && t.button == t.CutButton && t.moved
	t.prev = t.pos
	t.moved = false
	radius := t.Radius
	t.mu.Unlock()

	if !cutting {
		return 0
	}
	steps := max(1, int(math.Ceil(planar.Distance(from, to)/radius)))
	n := c.Cut(from, radius)
	for k := 1; k <= steps; k++ {
		n += c.Cut(geom.Lerp(from, to, float64(k)/float64(steps)), radius)
	}
	return n
}
