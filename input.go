package brush

import (
	"math"
	"slices"
)

// --- Built-in HitShape types ---

// HitShape defines a custom hit-testable region in a node's local
// coordinates.
type HitShape interface {
	Contains(x, y float64) bool
}

// HitRect is an axis-aligned rectangular hit area in local coordinates.
type HitRect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside the rectangle, far edges
// excluded, as with [Rect.Contains].
func (r HitRect) Contains(x, y float64) bool {
	return Rect(r).Contains(x, y)
}

// HitCircle is a circular hit area in local coordinates.
type HitCircle struct {
	CenterX, CenterY, Radius float64
}

// Contains reports whether (x, y) lies inside or on the circle.
func (c HitCircle) Contains(x, y float64) bool {
	dx := x - c.CenterX
	dy := y - c.CenterY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// HitPolygon is a polygon hit area in local coordinates. Any simple or
// self-intersecting outline works; containment uses the even-odd rule.
type HitPolygon struct {
	Points []Vec2
}

// Contains reports whether (x, y) lies inside the polygon.
func (p HitPolygon) Contains(x, y float64) bool {
	return hitPath(p.Points).contains(x, y)
}

// hitPath is a closed outline recorded by the drawing helpers, in the
// painting node's surface coordinates.
type hitPath []Vec2

// contains runs an even-odd crossing test. Points on a horizontal edge count
// as inside so axis-aligned rectangles include their borders.
func (h hitPath) contains(x, y float64) bool {
	n := len(h)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := h[i], h[j]
		if onSegment(a, b, x, y) {
			return true
		}
		if (a.Y > y) != (b.Y > y) {
			xi := a.X + (y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if x < xi {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(a, b Vec2, x, y float64) bool {
	const eps = 1e-9
	cross := (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
	if math.Abs(cross) > eps {
		return false
	}
	return x >= math.Min(a.X, b.X)-eps && x <= math.Max(a.X, b.X)+eps &&
		y >= math.Min(a.Y, b.Y)-eps && y <= math.Max(a.Y, b.Y)+eps
}

// --- Events ---

// Event carries pointer event data to node handlers.
type Event struct {
	Kind EventKind
	// X and Y are layer coordinates.
	X, Y float64
	// LocalX and LocalY are relative to Target's top-left corner.
	LocalX, LocalY float64
	// Target is the deepest node that claimed the point.
	Target *Node
	// Current is the node whose handler is running; it differs from Target
	// while the event bubbles.
	Current *Node
}

type nodeHandler struct {
	id uint32
	fn func(Event)
}

// HandlerHandle allows removing a registered node handler.
type HandlerHandle struct {
	node *Node
	kind EventKind
	id   uint32
}

// Remove unregisters the handler so it no longer fires.
func (h HandlerHandle) Remove() {
	if h.node == nil {
		return
	}
	hs := h.node.handlers[h.kind]
	for i := range hs {
		if hs[i].id == h.id {
			h.node.handlers[h.kind] = slices.Delete(hs, i, i+1)
			return
		}
	}
}

// On registers fn for events of kind on n. Handlers for "in" and "out" make
// the node track hover: it reports itself to its layer on every "over" it
// receives or that bubbles through it.
func (n *Node) On(kind EventKind, fn func(Event)) HandlerHandle {
	if fn == nil {
		panic("brush: On called with nil handler")
	}
	if n.handlers == nil {
		n.handlers = map[EventKind][]nodeHandler{}
	}
	n.nextHandlerID++
	id := n.nextHandlerID
	n.handlers[kind] = append(n.handlers[kind], nodeHandler{id: id, fn: fn})
	if kind == EventIn || kind == EventOut {
		n.tracksHover = true
	}
	return HandlerHandle{node: n, kind: kind, id: id}
}

func (n *Node) fire(ev Event) {
	if ev.Kind == EventOver && n.tracksHover && n.layer != nil {
		n.layer.reportHover(n)
	}
	for _, h := range slices.Clone(n.handlers[ev.Kind]) {
		h.fn(ev)
	}
}

// containsLocal tests (lx, ly) against the HitShape, the paths painted by the
// drawing helpers, or the node bounds, in that order of preference.
func (n *Node) containsLocal(lx, ly float64) bool {
	if n.HitShape != nil {
		return n.HitShape.Contains(lx, ly)
	}
	if len(n.hits) > 0 {
		for _, h := range n.hits {
			if h.contains(lx, ly) {
				return true
			}
		}
		return false
	}
	return lx >= 0 && lx < float64(n.surface.Width()) &&
		ly >= 0 && ly < float64(n.surface.Height())
}

// Dispatch delivers an event at (x, y), given in n's local coordinates.
// Children composited by the last paint are tried topmost first, by bounds;
// the deepest node whose painted region contains the point claims it, its
// handlers run, and the event bubbles through every ancestor. It reports
// whether any node claimed the point.
func (n *Node) Dispatch(kind EventKind, x, y float64) bool {
	ox, oy := 0.0, 0.0
	for _, c := range n.chain[:len(n.chain)-1] {
		g := c.mustGeometry()
		ox, oy = ox+g.X, oy+g.Y
	}
	g := n.mustGeometry()
	return n.dispatch(kind, x, y, ox+g.X+x, oy+g.Y+y)
}

func (n *Node) dispatch(kind EventKind, lx, ly, gx, gy float64) bool {
	for i := len(n.children) - 1; i >= 0; i-- {
		c := n.children[i]
		b, err := c.Geometry()
		if err != nil || !b.Contains(lx, ly) {
			continue
		}
		if c.dispatch(kind, lx-b.X, ly-b.Y, gx, gy) {
			return true
		}
	}
	if !n.containsLocal(lx, ly) {
		return false
	}
	ev := Event{Kind: kind, X: gx, Y: gy, LocalX: lx, LocalY: ly, Target: n, Current: n}
	n.fire(ev)
	for f := n.father; f != nil; f = f.father {
		ev.Current = f
		f.fire(ev)
	}
	n.layer.emitInteraction(ev)
	return true
}

// --- Layer dispatch ---

// Dispatch delivers an event at layer coordinates (x, y) to the roots,
// topmost first, and stops at the first root that claims it.
func (l *Layer) Dispatch(kind EventKind, x, y float64) bool {
	for i := len(l.roots) - 1; i >= 0; i-- {
		r := l.roots[i]
		if !r.painted {
			continue
		}
		b, err := r.Geometry()
		if err != nil || !b.Contains(x, y) {
			continue
		}
		if r.dispatch(kind, x-b.X, y-b.Y, x, y) {
			return true
		}
	}
	return false
}

// Pointer handles raw pointer input in scene coordinates. Coordinates are
// made layer-relative and truncated to whole pixels. An "over" event also
// diffs the hovered set and fires "in" and "out" on the nodes that entered or
// left it; those two kinds do not bubble.
func (l *Layer) Pointer(kind EventKind, rawX, rawY float64) bool {
	x := math.Trunc(rawX - l.x)
	y := math.Trunc(rawY - l.y)
	if kind != EventOver {
		return l.Dispatch(kind, x, y)
	}

	prev := l.hovered
	l.hovered = nil
	clear(l.hoveredSet)
	claimed := l.Dispatch(EventOver, x, y)

	for _, n := range prev {
		if _, ok := l.hoveredSet[n]; !ok {
			n.fireSelf(EventOut, x, y)
		}
	}
	for _, n := range l.hovered {
		if !slices.Contains(prev, n) {
			n.fireSelf(EventIn, x, y)
		}
	}
	return claimed
}

// leaveAll fires "out" on every hovered node and empties the hovered set.
func (l *Layer) leaveAll(rawX, rawY float64) {
	x, y := math.Trunc(rawX-l.x), math.Trunc(rawY-l.y)
	prev := l.hovered
	l.hovered = nil
	clear(l.hoveredSet)
	for _, n := range prev {
		n.fireSelf(EventOut, x, y)
	}
}

func (l *Layer) reportHover(n *Node) {
	if _, ok := l.hoveredSet[n]; ok {
		return
	}
	l.hoveredSet[n] = struct{}{}
	l.hovered = append(l.hovered, n)
}

// Hovered returns the nodes currently under the pointer that track hover.
func (l *Layer) Hovered() []*Node { return l.hovered }

func (n *Node) fireSelf(kind EventKind, x, y float64) {
	lx, ly := x, y
	for _, c := range n.chain {
		if g, err := c.Geometry(); err == nil {
			lx, ly = lx-g.X, ly-g.Y
		}
	}
	n.fire(Event{Kind: kind, X: x, Y: y, LocalX: lx, LocalY: ly, Target: n, Current: n})
}

// --- Scene dispatch ---

// Pointer routes raw pointer input to the visible layers, topmost first.
// Once a layer claims the point, lower layers get no further events of that
// kind; for "over" they instead lose their hover state.
func (s *Scene) Pointer(kind EventKind, rawX, rawY float64) bool {
	claimed := false
	for i := len(s.layers) - 1; i >= 0; i-- {
		l := s.layers[i]
		if !s.LayerVisible(i) {
			continue
		}
		if claimed {
			if kind == EventOver {
				l.leaveAll(rawX, rawY)
			}
			continue
		}
		if l.Pointer(kind, rawX, rawY) {
			claimed = true
		}
	}
	return claimed
}
