package brush

import (
	"fmt"
	"maps"
	"slices"
)

// Behavior supplies a node's lifecycle hooks. Embed [BaseBehavior] and
// override the hooks a component needs.
//
// A component may also implement DefaultProps() Props to supply its default
// tier, and Elements() map[string]*Node to declare named children.
type Behavior interface {
	// Created runs once, when the node is bound.
	Created(n *Node)
	// BeforePaint runs before every paint, after dependency recording starts.
	BeforePaint(n *Node)
	// Paint draws the node into ctx.
	Paint(n *Node, ctx *Context)
	// AfterPaint runs after every paint.
	AfterPaint(n *Node)
	// Updated runs once, after the first completed paint.
	Updated(n *Node)
}

// BaseBehavior implements every hook as a no-op.
type BaseBehavior struct{}

func (BaseBehavior) Created(*Node)         {}
func (BaseBehavior) BeforePaint(*Node)     {}
func (BaseBehavior) Paint(*Node, *Context) {}
func (BaseBehavior) AfterPaint(*Node)      {}
func (BaseBehavior) Updated(*Node)         {}

// PaintFunc adapts a plain paint function to a [Behavior].
type PaintFunc func(n *Node, ctx *Context)

func (PaintFunc) Created(*Node)                 {}
func (PaintFunc) BeforePaint(*Node)             {}
func (f PaintFunc) Paint(n *Node, ctx *Context) { f(n, ctx) }
func (PaintFunc) AfterPaint(*Node)              {}
func (PaintFunc) Updated(*Node)                 {}

// DefaultProvider is implemented by behaviors that supply default props.
type DefaultProvider interface {
	DefaultProps() Props
}

// ElementProvider is implemented by behaviors that declare named children.
type ElementProvider interface {
	Elements() map[string]*Node
}

// --- ID counter ---

// nodeIDCounter is a plain counter (no atomic; brush is single-threaded).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// --- Node ---

// Node is a self-painting component that owns an offscreen surface and
// memoizes its last render.
type Node struct {
	// ID is a unique identifier assigned at creation.
	ID uint32
	// Name is a human-readable label used in panics and logs.
	Name string
	// EntityID links the node to an ECS entity for interaction events.
	EntityID uint32
	// UserData is an arbitrary value for application use.
	UserData any
	// HitShape overrides the painted regions for hit testing. Nil means the
	// paths recorded by the drawing helpers, or the full bounds if none.
	HitShape HitShape

	behavior Behavior
	props    propStore
	state    Props

	elements   map[string]*Node
	children   []*Node // children composited by the last paint, in order
	discovered []*Node

	father *Node
	layer  *Layer
	chain  []*Node // root first, ending with this node

	surface *Surface
	ctx     *Context
	hits    []hitPath

	bound   bool
	painted bool
	fresh   bool

	handlers      map[EventKind][]nodeHandler
	nextHandlerID uint32
	tracksHover   bool
}

// NewNode creates an unbound node. props form the explicit tier; the
// behavior may add defaults and named children. A nil behavior paints
// nothing.
func NewNode(name string, b Behavior, props Props) *Node {
	if b == nil {
		b = BaseBehavior{}
	}
	var defaults Props
	if d, ok := b.(DefaultProvider); ok {
		defaults = d.DefaultProps()
	}
	n := &Node{
		ID:       nextNodeID(),
		Name:     name,
		behavior: b,
		props:    newPropStore(props, defaults),
		state:    Props{},
		elements: map[string]*Node{},
	}
	if e, ok := b.(ElementProvider); ok {
		maps.Copy(n.elements, e.Elements())
	}
	return n
}

// Declare registers child under name so the paint body can composite it.
// Panics if child is nil or n itself.
func (n *Node) Declare(name string, child *Node) {
	if child == nil {
		panic(fmt.Sprintf("brush: cannot declare nil element %q on node %q", name, n.Name))
	}
	if child == n {
		panic(fmt.Sprintf("brush: node %q cannot declare itself", n.Name))
	}
	n.elements[name] = child
}

// Element returns the named child, or nil.
func (n *Node) Element(name string) *Node { return n.elements[name] }

// Behavior returns the node's behavior.
func (n *Node) Behavior() Behavior { return n.behavior }

// Father returns the parent node, or nil for a layer root.
func (n *Node) Father() *Node { return n.father }

// Layer returns the owning layer, or nil while unbound.
func (n *Node) Layer() *Layer { return n.layer }

// Scene returns the owning scene, or nil while unbound.
func (n *Node) Scene() *Scene {
	if n.layer == nil {
		return nil
	}
	return n.layer.scene
}

// Chain returns the nodes from the layer root down to n. The returned slice
// MUST NOT be mutated by the caller.
func (n *Node) Chain() []*Node { return n.chain }

// Children returns the children composited by the last paint.
func (n *Node) Children() []*Node { return n.children }

// Surface returns the node's offscreen surface, or nil while unbound.
func (n *Node) Surface() *Surface { return n.surface }

// Bound reports whether the node is attached to a layer.
func (n *Node) Bound() bool { return n.bound }

// Fresh reports whether the node's surface reflects its current props and
// state.
func (n *Node) Fresh() bool { return n.fresh }

// Painted reports whether the node has completed at least one paint.
func (n *Node) Painted() bool { return n.painted }

// --- Binding ---

// bind attaches n under father (nil for a layer root). A node is bound exactly
// once; composite calls on an already-bound child are no-ops.
func (n *Node) bind(l *Layer, father *Node) {
	if n.bound {
		if n.father != father || n.layer != l {
			panic(fmt.Sprintf("brush: node %q is already bound elsewhere", n.Name))
		}
		return
	}
	n.bound = true
	n.layer = l
	n.father = father
	if father != nil {
		n.chain = append(slices.Clone(father.chain), n)
	} else {
		n.chain = []*Node{n}
	}
	if l.scene.debug {
		debugCheckChainDepth(n)
	}
	g := n.mustGeometry()
	n.surface = l.scene.provider.NewSurface(int(g.Width), int(g.Height), false)
	n.ctx = newNodeContext(n.surface, n)
	n.behavior.Created(n)
}

func (n *Node) mustBound(op string) {
	if !n.bound {
		panic(fmt.Sprintf("brush: %s on unbound node %q", op, n.Name))
	}
}

// --- Props & state ---

// Get reads a prop through the explicit, default and base tiers. Reads made
// while painting become dependencies of the render.
func (n *Node) Get(key string) any {
	v, _ := n.props.get(key)
	return v
}

// Set writes a prop. Position keys notify the father so it recomposites;
// size keys resize the surface and schedule a repaint. Other keys take
// effect on the next paint. While the layer is painting, the write itself
// waits for the end of the frame.
func (n *Node) Set(key string, v any) {
	if n.bound && n.layer.busy() {
		n.layer.deferMutation(func() { n.Set(key, v) })
		return
	}
	moved, resized := n.props.merge(Props{key: v})
	if n.bound {
		n.geometryChanged(moved, resized)
	}
}

func (n *Node) geometryChanged(moved, resized bool) {
	switch {
	case resized:
		n.syncSurfaceSize()
		n.Update()
	case moved:
		n.positionChanged()
	}
}

// SetProps merges partial into the explicit props and schedules a repaint.
// A partial that only moves the node recomposites the father instead.
// Mutations made while the layer is painting are applied after the frame.
func (n *Node) SetProps(partial Props) {
	n.mustBound("SetProps")
	if n.layer.busy() {
		n.layer.deferMutation(func() { n.SetProps(partial) })
		return
	}
	moved, resized := n.props.merge(partial)
	if moved && !resized && onlyPosition(partial) {
		n.positionChanged()
		return
	}
	n.Update()
}

func onlyPosition(p Props) bool {
	for k := range p {
		if k != "x" && k != "y" {
			return false
		}
	}
	return true
}

func (n *Node) positionChanged() {
	if n.father != nil {
		n.father.Update()
		return
	}
	n.layer.ReceiveUpdate(nil)
}

// InitState merges s into the node state without scheduling a repaint. Use
// it to seed state before the node is bound.
func (n *Node) InitState(s Props) {
	maps.Copy(n.state, s)
}

// SetState merges partial into the node state and schedules a repaint.
func (n *Node) SetState(partial Props) {
	n.mustBound("SetState")
	if n.layer.busy() {
		n.layer.deferMutation(func() { n.SetState(partial) })
		return
	}
	maps.Copy(n.state, partial)
	n.Update()
}

// State returns a state value, or nil.
func (n *Node) State(key string) any { return n.state[key] }

// Update reports n to its layer. The layer invalidates every node on n's
// chain and repaints them in the next frame.
func (n *Node) Update() {
	n.mustBound("Update")
	n.layer.ReceiveUpdate(n)
}

// RequestFrame runs fn and then schedules a repaint of n and its ancestors.
func (n *Node) RequestFrame(fn func()) {
	n.mustBound("RequestFrame")
	if n.layer.busy() {
		n.layer.deferMutation(func() { n.RequestFrame(fn) })
		return
	}
	if fn != nil {
		fn()
	}
	n.Update()
}

// --- Geometry ---

// parentSize is the basis for the node's own x, y, w and h: the father's
// surface, or the layer for a root.
func (n *Node) parentSize() (float64, float64) {
	if n.father != nil && n.father.surface != nil {
		return float64(n.father.surface.Width()), float64(n.father.surface.Height())
	}
	if n.layer != nil {
		return float64(n.layer.w), float64(n.layer.h)
	}
	return 0, 0
}

func (n *Node) viewport() (float64, float64) {
	if n.layer != nil {
		return float64(n.layer.w), float64(n.layer.h)
	}
	return n.parentSize()
}

func (n *Node) resolveProp(key string, v any) (float64, error) {
	d, err := toDim(v)
	if err != nil {
		return 0, fmt.Errorf("brush: node %q prop %q: %w", n.Name, key, err)
	}
	pw, ph := n.parentSize()
	vw, vh := n.viewport()
	ref := pw
	if key == "y" || key == "h" {
		ref = ph
	}
	px, err := d.Pixels(Basis{Ref: ref, ViewW: vw, ViewH: vh})
	if err != nil {
		return 0, fmt.Errorf("brush: node %q prop %q: %w", n.Name, key, err)
	}
	return px, nil
}

// Geometry resolves x, y, w and h into whole pixels in the father's
// coordinate space. Sizes clamp to zero.
func (n *Node) Geometry() (Rect, error) {
	var r Rect
	for _, f := range []struct {
		key string
		dst *float64
	}{{"x", &r.X}, {"y", &r.Y}, {"w", &r.Width}, {"h", &r.Height}} {
		v, _ := n.props.peek(f.key)
		px, err := n.resolveProp(f.key, v)
		if err != nil {
			return Rect{}, err
		}
		*f.dst = px
	}
	r.Width, r.Height = max(r.Width, 0), max(r.Height, 0)
	return r, nil
}

func (n *Node) mustGeometry() Rect {
	r, err := n.Geometry()
	if err != nil {
		panic(err)
	}
	return r
}

func (n *Node) axis(key string) float64 {
	v, _ := n.props.get(key)
	px, err := n.resolveProp(key, v)
	if err != nil {
		panic(err)
	}
	if key == "w" || key == "h" {
		return max(px, 0)
	}
	return px
}

// X returns the resolved x position in the father's space.
func (n *Node) X() float64 { return n.axis("x") }

// Y returns the resolved y position in the father's space.
func (n *Node) Y() float64 { return n.axis("y") }

// W returns the resolved width.
func (n *Node) W() float64 { return n.axis("w") }

// H returns the resolved height.
func (n *Node) H() float64 { return n.axis("h") }

// syncSurfaceSize resizes the surface to the current w and h and reports
// whether it was reallocated.
func (n *Node) syncSurfaceSize() bool {
	g := n.mustGeometry()
	return n.surface.resize(int(g.Width), int(g.Height))
}

// --- Rendering ---

// RenderWithProps merges partial into the props and returns the node's
// surface, repainting only when the node was never painted, was
// invalidated, changed size, has a stale child, or partial changes a prop
// the last paint read.
func (n *Node) RenderWithProps(partial Props) *Surface {
	n.mustBound("RenderWithProps")
	n.props.merge(partial)
	resized := n.syncSurfaceSize()
	if n.painted && n.fresh && !resized && !n.childrenOverdue() && !n.props.depsChanged(partial) {
		return n.surface
	}
	return n.render()
}

func (n *Node) childrenOverdue() bool {
	for _, c := range n.children {
		if !c.fresh {
			return true
		}
	}
	return false
}

// render runs the full paint pipeline.
func (n *Node) render() *Surface {
	l := n.layer
	l.paintDepth++
	defer l.endPaint()

	n.props.beginRecording()
	n.discovered = n.discovered[:0]
	n.surface.Clear()
	n.ctx.reset()

	n.behavior.BeforePaint(n)
	if bg, ok := n.props.get("backgroundColor"); ok && bg != nil {
		if err := n.ctx.FillBackground(bg); err != nil {
			n.ctx.warn("brush: background of %q: %v", n.Name, err)
		}
	}
	n.behavior.Paint(n, n.ctx)
	n.ctx.closeScopesAbove(nil)
	n.behavior.AfterPaint(n)
	if !n.painted {
		n.painted = true
		n.behavior.Updated(n)
	}

	n.children = n.children[:0]
	for _, c := range n.discovered {
		if !slices.Contains(n.children, c) {
			n.children = append(n.children, c)
		}
	}
	if l.scene.debug {
		debugCheckChildCount(n)
	}
	n.hits = n.ctx.hits
	n.props.endRecording()
	n.fresh = true
	l.stats.repainted++
	return n.surface
}

// Composite opens a composite scope for the named child. Panics if no such
// element was declared.
func (n *Node) Composite(name string) *Proxy {
	child, ok := n.elements[name]
	if !ok {
		panic(fmt.Sprintf("brush: unknown element %q on node %q", name, n.Name))
	}
	n.mustBound("Composite")
	child.bind(n.layer, n)
	if n.props.recording {
		n.discovered = append(n.discovered, child)
	}
	return newProxy(n, child)
}

// Draw composites the named child with props at its own position.
func (n *Node) Draw(name string, props Props) {
	n.Composite(name).Paint(props).Done()
}

// invalidateTree marks n and every descendant stale.
func (n *Node) invalidateTree() {
	n.fresh = false
	for _, c := range n.children {
		c.invalidateTree()
	}
}

// SceneBounds returns the node's rectangle in scene coordinates: its chain
// offsets plus the layer offset. Proxy transforms are not included.
func (n *Node) SceneBounds() (Rect, error) {
	n.mustBound("SceneBounds")
	r := Rect{X: n.layer.x, Y: n.layer.y}
	for _, c := range n.chain {
		g, err := c.Geometry()
		if err != nil {
			return Rect{}, err
		}
		r.X, r.Y = r.X+g.X, r.Y+g.Y
		r.Width, r.Height = g.Width, g.Height
	}
	return r, nil
}
