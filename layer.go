package brush

import (
	"image"
	"time"

	"github.com/gogpu/gg"
	"go.uber.org/zap"
)

// LayerConfig configures a layer created with [Scene.NewLayer].
type LayerConfig struct {
	Name string
	// X and Y offset the layer within the scene.
	X, Y float64
	// W and H size the layer surface; zero means the scene size.
	W, H int
	// Background is painted under the roots every frame. Any color form
	// accepted by the drawing helpers works.
	Background any
	// Opacity declares whether the layer hides the layers beneath it.
	Opacity Opacity
	// Compositor, when set, offloads compositing to a worker.
	Compositor Compositor
	// CompositorTimeout bounds how long a frame may stay in flight before
	// the compositor is considered unhealthy. Zero means one second.
	CompositorTimeout time.Duration
}

// Layer is one independently repainting surface of a scene. It owns its root
// nodes, coalesces invalidations into a single scheduled frame, and
// composites the roots onto its surface.
type Layer struct {
	Name string

	scene   *Scene
	index   int
	x, y    float64
	w, h    int
	bg      gg.RGBA
	hasBG   bool
	opacity Opacity

	surface *Surface
	ctx     *Context
	roots   []*Node

	pending    []*Node
	pendingSet map[*Node]struct{}
	frame      FrameHandle
	scheduled  bool
	before     []func()
	after      []func()

	inFrame    bool
	paintDepth int
	deferred   []func()

	hovered    []*Node
	hoveredSet map[*Node]struct{}
	cursor     string

	visible bool
	version uint64
	frames  int
	offload *offload
	stats   debugStats
}

func newLayer(s *Scene, index int, cfg LayerConfig) *Layer {
	l := &Layer{
		Name:       cfg.Name,
		scene:      s,
		index:      index,
		x:          cfg.X,
		y:          cfg.Y,
		w:          cfg.W,
		h:          cfg.H,
		opacity:    cfg.Opacity,
		pendingSet: map[*Node]struct{}{},
		hoveredSet: map[*Node]struct{}{},
		visible:    true,
	}
	if l.w <= 0 {
		l.w = s.w
	}
	if l.h <= 0 {
		l.h = s.h
	}
	if cfg.Background != nil {
		c, ok := parseColor(cfg.Background)
		if !ok {
			panic("brush: invalid layer background color")
		}
		l.bg, l.hasBG = c, true
	}
	l.surface = s.provider.NewSurface(l.w, l.h, true)
	l.ctx = newLayerContext(l.surface, l)
	if cfg.Compositor != nil {
		timeout := cfg.CompositorTimeout
		if timeout <= 0 {
			timeout = time.Second
		}
		l.offload = &offload{comp: cfg.Compositor, timeout: timeout}
	}
	return l
}

// Index returns the layer's position in the scene stack (0 is bottom).
func (l *Layer) Index() int { return l.index }

// Scene returns the owning scene.
func (l *Layer) Scene() *Scene { return l.scene }

// X returns the layer's horizontal offset in the scene.
func (l *Layer) X() float64 { return l.x }

// Y returns the layer's vertical offset in the scene.
func (l *Layer) Y() float64 { return l.y }

// Width returns the layer width.
func (l *Layer) Width() int { return l.w }

// Height returns the layer height.
func (l *Layer) Height() int { return l.h }

// Bounds returns the layer rectangle in scene coordinates.
func (l *Layer) Bounds() Rect {
	return Rect{X: l.x, Y: l.y, Width: float64(l.w), Height: float64(l.h)}
}

// Roots returns the layer's root nodes in paint order.
func (l *Layer) Roots() []*Node { return l.roots }

// Frames returns the number of frames the layer has run.
func (l *Layer) Frames() int { return l.frames }

// Opaque reports whether the layer hides what lies beneath it.
func (l *Layer) Opaque() bool {
	switch l.opacity {
	case OpacityOpaque:
		return true
	case OpacityTransparent:
		return false
	}
	return l.hasBG && l.bg.A >= 1
}

// SetOpacity changes the opacity declaration and recomputes visibility
// across the scene.
func (l *Layer) SetOpacity(o Opacity) {
	l.opacity = o
	l.scene.refreshVisibility()
}

// Visible reports whether the layer's output can be seen.
func (l *Layer) Visible() bool { return l.scene.LayerVisible(l.index) }

// Add binds n as a new topmost root and schedules its first paint.
func (l *Layer) Add(n *Node) *Node {
	if n == nil {
		panic("brush: cannot add nil node to layer")
	}
	n.bind(l, nil)
	l.roots = append(l.roots, n)
	l.ReceiveUpdate(n)
	return n
}

// OnBeforeFrame registers fn to run once, at the start of the next frame.
func (l *Layer) OnBeforeFrame(fn func()) {
	if fn != nil {
		l.before = append(l.before, fn)
	}
}

// OnAfterFrame registers fn to run once, at the end of the next frame.
func (l *Layer) OnAfterFrame(fn func()) {
	if fn != nil {
		l.after = append(l.after, fn)
	}
}

// SetCursor records the cursor the host should show over this layer, using
// CSS cursor names ("pointer", "text", "default").
func (l *Layer) SetCursor(cursor string) { l.cursor = cursor }

// Cursor returns the cursor set with SetCursor.
func (l *Layer) Cursor() string { return l.cursor }

// --- Invalidation & scheduling ---

// ReceiveUpdate queues n's render chain for the next frame, replacing any
// frame already scheduled. A nil node only requests a recomposite. Updates to
// a hidden layer are dropped; the layer repaints everything when it becomes
// visible again.
func (l *Layer) ReceiveUpdate(n *Node) {
	if !l.Visible() {
		Logger().Debug("update dropped on hidden layer", zap.String("layer", l.Name))
		return
	}
	if l.busy() {
		l.deferMutation(func() { l.ReceiveUpdate(n) })
		return
	}
	if n != nil {
		if _, ok := l.pendingSet[n]; !ok {
			l.pendingSet[n] = struct{}{}
			l.pending = append(l.pending, n)
		}
	}
	l.schedule()
}

func (l *Layer) schedule() {
	if l.scheduled {
		l.scene.scheduler.Cancel(l.frame)
	}
	l.frame = l.scene.scheduler.Schedule(l.runFrame)
	l.scheduled = true
}

// Scheduled reports whether a frame is waiting to run.
func (l *Layer) Scheduled() bool { return l.scheduled }

// Pending returns the nodes queued for the next frame.
func (l *Layer) Pending() []*Node { return l.pending }

// QuickUpdate runs a frame immediately, cancelling the scheduled one.
func (l *Layer) QuickUpdate() {
	if l.busy() {
		return
	}
	if l.scheduled {
		l.scene.scheduler.Cancel(l.frame)
	}
	l.runFrame()
}

func (l *Layer) runFrame() {
	l.scheduled = false
	if !l.Visible() {
		l.clearPending()
		return
	}
	l.inFrame = true
	l.stats = debugStats{pending: len(l.pending)}

	start := time.Now()
	for _, n := range l.pending {
		for _, c := range n.chain {
			c.fresh = false
		}
	}
	before := l.before
	l.before = nil
	for _, fn := range before {
		fn()
	}
	l.stats.markTime = time.Since(start)

	start = time.Now()
	for _, r := range l.roots {
		if !r.fresh {
			r.syncSurfaceSize()
			r.render()
		}
	}
	l.stats.paintTime = time.Since(start)

	start = time.Now()
	l.composite()
	l.stats.compositeTime = time.Since(start)

	after := l.after
	l.after = nil
	for _, fn := range after {
		fn()
	}
	l.clearPending()
	l.inFrame = false
	l.frames++
	l.debugLog()
	l.flushDeferred()
}

func (l *Layer) clearPending() {
	l.pending = l.pending[:0]
	clear(l.pendingSet)
}

// composite draws the roots onto the layer surface in declaration order, or
// hands them to the compositor worker.
func (l *Layer) composite() {
	if l.offload != nil {
		l.offload.submit(l)
		return
	}
	l.surface.Clear()
	if l.hasBG {
		l.surface.dc.ClearWithColor(l.bg)
	}
	for _, r := range l.roots {
		if !r.painted {
			continue
		}
		g := r.mustGeometry()
		l.ctx.DrawSurface(r.surface, g.X, g.Y)
	}
	l.version++
}

// Image returns the layer's displayed image and a version that changes
// whenever the image does. With a compositor it is the last good reply; nil
// until the first one arrives. The direct image aliases the layer surface.
func (l *Layer) Image() (*image.NRGBA, uint64) {
	if l.offload != nil {
		return l.offload.last, l.version
	}
	return l.surface.NRGBA(), l.version
}

// Resize changes the layer size, repaints every root and, with a
// compositor, re-initializes the worker canvas. Layers beneath that the new
// size uncovers are repainted too.
func (l *Layer) Resize(w, h int) {
	l.w, l.h = max(w, 1), max(h, 1)
	l.surface.resize(l.w, l.h)
	l.invalidateAll()
	l.scene.refreshVisibility()
}

// invalidateAll marks every node stale and schedules a frame.
func (l *Layer) invalidateAll() {
	for _, r := range l.roots {
		r.invalidateTree()
	}
	if l.Visible() {
		l.schedule()
	}
}

// --- Mutation deferral ---

func (l *Layer) busy() bool { return l.inFrame || l.paintDepth > 0 }

func (l *Layer) deferMutation(fn func()) {
	l.deferred = append(l.deferred, fn)
}

func (l *Layer) endPaint() {
	l.paintDepth--
	if l.paintDepth == 0 && !l.inFrame {
		l.flushDeferred()
	}
}

// flushDeferred applies mutations queued while the layer was painting. They
// schedule the next frame.
func (l *Layer) flushDeferred() {
	for len(l.deferred) > 0 && !l.busy() {
		fns := l.deferred
		l.deferred = nil
		for _, fn := range fns {
			fn()
		}
	}
}

// emitInteraction forwards a claimed event to the scene's entity store.
func (l *Layer) emitInteraction(ev Event) {
	if l.scene.store == nil || ev.Target.EntityID == 0 {
		return
	}
	l.scene.store.EmitEvent(InteractionEvent{
		Kind:     ev.Kind,
		EntityID: ev.Target.EntityID,
		Layer:    l.index,
		X:        ev.X,
		Y:        ev.Y,
		LocalX:   ev.LocalX,
		LocalY:   ev.LocalY,
	})
}
