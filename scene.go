package brush

import (
	"image"
	"slices"
	"time"

	"golang.org/x/image/draw"
)

// EntityStore is the interface for optional ECS integration.
// When set on a Scene, claimed pointer events are forwarded to the ECS.
type EntityStore interface {
	EmitEvent(event InteractionEvent)
}

// InteractionEvent carries interaction data for the ECS bridge. Only nodes
// with a non-zero EntityID emit.
type InteractionEvent struct {
	Kind     EventKind
	EntityID uint32
	Layer    int
	X, Y     float64 // layer coordinates
	LocalX   float64
	LocalY   float64
}

// SceneConfig configures a [Scene].
type SceneConfig struct {
	Width, Height int
	// Scheduler runs layer frames. Nil means a [TickScheduler] driven by
	// Scene.Tick.
	Scheduler FrameScheduler
	// Provider allocates surfaces. Nil means [SoftwareProvider].
	Provider SurfaceProvider
	// State seeds the shared state.
	State Props
	// Clock reports the current time; used for compositor timeouts.
	Clock func() time.Time
}

// Subscription allows removing a state subscriber.
type Subscription struct {
	scene *Scene
	key   string
	id    uint32
}

// Remove unregisters the subscriber so it no longer fires.
func (s Subscription) Remove() {
	if s.scene == nil {
		return
	}
	subs := s.scene.subscribers[s.key]
	for i := range subs {
		if subs[i].id == s.id {
			s.scene.subscribers[s.key] = slices.Delete(subs, i, i+1)
			return
		}
	}
}

type subscriber struct {
	id uint32
	fn func(key string, value any)
}

// Scene is the top-level container: an ordered stack of layers (index 0 at
// the bottom) and a shared keyed state with subscribers.
type Scene struct {
	w, h      int
	layers    []*Layer
	scheduler FrameScheduler
	provider  SurfaceProvider
	now       func() time.Time

	state       Props
	subscribers map[string][]subscriber
	nextSubID   uint32

	store EntityStore
	debug bool

	// ScreenshotDir is the directory where screenshot PNGs are saved.
	// Defaults to "screenshots".
	ScreenshotDir   string
	screenshotQueue []string
	screenshotSeq   int
	injectQueue     []syntheticPointerEvent
	testRunner      *TestRunner
}

// NewScene creates an empty scene.
func NewScene(cfg SceneConfig) *Scene {
	s := &Scene{
		w:             max(cfg.Width, 1),
		h:             max(cfg.Height, 1),
		scheduler:     cfg.Scheduler,
		provider:      cfg.Provider,
		now:           cfg.Clock,
		state:         Props{},
		subscribers:   map[string][]subscriber{},
		ScreenshotDir: "screenshots",
	}
	if s.scheduler == nil {
		s.scheduler = NewTickScheduler()
	}
	if s.provider == nil {
		s.provider = SoftwareProvider{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	for k, v := range cfg.State {
		s.state[k] = v
	}
	return s
}

// Width returns the scene width.
func (s *Scene) Width() int { return s.w }

// Height returns the scene height.
func (s *Scene) Height() int { return s.h }

// Scheduler returns the frame scheduler.
func (s *Scene) Scheduler() FrameScheduler { return s.scheduler }

// Layers returns the layer stack, bottom first.
func (s *Scene) Layers() []*Layer { return s.layers }

// NewLayer creates a layer on top of the stack and adds roots to it.
func (s *Scene) NewLayer(cfg LayerConfig, roots ...*Node) *Layer {
	l := newLayer(s, len(s.layers), cfg)
	s.layers = append(s.layers, l)
	s.refreshVisibility()
	for _, r := range roots {
		l.Add(r)
	}
	return l
}

// SetEntityStore sets the optional ECS bridge.
func (s *Scene) SetEntityStore(store EntityStore) {
	s.store = store
}

// SetDebugMode enables or disables debug mode. When enabled, deep render
// chains are reported and per-frame timing stats are logged at debug level.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
}

// --- Shared state ---

// Set stores value under key and notifies every subscriber of key.
func (s *Scene) Set(key string, value any) {
	s.state[key] = value
	for _, sub := range slices.Clone(s.subscribers[key]) {
		sub.fn(key, value)
	}
}

// Get returns the value stored under key.
func (s *Scene) Get(key string) (any, bool) {
	v, ok := s.state[key]
	return v, ok
}

// Subscribe registers fn to run whenever key is set.
func (s *Scene) Subscribe(key string, fn func(key string, value any)) Subscription {
	if fn == nil {
		panic("brush: Subscribe called with nil callback")
	}
	s.nextSubID++
	id := s.nextSubID
	s.subscribers[key] = append(s.subscribers[key], subscriber{id: id, fn: fn})
	return Subscription{scene: s, key: key, id: id}
}

// --- Visibility ---

// LayerVisible reports whether layer i can be seen. A layer is hidden only
// when there is at least one layer above it, every layer above is opaque,
// and one of them covers it completely.
func (s *Scene) LayerVisible(i int) bool {
	if i < 0 || i >= len(s.layers) {
		return false
	}
	if i == len(s.layers)-1 {
		return true
	}
	covered := false
	b := s.layers[i].Bounds()
	for _, l := range s.layers[i+1:] {
		if !l.Opaque() {
			return true
		}
		if covers(l.Bounds(), b) {
			covered = true
		}
	}
	return !covered
}

func covers(outer, inner Rect) bool {
	return outer.X <= inner.X && outer.Y <= inner.Y &&
		outer.X+outer.Width >= inner.X+inner.Width &&
		outer.Y+outer.Height >= inner.Y+inner.Height
}

// refreshVisibility repaints layers that just became visible; updates sent
// to them while hidden were dropped.
func (s *Scene) refreshVisibility() {
	for i, l := range s.layers {
		v := s.LayerVisible(i)
		if v && !l.visible {
			l.visible = true
			l.invalidateAll()
		}
		l.visible = v
	}
}

// --- Frame driving ---

// Tick advances the scene by one host frame: runs the test script, feeds one
// injected pointer event, collects compositor replies, runs due layer frames
// and writes queued screenshots.
func (s *Scene) Tick() {
	if s.testRunner != nil {
		s.testRunner.step(s)
	}
	s.processInjectedInput()
	for _, l := range s.layers {
		if l.offload != nil {
			l.offload.poll(l)
		}
	}
	if t, ok := s.scheduler.(ticker); ok {
		t.Tick()
	}
	s.flushScreenshots()
}

// Render runs a frame on every visible layer immediately.
func (s *Scene) Render() {
	for i, l := range s.layers {
		if s.LayerVisible(i) {
			l.QuickUpdate()
		}
	}
}

// Compose flattens the visible layers, bottom first, into a new image the
// size of the scene.
func (s *Scene) Compose() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, s.w, s.h))
	for i, l := range s.layers {
		if !s.LayerVisible(i) {
			continue
		}
		img, _ := l.Image()
		if img == nil {
			continue
		}
		x, y := int(roundPixel(l.x)), int(roundPixel(l.y))
		r := image.Rect(x, y, x+img.Rect.Dx(), y+img.Rect.Dy())
		draw.Draw(dst, r, img, img.Rect.Min, draw.Over)
	}
	return dst
}

// FindNode returns the first painted node named name, searching each layer's
// roots and the children composited by their last paints, bottom layer first.
func (s *Scene) FindNode(name string) *Node {
	var walk func(n *Node) *Node
	walk = func(n *Node) *Node {
		if !n.painted {
			return nil
		}
		if n.Name == name {
			return n
		}
		for _, c := range n.children {
			if found := walk(c); found != nil {
				return found
			}
		}
		return nil
	}
	for _, l := range s.layers {
		for _, r := range l.roots {
			if found := walk(r); found != nil {
				return found
			}
		}
	}
	return nil
}

// Cursor returns the cursor requested by the topmost visible layer that set
// one, or "".
func (s *Scene) Cursor() string {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if s.LayerVisible(i) && s.layers[i].cursor != "" {
			return s.layers[i].cursor
		}
	}
	return ""
}
