package brush

import (
	"fmt"
	"slices"
	"strings"
	"testing"
)

// recorder counts paints and logs lifecycle hooks.
type recorder struct {
	paints int
	hooks  []string
	paint  func(n *Node, ctx *Context)
}

func (r *recorder) Created(*Node)     { r.hooks = append(r.hooks, "created") }
func (r *recorder) BeforePaint(*Node) { r.hooks = append(r.hooks, "before") }
func (r *recorder) AfterPaint(*Node)  { r.hooks = append(r.hooks, "after") }
func (r *recorder) Updated(*Node)     { r.hooks = append(r.hooks, "updated") }
func (r *recorder) Paint(n *Node, ctx *Context) {
	r.paints++
	r.hooks = append(r.hooks, "paint")
	if r.paint != nil {
		r.paint(n, ctx)
	}
}

func newTestScene() *Scene {
	return NewScene(SceneConfig{Width: 200, Height: 100})
}

func expectPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q, got none", contains)
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, contains) {
			t.Errorf("panic = %q, want it to contain %q", msg, contains)
		}
	}()
	fn()
}

func TestFirstRenderPaints(t *testing.T) {
	s := newTestScene()
	rec := &recorder{}
	root := NewNode("root", rec, nil)
	s.NewLayer(LayerConfig{}, root)

	if root.Painted() {
		t.Fatal("node painted before the first frame")
	}
	s.Tick()
	if rec.paints != 1 || !root.Painted() || !root.Fresh() {
		t.Errorf("paints=%d painted=%v fresh=%v", rec.paints, root.Painted(), root.Fresh())
	}
	want := []string{"created", "before", "paint", "after", "updated"}
	if !slices.Equal(rec.hooks, want) {
		t.Errorf("hooks = %v, want %v", rec.hooks, want)
	}

	rec.hooks = nil
	root.Update()
	s.Tick()
	if want := []string{"before", "paint", "after"}; !slices.Equal(rec.hooks, want) {
		t.Errorf("second paint hooks = %v, want %v", rec.hooks, want)
	}
}

func TestBaseDefaults(t *testing.T) {
	s := newTestScene()
	root := NewNode("root", nil, nil)
	s.NewLayer(LayerConfig{}, root)
	g, err := root.Geometry()
	if err != nil {
		t.Fatal(err)
	}
	if g != (Rect{Width: 100, Height: 100}) {
		t.Errorf("geometry = %+v, want 100x100 at origin", g)
	}
	if root.Surface().Width() != 100 {
		t.Errorf("surface width = %d", root.Surface().Width())
	}
}

type withDefaults struct{ BaseBehavior }

func (withDefaults) DefaultProps() Props { return Props{"w": 30, "color": "red"} }

func TestComponentDefaults(t *testing.T) {
	n := NewNode("n", withDefaults{}, Props{"color": "blue"})
	if n.Get("w") != 30 || n.Get("color") != "blue" || n.Get("h") != 100.0 {
		t.Errorf("w=%v color=%v h=%v", n.Get("w"), n.Get("color"), n.Get("h"))
	}
}

// twoLevel builds root -> child where the root passes its "c" state to the
// child as "color", and the child paints that color.
func twoLevel(t *testing.T) (*Scene, *Node, *Node, *recorder, *recorder) {
	t.Helper()
	s := newTestScene()
	childRec := &recorder{paint: func(n *Node, ctx *Context) {
		ctx.FillBackground(n.Get("color"))
	}}
	child := NewNode("child", childRec, Props{"w": 20, "h": 20})
	rootRec := &recorder{paint: func(n *Node, ctx *Context) {
		n.Draw("child", Props{"x": 10, "color": n.State("c"), "label": n.State("label")})
	}}
	root := NewNode("root", rootRec, Props{"w": "100%", "h": "100%"})
	root.Declare("child", child)
	root.InitState(Props{"c": "red", "label": "a"})
	s.NewLayer(LayerConfig{}, root)
	s.Tick()
	return s, root, child, rootRec, childRec
}

func TestMemoizedChild(t *testing.T) {
	s, root, child, rootRec, childRec := twoLevel(t)
	if rootRec.paints != 1 || childRec.paints != 1 {
		t.Fatalf("initial paints root=%d child=%d", rootRec.paints, childRec.paints)
	}
	before := child.Surface()

	// Same props: the child surface is reused.
	root.Update()
	s.Tick()
	if rootRec.paints != 2 || childRec.paints != 1 {
		t.Errorf("after update root=%d child=%d, want 2 and 1", rootRec.paints, childRec.paints)
	}
	if child.Surface() != before {
		t.Error("child surface replaced")
	}

	// A prop the child never reads does not repaint it.
	root.SetState(Props{"label": "b"})
	s.Tick()
	if childRec.paints != 1 {
		t.Errorf("unread prop change repainted the child (%d paints)", childRec.paints)
	}

	// A prop the child read does.
	root.SetState(Props{"c": "blue"})
	s.Tick()
	if childRec.paints != 2 {
		t.Errorf("read prop change: child paints = %d, want 2", childRec.paints)
	}
	assertPixel(t, root.Surface(), 15, 5, opaqueBlue)
}

func TestChildPositionFromProps(t *testing.T) {
	_, root, child, _, _ := twoLevel(t)
	assertPixel(t, root.Surface(), 9, 5, clearPixel)
	assertPixel(t, root.Surface(), 10, 5, opaqueRed)
	assertPixel(t, root.Surface(), 29, 19, opaqueRed)
	assertPixel(t, root.Surface(), 30, 5, clearPixel)
	if child.Father() != root || child.Layer() != root.Layer() {
		t.Error("child back-references not set")
	}
	if got := child.Chain(); len(got) != 2 || got[0] != root || got[1] != child {
		t.Errorf("chain = %v", got)
	}
	if got := root.Children(); len(got) != 1 || got[0] != child {
		t.Errorf("children = %v", got)
	}
}

func TestUpwardInvalidation(t *testing.T) {
	s, root, child, rootRec, childRec := twoLevel(t)
	child.SetState(Props{"x": 1})
	if root.Fresh() && child.Fresh() && !root.Layer().Scheduled() {
		t.Fatal("no frame scheduled")
	}
	s.Tick()
	if rootRec.paints != 2 || childRec.paints != 2 {
		t.Errorf("paints root=%d child=%d, want 2 and 2", rootRec.paints, childRec.paints)
	}
}

func TestSiblingNotRepainted(t *testing.T) {
	s := newTestScene()
	aRec, bRec := &recorder{}, &recorder{}
	a := NewNode("a", aRec, Props{"w": 10, "h": 10})
	b := NewNode("b", bRec, Props{"x": 20, "w": 10, "h": 10})
	root := NewNode("root", PaintFunc(func(n *Node, _ *Context) {
		n.Draw("a", nil)
		n.Draw("b", nil)
	}), nil)
	root.Declare("a", a)
	root.Declare("b", b)
	s.NewLayer(LayerConfig{}, root)
	s.Tick()

	a.Update()
	s.Tick()
	if aRec.paints != 2 || bRec.paints != 1 {
		t.Errorf("paints a=%d b=%d, want 2 and 1", aRec.paints, bRec.paints)
	}
}

func TestSetPropsReadBack(t *testing.T) {
	s := newTestScene()
	rec := &recorder{}
	root := NewNode("root", rec, nil)
	l := s.NewLayer(LayerConfig{}, root)
	s.Tick()

	root.SetProps(Props{"x": 5})
	if root.Get("x") != 5 || root.X() != 5 {
		t.Errorf("x = %v / %v, want 5", root.Get("x"), root.X())
	}
	frames := l.Frames()
	s.Tick()
	if l.Frames() != frames+1 {
		t.Error("moving a root should recomposite the layer")
	}
	if rec.paints != 1 {
		t.Errorf("moving a root repainted it (%d paints)", rec.paints)
	}
}

func TestSetResizesSurface(t *testing.T) {
	s := newTestScene()
	root := NewNode("root", nil, nil)
	s.NewLayer(LayerConfig{}, root)
	s.Tick()

	root.Set("w", "25%")
	if root.Surface().Width() != 50 {
		t.Errorf("surface width = %d, want 50", root.Surface().Width())
	}
	if !root.Layer().Scheduled() {
		t.Error("resize should schedule a frame")
	}
}

func TestSetBeforeBind(t *testing.T) {
	n := NewNode("n", nil, nil)
	n.Set("w", 10)
	if n.Get("w") != 10 {
		t.Errorf("w = %v", n.Get("w"))
	}
}

func TestPercentOfFather(t *testing.T) {
	s := newTestScene()
	child := NewNode("child", nil, Props{"w": "50%", "h": "25%", "x": "10vw"})
	root := NewNode("root", PaintFunc(func(n *Node, _ *Context) { n.Draw("child", nil) }), Props{"w": 200, "h": 80})
	root.Declare("child", child)
	s.NewLayer(LayerConfig{}, root)
	s.Tick()

	g, err := child.Geometry()
	if err != nil {
		t.Fatal(err)
	}
	if g != (Rect{X: 20, Width: 100, Height: 20}) {
		t.Errorf("geometry = %+v", g)
	}
}

func TestGeometryError(t *testing.T) {
	n := NewNode("n", nil, Props{"w": "10 +"})
	if _, err := n.Geometry(); err == nil || !strings.Contains(err.Error(), `prop "w"`) {
		t.Errorf("error = %v", err)
	}
}

func TestUnknownElementPanics(t *testing.T) {
	s := newTestScene()
	var caught any
	root := NewNode("root", PaintFunc(func(n *Node, _ *Context) {
		defer func() { caught = recover() }()
		n.Composite("missing")
	}), nil)
	s.NewLayer(LayerConfig{}, root)
	s.Tick()
	if caught == nil || !strings.Contains(fmt.Sprint(caught), `unknown element "missing"`) {
		t.Errorf("recovered %v", caught)
	}
}

func TestUnboundPanics(t *testing.T) {
	n := NewNode("loose", nil, nil)
	expectPanic(t, "SetProps on unbound node", func() { n.SetProps(Props{"x": 1}) })
	expectPanic(t, "SetState on unbound node", func() { n.SetState(Props{"a": 1}) })
	expectPanic(t, "Update on unbound node", func() { n.Update() })
}

func TestDeclarePanics(t *testing.T) {
	n := NewNode("n", nil, nil)
	expectPanic(t, "nil element", func() { n.Declare("x", nil) })
	expectPanic(t, "cannot declare itself", func() { n.Declare("self", n) })
}

func TestBoundElsewherePanics(t *testing.T) {
	s := newTestScene()
	shared := NewNode("shared", nil, nil)
	drawShared := PaintFunc(func(n *Node, _ *Context) { n.Draw("shared", nil) })
	a := NewNode("a", drawShared, nil)
	b := NewNode("b", drawShared, nil)
	a.Declare("shared", shared)
	b.Declare("shared", shared)
	s.NewLayer(LayerConfig{}, a)
	s.Tick()

	l := s.Layers()[0]
	expectPanic(t, "already bound elsewhere", func() {
		l.Add(b)
		s.Tick()
	})
}

// creator updates its own state when bound, the way a component seeds
// derived state.
type creator struct {
	BaseBehavior
	paints int
}

func (c *creator) Created(n *Node)       { n.SetState(Props{"i": 2}) }
func (c *creator) Paint(*Node, *Context) { c.paints++ }

func TestMutationDuringPaintIsDeferred(t *testing.T) {
	s := newTestScene()
	cr := &creator{}
	child := NewNode("child", cr, Props{"w": 10, "h": 10})
	child.InitState(Props{"i": 1})
	root := NewNode("root", PaintFunc(func(n *Node, _ *Context) { n.Draw("child", nil) }), nil)
	root.Declare("child", child)
	l := s.NewLayer(LayerConfig{}, root)

	s.Tick()
	if child.State("i") != 2 {
		t.Errorf("state i = %v, want 2 after the frame", child.State("i"))
	}
	if cr.paints != 1 || !l.Scheduled() {
		t.Fatalf("paints=%d scheduled=%v; the deferred update should schedule a frame", cr.paints, l.Scheduled())
	}
	s.Tick()
	if cr.paints != 2 {
		t.Errorf("paints = %d, want 2", cr.paints)
	}
}

func TestSetDuringPaintWaitsForFrameEnd(t *testing.T) {
	s := newTestScene()
	var seen []any
	b := NewNode("b", PaintFunc(func(n *Node, _ *Context) { seen = append(seen, n.Get("color")) }),
		Props{"x": 20, "w": 10, "h": 10, "color": "blue"})
	a := NewNode("a", PaintFunc(func(*Node, *Context) {
		if len(seen) == 0 {
			b.Set("color", "red")
		}
	}), Props{"w": 10, "h": 10})
	s.NewLayer(LayerConfig{}, a, b)
	s.Tick()

	if !slices.Equal(seen, []any{"blue"}) {
		t.Fatalf("b saw %v during the frame, want [blue]", seen)
	}
	if got := b.Get("color"); got != "red" {
		t.Errorf("color after the frame = %v, want red", got)
	}
	b.Update()
	s.Tick()
	if !slices.Equal(seen, []any{"blue", "red"}) {
		t.Errorf("b saw %v, want [blue red]", seen)
	}
}

func TestChildrenFollowLastPaint(t *testing.T) {
	s := newTestScene()
	a, b := NewNode("a", nil, Props{"w": 5, "h": 5}), NewNode("b", nil, Props{"w": 5, "h": 5})
	root := NewNode("root", PaintFunc(func(n *Node, _ *Context) {
		n.Draw("a", nil)
		if n.State("both") == true {
			n.Draw("b", nil)
			n.Draw("a", Props{"x": 10})
		}
	}), nil)
	root.Declare("a", a)
	root.Declare("b", b)
	root.InitState(Props{"both": true})
	s.NewLayer(LayerConfig{}, root)
	s.Tick()
	if got := root.Children(); len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("children = %v, want [a b]", got)
	}

	root.SetState(Props{"both": false})
	s.Tick()
	if got := root.Children(); len(got) != 1 || got[0] != a {
		t.Errorf("children = %v, want [a]", got)
	}
}

func TestBackgroundColorProp(t *testing.T) {
	s := newTestScene()
	root := NewNode("root", nil, Props{"w": 10, "h": 10, "backgroundColor": "#0f0"})
	s.NewLayer(LayerConfig{}, root)
	s.Tick()
	assertPixel(t, root.Surface(), 5, 5, opaqueGreen)
}

func TestRequestFrame(t *testing.T) {
	s := newTestScene()
	rec := &recorder{}
	root := NewNode("root", rec, nil)
	s.NewLayer(LayerConfig{}, root)
	s.Tick()

	ran := false
	root.RequestFrame(func() { ran = true })
	s.Tick()
	if !ran || rec.paints != 2 {
		t.Errorf("ran=%v paints=%d", ran, rec.paints)
	}
}

func TestNodeIDsUnique(t *testing.T) {
	a, b := NewNode("a", nil, nil), NewNode("b", nil, nil)
	if a.ID == b.ID || a.ID == 0 {
		t.Errorf("ids %d and %d", a.ID, b.ID)
	}
	if a.Scene() != nil {
		t.Error("unbound node should have no scene")
	}
}
