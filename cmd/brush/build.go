package main

import (
	"errors"

	"github.com/phanxgames/brush"
)

// builtScene is a scene assembled from a sceneFile together with the worker
// compositors it started.
type builtScene struct {
	scene   *brush.Scene
	workers []*brush.WorkerCompositor
}

// Close stops the compositor workers.
func (b *builtScene) Close() error {
	var errs []error
	for _, w := range b.workers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}

func buildScene(f *sceneFile) *builtScene {
	scene := brush.NewScene(brush.SceneConfig{Width: f.Width, Height: f.Height})
	scene.SetDebugMode(f.Debug)
	for k, v := range f.State {
		scene.Set(k, v)
	}
	b := &builtScene{scene: scene}
	for _, lf := range f.Layers {
		cfg := brush.LayerConfig{
			Name: lf.Name,
			X:    lf.X,
			Y:    lf.Y,
			W:    lf.W,
			H:    lf.H,
		}
		if lf.Background != "" {
			cfg.Background = lf.Background
		}
		if lf.Opaque {
			cfg.Opacity = brush.OpacityOpaque
		}
		if lf.Worker {
			w := brush.NewWorkerCompositor(0)
			b.workers = append(b.workers, w)
			cfg.Compositor = w
		}
		roots := make([]*brush.Node, 0, len(lf.Boxes))
		for _, bf := range lf.Boxes {
			roots = append(roots, newBox(scene, bf))
		}
		scene.NewLayer(cfg, roots...)
	}
	return b
}

// box paints a bordered rectangle and composites its child boxes on top,
// in declaration order.
type box struct {
	brush.BaseBehavior
	order  []string
	rotate map[string]float64
	elems  map[string]*brush.Node
}

func (b *box) Elements() map[string]*brush.Node { return b.elems }

func (b *box) Paint(n *brush.Node, ctx *brush.Context) {
	color, background := n.Get("color"), n.Get("background")
	border, _ := n.Get("border").(float64)
	if background != "" || (color != "" && border > 0) {
		if _, err := ctx.Rect(brush.RectOpts{
			W: brush.Pct(100), H: brush.Pct(100),
			Color: color, Border: border, BackgroundColor: background,
		}); err != nil {
			brush.Logger().Sugar().Warnf("box %q: %v", n.Name, err)
		}
	}
	for _, name := range b.order {
		p := n.Composite(name).Paint(nil)
		if deg := b.rotate[name]; deg != 0 {
			p.Rotate(deg, brush.Pct(50), brush.Pct(50))
		}
		p.Done()
	}
}

func newBox(scene *brush.Scene, f boxFile) *brush.Node {
	b := &box{rotate: map[string]float64{}, elems: map[string]*brush.Node{}}
	for _, cf := range f.Boxes {
		b.order = append(b.order, cf.Name)
		b.rotate[cf.Name] = cf.Rotate
		b.elems[cf.Name] = newBox(scene, cf)
	}

	props := brush.Props{"color": f.Color, "border": f.Border, "background": f.Background}
	for k, v := range map[string]any{"x": f.X, "y": f.Y, "w": f.W, "h": f.H} {
		if v != nil {
			props[k] = v
		}
	}
	if f.BackgroundFrom != "" {
		if v, ok := scene.Get(f.BackgroundFrom); ok {
			props["background"] = v
		}
	}
	n := brush.NewNode(f.Name, b, props)

	if f.Cursor != "" {
		n.On(brush.EventIn, func(brush.Event) { n.Layer().SetCursor(f.Cursor) })
		n.On(brush.EventOut, func(brush.Event) { n.Layer().SetCursor("") })
	}
	if f.OnClick != nil {
		action := *f.OnClick
		n.On(brush.EventClick, func(brush.Event) { scene.Set(action.Key, action.Value) })
	}
	if f.BackgroundFrom != "" {
		scene.Subscribe(f.BackgroundFrom, func(_ string, v any) {
			if !n.Bound() {
				n.Set("background", v)
				return
			}
			n.SetProps(brush.Props{"background": v})
		})
	}
	return n
}
