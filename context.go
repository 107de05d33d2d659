package brush

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Context is the drawing handle passed to Paint. It embeds the gg context, so
// every gg primitive is available unchanged, and adds unit-aware helpers,
// paint-preserving Save/Restore and surface compositing.
type Context struct {
	*gg.Context

	surface *Surface
	node    *Node  // nil for layer contexts
	layer   *Layer // nil for standalone contexts

	saved    []savedPaint
	scopes   []*Proxy
	warnings []string
	hits     []hitPath
}

type savedPaint struct {
	brush  gg.Brush
	stroke gg.Stroke
}

// NewContext returns a standalone context drawing into s. Percentages and
// viewport units resolve against the surface size.
func NewContext(s *Surface) *Context {
	return &Context{Context: s.dc, surface: s}
}

func newNodeContext(s *Surface, n *Node) *Context {
	return &Context{Context: s.dc, surface: s, node: n, layer: n.layer}
}

func newLayerContext(s *Surface, l *Layer) *Context {
	return &Context{Context: s.dc, surface: s, layer: l}
}

// Surface returns the surface the context draws into.
func (c *Context) Surface() *Surface { return c.surface }

// Warnings returns the warnings recorded during the current or most recent
// paint, such as composite scopes that were never closed.
func (c *Context) Warnings() []string { return c.warnings }

func (c *Context) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.warnings = append(c.warnings, msg)
	name := ""
	if c.node != nil {
		name = c.node.Name
	}
	Logger().Warn(msg, zap.String("node", name))
}

// Save pushes the transform, clip and paint state. gg's Push does not cover
// the brush and stroke, so they are saved alongside.
func (c *Context) Save() {
	c.saved = append(c.saved, savedPaint{brush: c.FillBrush(), stroke: c.GetStroke()})
	c.Push()
}

// Restore pops the state saved by the matching Save. Unbalanced calls are
// ignored.
func (c *Context) Restore() {
	if len(c.saved) == 0 {
		return
	}
	p := c.saved[len(c.saved)-1]
	c.saved = c.saved[:len(c.saved)-1]
	c.Pop()
	if p.brush != nil {
		c.SetFillBrush(p.brush)
	}
	c.SetStroke(p.stroke)
}

// reset prepares the context for a fresh paint: unwinds unbalanced saves,
// clears the path and transform, and drops warnings and hit paths.
func (c *Context) reset() {
	for len(c.saved) > 0 {
		c.Restore()
	}
	c.scopes = nil
	c.warnings = nil
	c.hits = nil
	c.ClearPath()
	c.Identity()
}

// basis returns the resolution frame for one axis.
func (c *Context) basis(horizontal bool) Basis {
	b := Basis{ViewW: float64(c.surface.Width()), ViewH: float64(c.surface.Height())}
	if c.layer != nil {
		b.ViewW, b.ViewH = float64(c.layer.w), float64(c.layer.h)
	}
	if horizontal {
		b.Ref = float64(c.surface.Width())
	} else {
		b.Ref = float64(c.surface.Height())
	}
	return b
}

// ResolveRect resolves four dims against the surface: x and w against its
// width, y and h against its height. Results are whole pixels; negative sizes
// clamp to zero.
func (c *Context) ResolveRect(x, y, w, h Dim) (Rect, error) {
	bx, by := c.basis(true), c.basis(false)
	var r Rect
	var err error
	if r.X, err = x.Pixels(bx); err != nil {
		return Rect{}, err
	}
	if r.Y, err = y.Pixels(by); err != nil {
		return Rect{}, err
	}
	if r.Width, err = w.Pixels(bx); err != nil {
		return Rect{}, err
	}
	if r.Height, err = h.Pixels(by); err != nil {
		return Rect{}, err
	}
	r.Width, r.Height = max(r.Width, 0), max(r.Height, 0)
	return r, nil
}

// RectOpts describes a rectangle for [Context.Rect].
type RectOpts struct {
	X, Y, W, H Dim

	// Color is the border color, stroked when Border > 0.
	Color  any
	Border float64
	// BackgroundColor fills the rectangle. With neither a border nor a
	// background the rectangle is filled with the current brush.
	BackgroundColor any
}

// Rect draws a rectangle whose geometry may mix pixels, percentages and
// viewport units: the border is stroked first, then the background is
// filled. Paint state is scoped to the call. The resolved rectangle is
// returned.
func (c *Context) Rect(o RectOpts) (Rect, error) {
	r, err := c.ResolveRect(o.X, o.Y, o.W, o.H)
	if err != nil {
		return Rect{}, err
	}
	c.Save()
	defer c.Restore()
	defer c.ClearPath()

	c.ClearPath()
	c.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	border, hasBorder := parseColor(o.Color)
	hasBorder = hasBorder && o.Border > 0
	bg, hasBG := parseColor(o.BackgroundColor)
	if hasBorder {
		c.SetFillBrush(gg.Solid(border))
		c.SetLineWidth(o.Border)
		if err := c.StrokePreserve(); err != nil {
			return r, err
		}
	}
	if hasBG || !hasBorder {
		if hasBG {
			c.SetFillBrush(gg.Solid(bg))
		}
		if err := c.FillPreserve(); err != nil {
			return r, err
		}
	}
	c.recordHit([]Vec2{{r.X, r.Y}, {r.X + r.Width, r.Y}, {r.X + r.Width, r.Y + r.Height}, {r.X, r.Y + r.Height}})
	return r, nil
}

// Point is a polygon vertex whose coordinates may be relative.
type Point struct {
	X, Y Dim
}

// Pt returns an absolute point.
func Pt(x, y float64) Point { return Point{X: Px(x), Y: Px(y)} }

// PolygonOpts styles a polygon drawn with [Context.Polygon].
type PolygonOpts struct {
	Stroke    any // defaults to the current brush
	LineWidth float64
	Fill      any // optional
}

// Polygon strokes the closed outline through points. The outline always
// returns to the first point. Fewer than two points draws nothing.
func (c *Context) Polygon(points []Point, o PolygonOpts) error {
	if len(points) < 2 {
		return nil
	}
	bx, by := c.basis(true), c.basis(false)
	verts := make([]Vec2, len(points))
	for i, p := range points {
		x, err := p.X.Pixels(bx)
		if err != nil {
			return err
		}
		y, err := p.Y.Pixels(by)
		if err != nil {
			return err
		}
		verts[i] = Vec2{x, y}
	}

	c.Save()
	defer c.Restore()
	c.ClearPath()
	c.MoveTo(verts[0].X, verts[0].Y)
	for _, v := range verts[1:] {
		c.LineTo(v.X, v.Y)
	}
	c.ClosePath()
	if fill, ok := parseColor(o.Fill); ok {
		c.SetFillBrush(gg.Solid(fill))
		if err := c.FillPreserve(); err != nil {
			c.ClearPath()
			return err
		}
	}
	if stroke, ok := parseColor(o.Stroke); ok {
		c.SetFillBrush(gg.Solid(stroke))
	}
	if o.LineWidth > 0 {
		c.SetLineWidth(o.LineWidth)
	}
	err := c.Stroke()
	c.recordHit(verts)
	return err
}

// FillBackground fills the whole surface with col.
func (c *Context) FillBackground(col any) error {
	rgba, ok := parseColor(col)
	if !ok {
		return fmt.Errorf("brush: invalid color %v", col)
	}
	c.Save()
	defer c.Restore()
	c.Identity()
	c.ClearPath()
	w, h := float64(c.surface.Width()), float64(c.surface.Height())
	c.DrawRectangle(0, 0, w, h)
	c.SetFillBrush(gg.Solid(rgba))
	err := c.Fill()
	c.recordHit([]Vec2{{0, 0}, {w, 0}, {w, h}, {0, h}})
	return err
}

// recordHit stores a painted region in surface coordinates for exact
// hit-testing. Only node contexts record.
func (c *Context) recordHit(verts []Vec2) {
	if c.node == nil {
		return
	}
	pts := make([]Vec2, len(verts))
	for i, v := range verts {
		x, y := c.TransformPoint(v.X, v.Y)
		pts[i] = Vec2{x, y}
	}
	c.hits = append(c.hits, hitPath(pts))
}

// DrawSurface composites src with its top-left corner at (x, y) in the
// current user space, source-over. Pure translations blit pixel-aligned;
// any other transform is resampled bilinearly.
func (c *Context) DrawSurface(src *Surface, x, y float64) {
	m := c.GetTransform()
	dst := c.surface.NRGBA()
	img := src.NRGBA()
	if m.A == 1 && m.B == 0 && m.D == 0 && m.E == 1 {
		dx := int(roundPixel(m.C + x))
		dy := int(roundPixel(m.F + y))
		r := image.Rect(dx, dy, dx+img.Rect.Dx(), dy+img.Rect.Dy())
		draw.Draw(dst, r, img, image.Point{}, draw.Over)
		return
	}
	s2d := f64.Aff3{
		m.A, m.B, m.A*x + m.B*y + m.C,
		m.D, m.E, m.D*x + m.E*y + m.F,
	}
	draw.BiLinear.Transform(dst, s2d, img, img.Rect, draw.Over, nil)
}

// closeScopesAbove auto-closes every composite scope opened after p (or all
// of them when p is nil), restoring the state each one saved.
func (c *Context) closeScopesAbove(p *Proxy) {
	for len(c.scopes) > 0 {
		top := c.scopes[len(c.scopes)-1]
		if top == p {
			return
		}
		c.warn("brush: composite scope for %q not closed; closed automatically", top.target.Name)
		top.Done()
	}
}
