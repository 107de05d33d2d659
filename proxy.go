package brush

import (
	"math"

	"github.com/gogpu/gg"
)

// Proxy is a composite scope over one named child, returned by
// [Node.Composite]. Paint renders the child and opens the scope, the
// transform methods adjust where the child lands, and Done blits it and
// restores the father's state:
//
//	n.Composite("needle").Paint(brush.Props{"x": 40}).Rotate(30, brush.Pct(50), brush.Px(0)).Done()
//
// Transform values resolve against the child's size. The first resolution
// error is kept in Err and the offending transform is skipped.
type Proxy struct {
	father *Node
	target *Node
	ctx    *Context

	originX, originY float64
	open             bool
	visible          bool
	err              error
}

func newProxy(father, target *Node) *Proxy {
	return &Proxy{father: father, target: target, ctx: father.ctx}
}

// Target returns the child the scope composites.
func (p *Proxy) Target() *Node { return p.target }

// Err returns the first error raised while resolving a transform.
func (p *Proxy) Err() error { return p.err }

// Paint renders the child with props and opens the scope, translated to the
// child's position. Scopes still open on the father's context are closed
// first, with a warning. A child that falls entirely outside the father's
// surface is not rendered.
func (p *Proxy) Paint(props Props) *Proxy {
	if p.open {
		p.ctx.warn("brush: composite scope for %q painted twice", p.target.Name)
		return p
	}
	p.ctx.closeScopesAbove(nil)
	p.target.props.merge(props)
	b := p.target.mustGeometry()
	bounds := Rect{Width: float64(p.father.surface.Width()), Height: float64(p.father.surface.Height())}
	p.visible = b.Intersects(bounds)
	if p.visible {
		p.target.RenderWithProps(props)
	}
	p.ctx.Save()
	p.ctx.Translate(b.X, b.Y)
	p.ctx.scopes = append(p.ctx.scopes, p)
	p.open = true
	return p
}

func (p *Proxy) resolve(d Dim, horizontal bool) (float64, bool) {
	if p.err != nil {
		return 0, false
	}
	vw, vh := p.target.viewport()
	b := Basis{Ref: float64(p.target.surface.Height()), ViewW: vw, ViewH: vh}
	if horizontal {
		b.Ref = float64(p.target.surface.Width())
	}
	v, err := d.Pixels(b)
	if err != nil {
		p.err = err
		p.ctx.warn("brush: composite transform for %q: %v", p.target.Name, err)
		return 0, false
	}
	return v, true
}

func (p *Proxy) usable(op string) bool {
	if !p.open {
		p.ctx.warn("brush: %s on composite scope for %q before Paint", op, p.target.Name)
		return false
	}
	return true
}

// Translate shifts the child by (x, y).
func (p *Proxy) Translate(x, y Dim) *Proxy {
	if !p.usable("Translate") {
		return p
	}
	tx, okx := p.resolve(x, true)
	ty, oky := p.resolve(y, false)
	if okx && oky {
		p.ctx.Translate(tx, ty)
	}
	return p
}

// TranslateX shifts the child horizontally.
func (p *Proxy) TranslateX(x Dim) *Proxy { return p.Translate(x, Px(0)) }

// TranslateY shifts the child vertically.
func (p *Proxy) TranslateY(y Dim) *Proxy { return p.Translate(Px(0), y) }

// Rotate turns the child by deg degrees around the pivot (px, py) in the
// child's own coordinates.
func (p *Proxy) Rotate(deg float64, px, py Dim) *Proxy {
	if !p.usable("Rotate") {
		return p
	}
	x, okx := p.resolve(px, true)
	y, oky := p.resolve(py, false)
	if !okx || !oky {
		return p
	}
	p.ctx.Translate(x, y)
	p.originX, p.originY = -x, -y
	p.ctx.Rotate(math.Mod(deg, 360) * math.Pi / 180)
	return p
}

// Scale scales the child.
func (p *Proxy) Scale(sx, sy float64) *Proxy {
	if p.usable("Scale") {
		p.ctx.Scale(sx, sy)
	}
	return p
}

// Transform multiplies the current matrix by [a c e; b d f], the 2D canvas
// convention.
func (p *Proxy) Transform(a, b, c, d, e, f float64) *Proxy {
	if p.usable("Transform") {
		p.ctx.Transform(ggMatrix(a, b, c, d, e, f))
	}
	return p
}

// Done blits the child and restores the father's state. Calling Done on a
// closed scope is a no-op.
func (p *Proxy) Done() {
	if !p.open {
		return
	}
	p.ctx.closeScopesAbove(p)
	if p.visible {
		p.ctx.DrawSurface(p.target.surface, p.originX, p.originY)
	}
	p.ctx.Restore()
	p.open = false
	if n := len(p.ctx.scopes); n > 0 && p.ctx.scopes[n-1] == p {
		p.ctx.scopes = p.ctx.scopes[:n-1]
	}
}

func ggMatrix(a, b, c, d, e, f float64) gg.Matrix {
	return gg.Matrix{A: a, B: c, C: e, D: b, E: d, F: f}
}
