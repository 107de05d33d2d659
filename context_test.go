package brush

import (
	"image/color"
	"strings"
	"testing"

	"github.com/gogpu/gg"
)

var (
	opaqueRed   = color.NRGBA{R: 255, A: 255}
	opaqueGreen = color.NRGBA{G: 255, A: 255}
	opaqueBlue  = color.NRGBA{B: 255, A: 255}
	clearPixel  = color.NRGBA{}
)

func pixelAt(s *Surface, x, y int) color.NRGBA {
	return s.NRGBA().NRGBAAt(x, y)
}

func assertPixel(t *testing.T, s *Surface, x, y int, want color.NRGBA) {
	t.Helper()
	if got := pixelAt(s, x, y); got != want {
		t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
	}
}

func TestResolveRect(t *testing.T) {
	ctx := NewContext(NewSurface(200, 100))
	tests := []struct {
		name       string
		x, y, w, h Dim
		want       Rect
	}{
		{"percent", Pct(50), Px(0), Pct(50), Pct(100), Rect{X: 100, Y: 0, Width: 100, Height: 100}},
		{"expr", Expr("50% - 10"), Expr("10vh"), Expr("100% - 20"), Px(5), Rect{X: 90, Y: 10, Width: 180, Height: 5}},
		{"negative size", Px(0), Px(0), Px(-5), Pct(-10), Rect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ctx.ResolveRect(tt.x, tt.y, tt.w, tt.h)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ResolveRect = %+v, want %+v", got, tt.want)
			}
		})
	}

	if _, err := ctx.ResolveRect(Px(0), Px(0), Expr("10 +"), Px(0)); err == nil {
		t.Error("expected a unit error")
	}
}

func TestRectBackground(t *testing.T) {
	s := NewSurface(200, 100)
	ctx := NewContext(s)
	r, err := ctx.Rect(RectOpts{X: Pct(50), W: Pct(50), H: Pct(100), BackgroundColor: "red"})
	if err != nil {
		t.Fatal(err)
	}
	if r.X != 100 || r.Width != 100 {
		t.Errorf("rect = %+v, want x=100 w=100", r)
	}
	assertPixel(t, s, 150, 50, opaqueRed)
	assertPixel(t, s, 50, 50, clearPixel)
}

func TestRectBorderOnly(t *testing.T) {
	s := NewSurface(100, 100)
	ctx := NewContext(s)
	if _, err := ctx.Rect(RectOpts{X: Px(10), Y: Px(10), W: Px(80), H: Px(80), Color: "#0000ff", Border: 4}); err != nil {
		t.Fatal(err)
	}
	assertPixel(t, s, 10, 50, opaqueBlue)
	assertPixel(t, s, 50, 50, clearPixel)
}

func TestRectFallsBackToCurrentBrush(t *testing.T) {
	s := NewSurface(50, 50)
	ctx := NewContext(s)
	ctx.SetFillBrush(gg.Solid(gg.RGBA{G: 1, A: 1}))
	if _, err := ctx.Rect(RectOpts{W: Pct(100), H: Pct(100)}); err != nil {
		t.Fatal(err)
	}
	assertPixel(t, s, 25, 25, opaqueGreen)
}

func TestRectDoesNotLeakPaint(t *testing.T) {
	s := NewSurface(50, 50)
	ctx := NewContext(s)
	ctx.SetFillBrush(gg.Solid(gg.RGBA{G: 1, A: 1}))
	ctx.Rect(RectOpts{W: Px(10), H: Px(10), BackgroundColor: "red", Color: "blue", Border: 2})

	ctx.DrawRectangle(20, 20, 10, 10)
	if err := ctx.Fill(); err != nil {
		t.Fatal(err)
	}
	assertPixel(t, s, 25, 25, opaqueGreen)
}

func TestSaveRestoreKeepsPaint(t *testing.T) {
	s := NewSurface(50, 50)
	ctx := NewContext(s)
	ctx.SetFillBrush(gg.Solid(gg.RGBA{G: 1, A: 1}))
	ctx.SetLineWidth(3)

	ctx.Save()
	ctx.SetFillBrush(gg.Solid(gg.RGBA{R: 1, A: 1}))
	ctx.SetLineWidth(9)
	ctx.Translate(100, 100)
	ctx.Restore()

	if got := ctx.GetStroke().Width; got != 3 {
		t.Errorf("line width = %v, want 3", got)
	}
	ctx.DrawRectangle(0, 0, 10, 10)
	ctx.Fill()
	assertPixel(t, s, 5, 5, opaqueGreen)

	ctx.Restore() // unbalanced restores are ignored
}

func TestPolygon(t *testing.T) {
	s := NewSurface(100, 100)
	ctx := NewContext(s)
	err := ctx.Polygon([]Point{Pt(0, 0), {X: Pct(100), Y: Px(0)}, {X: Px(0), Y: Pct(100)}},
		PolygonOpts{Stroke: "red", LineWidth: 1, Fill: "red"})
	if err != nil {
		t.Fatal(err)
	}
	assertPixel(t, s, 10, 10, opaqueRed)
	assertPixel(t, s, 90, 90, clearPixel)

	if err := ctx.Polygon([]Point{Pt(1, 1)}, PolygonOpts{}); err != nil {
		t.Errorf("single point: %v", err)
	}
	if err := ctx.Polygon([]Point{Pt(0, 0), {X: Expr("1 /"), Y: Px(0)}}, PolygonOpts{}); err == nil {
		t.Error("expected a unit error")
	}
}

func TestFillBackground(t *testing.T) {
	s := NewSurface(20, 20)
	ctx := NewContext(s)
	ctx.Translate(50, 50) // ignored: the whole surface is filled
	if err := ctx.FillBackground("#00f"); err != nil {
		t.Fatal(err)
	}
	assertPixel(t, s, 0, 0, opaqueBlue)
	assertPixel(t, s, 19, 19, opaqueBlue)

	if err := ctx.FillBackground("nope"); err == nil || !strings.Contains(err.Error(), "invalid color") {
		t.Errorf("error = %v, want invalid color", err)
	}
}

func TestDrawSurface(t *testing.T) {
	src := NewSurface(10, 10)
	NewContext(src).FillBackground("red")

	dst := NewSurface(50, 50)
	ctx := NewContext(dst)
	ctx.DrawSurface(src, 5, 5)
	assertPixel(t, dst, 4, 4, clearPixel)
	assertPixel(t, dst, 5, 5, opaqueRed)
	assertPixel(t, dst, 14, 14, opaqueRed)
	assertPixel(t, dst, 15, 15, clearPixel)

	ctx.Translate(20, 0)
	ctx.DrawSurface(src, 5, 5)
	assertPixel(t, dst, 29, 10, opaqueRed)
	assertPixel(t, dst, 35, 10, clearPixel)
}

func TestDrawSurfaceScaled(t *testing.T) {
	src := NewSurface(10, 10)
	NewContext(src).FillBackground("red")

	dst := NewSurface(50, 50)
	ctx := NewContext(dst)
	ctx.Scale(2, 2)
	ctx.DrawSurface(src, 0, 0)
	assertPixel(t, dst, 10, 10, opaqueRed)
	assertPixel(t, dst, 30, 30, clearPixel)
}

func TestSurfaceSnapshotIsCopy(t *testing.T) {
	s := NewSurface(4, 4)
	snap := s.Snapshot()
	NewContext(s).FillBackground("red")
	if snap.NRGBAAt(1, 1) != clearPixel {
		t.Error("snapshot changed with the surface")
	}
	if pixelAt(s, 1, 1) != opaqueRed {
		t.Error("NRGBA view should alias the surface")
	}
}

func TestSurfaceMinimumSize(t *testing.T) {
	s := NewSurface(0, -3)
	if s.Width() != 1 || s.Height() != 1 {
		t.Errorf("size = %dx%d, want 1x1", s.Width(), s.Height())
	}
	if !s.resize(5, 6) || s.Width() != 5 || s.Height() != 6 {
		t.Errorf("resize to 5x6 gave %dx%d", s.Width(), s.Height())
	}
	if s.resize(5, 6) {
		t.Error("resize to the same size should report false")
	}
}
