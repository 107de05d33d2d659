package brush

import (
	"image"

	"github.com/gogpu/gg"
)

// Surface is an offscreen (or layer-backing) raster owned by exactly one node
// or layer. Pixels are straight-alpha RGBA.
type Surface struct {
	dc       *gg.Context
	onscreen bool
}

// SurfaceProvider allocates surfaces. Hosts with their own raster backend
// supply one through [SceneConfig].
type SurfaceProvider interface {
	NewSurface(w, h int, onscreen bool) *Surface
}

// SoftwareProvider allocates CPU surfaces backed by gg.
type SoftwareProvider struct{}

// NewSurface implements [SurfaceProvider].
func (SoftwareProvider) NewSurface(w, h int, onscreen bool) *Surface {
	s := NewSurface(w, h)
	s.onscreen = onscreen
	return s
}

// NewSurface allocates a software surface of at least 1x1 pixels.
func NewSurface(w, h int) *Surface {
	return &Surface{dc: gg.NewContext(max(w, 1), max(h, 1))}
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.dc.Width() }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.dc.Height() }

// Onscreen reports whether the surface backs a visible layer.
func (s *Surface) Onscreen() bool { return s.onscreen }

// Canvas returns the underlying gg context.
func (s *Surface) Canvas() *gg.Context { return s.dc }

// Clear resets every pixel to transparent.
func (s *Surface) Clear() { s.dc.Clear() }

// resize reallocates the backing pixmap when the size differs. It reports
// whether a reallocation happened; pixel content is lost when it does.
func (s *Surface) resize(w, h int) bool {
	w, h = max(w, 1), max(h, 1)
	if w == s.Width() && h == s.Height() {
		return false
	}
	if err := s.dc.Resize(w, h); err != nil {
		panic("brush: " + err.Error())
	}
	return true
}

// NRGBA returns an image that aliases the surface pixels. The view is
// invalidated by the next resize.
func (s *Surface) NRGBA() *image.NRGBA {
	pm := s.dc.ResizeTarget()
	return &image.NRGBA{
		Pix:    pm.Data(),
		Stride: pm.Width() * 4,
		Rect:   image.Rect(0, 0, pm.Width(), pm.Height()),
	}
}

// Snapshot returns a copy of the surface pixels that the caller owns.
func (s *Surface) Snapshot() *image.NRGBA {
	src := s.NRGBA()
	dst := image.NewNRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
