package ebitenhost

import (
	"image"

	"golang.org/x/image/draw"
)

// premultiply converts straight-alpha brush pixels into the premultiplied
// layout ebiten expects. dst must match src in size.
func premultiply(dst *image.RGBA, src *image.NRGBA) {
	draw.Draw(dst, dst.Rect, src, src.Rect.Min, draw.Src)
}
