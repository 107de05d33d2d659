package ebitenhost

import "github.com/hajimehoshi/ebiten/v2"

// cursorShape maps CSS cursor names set with Layer.SetCursor to ebiten
// cursor shapes. Unknown names fall back to the default arrow.
func cursorShape(name string) ebiten.CursorShapeType {
	switch name {
	case "pointer":
		return ebiten.CursorShapePointer
	case "text":
		return ebiten.CursorShapeText
	case "crosshair":
		return ebiten.CursorShapeCrosshair
	case "ew-resize", "col-resize":
		return ebiten.CursorShapeEWResize
	case "ns-resize", "row-resize":
		return ebiten.CursorShapeNSResize
	case "nesw-resize":
		return ebiten.CursorShapeNESWResize
	case "nwse-resize":
		return ebiten.CursorShapeNWSEResize
	case "move":
		return ebiten.CursorShapeMove
	case "not-allowed":
		return ebiten.CursorShapeNotAllowed
	}
	return ebiten.CursorShapeDefault
}
