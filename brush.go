package brush

// Vec2 is a 2D vector used for positions and offsets.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle. The
// near edges are inside and the far edges are not, so a 50 px wide rectangle
// at x=0 covers x in [0, 50) and its right neighbour owns x=50.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.Width &&
		y >= r.Y && y < r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Props is a free-form property mapping. Values are numbers, strings (unit
// expressions, colors), [Dim] values, or arbitrary component data.
type Props map[string]any

// Opacity declares whether a layer fully covers the layers beneath it.
type Opacity uint8

const (
	// OpacityAuto infers opacity from the layer background: a background
	// with alpha 1 is opaque, anything else (or none) is transparent.
	OpacityAuto Opacity = iota
	// OpacityOpaque hides every layer beneath while this one is shown.
	OpacityOpaque
	// OpacityTransparent always lets lower layers show through.
	OpacityTransparent
)

// EventKind names a pointer event.
type EventKind string

const (
	EventClick EventKind = "click"
	EventDown  EventKind = "down"
	EventUp    EventKind = "up"
	EventOver  EventKind = "over" // pointer moved over a node
	EventIn    EventKind = "in"   // pointer entered a node; not bubbled
	EventOut   EventKind = "out"  // pointer left a node; not bubbled
)
