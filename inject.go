package brush

import "fmt"

// syntheticPointerEvent is one queued injected input step in scene
// coordinates. All of its kinds are routed through Scene.Pointer during a
// single Tick.
type syntheticPointerEvent struct {
	x, y  float64
	kinds []EventKind
}

func (s *Scene) inject(x, y float64, kinds ...EventKind) {
	s.injectQueue = append(s.injectQueue, syntheticPointerEvent{x: x, y: y, kinds: kinds})
}

// InjectPress queues "over" then "down" at (x, y) for the next Tick.
func (s *Scene) InjectPress(x, y float64) { s.inject(x, y, EventOver, EventDown) }

// InjectMove queues an "over" at (x, y).
func (s *Scene) InjectMove(x, y float64) { s.inject(x, y, EventOver) }

// InjectRelease queues "up" then "click" at (x, y), the same pair the ebiten
// host reports when a button is released.
func (s *Scene) InjectRelease(x, y float64) { s.inject(x, y, EventUp, EventClick) }

// InjectClick queues a press and a release at (x, y); it spans two ticks.
func (s *Scene) InjectClick(x, y float64) {
	s.InjectPress(x, y)
	s.InjectRelease(x, y)
}

// InjectClickNode clicks the center of the named node, as located by
// FindNode and SceneBounds.
func (s *Scene) InjectClickNode(name string) error {
	x, y, err := s.nodeCenter(name)
	if err != nil {
		return err
	}
	s.InjectClick(x, y)
	return nil
}

// InjectDrag queues a press at the start, evenly spaced moves and a release
// at the end, one per tick, frames ticks in total (at least 2).
func (s *Scene) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	frames = max(frames, 2)
	s.InjectPress(fromX, fromY)
	for i := 1; i < frames-1; i++ {
		t := float64(i) / float64(frames-1)
		s.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	s.InjectRelease(toX, toY)
}

func (s *Scene) nodeCenter(name string) (float64, float64, error) {
	n := s.FindNode(name)
	if n == nil {
		return 0, 0, fmt.Errorf("brush: no painted node named %q", name)
	}
	b, err := n.SceneBounds()
	if err != nil {
		return 0, 0, err
	}
	return b.X + b.Width/2, b.Y + b.Height/2, nil
}

// processInjectedInput routes the oldest queued step and reports whether
// there was one.
func (s *Scene) processInjectedInput() bool {
	if len(s.injectQueue) == 0 {
		return false
	}
	ev := s.injectQueue[0]
	s.injectQueue = s.injectQueue[1:]
	for _, k := range ev.kinds {
		s.Pointer(k, ev.x, ev.y)
	}
	return true
}
