package brush

// FrameHandle identifies a scheduled frame callback.
type FrameHandle uint64

// FrameScheduler runs callbacks at the next display frame.
type FrameScheduler interface {
	Schedule(fn func()) FrameHandle
	Cancel(h FrameHandle)
}

// TickScheduler is a [FrameScheduler] driven by explicit Tick calls. The
// ebiten host ticks it once per Update; tests tick it by hand.
type TickScheduler struct {
	next  FrameHandle
	order []FrameHandle
	live  map[FrameHandle]func()
}

// NewTickScheduler returns an empty scheduler.
func NewTickScheduler() *TickScheduler {
	return &TickScheduler{live: map[FrameHandle]func(){}}
}

// Schedule queues fn for the next Tick.
func (s *TickScheduler) Schedule(fn func()) FrameHandle {
	s.next++
	s.order = append(s.order, s.next)
	s.live[s.next] = fn
	return s.next
}

// Cancel drops a queued callback. Cancelling a callback that already ran, or
// one queued in the batch currently running, is safe.
func (s *TickScheduler) Cancel(h FrameHandle) {
	delete(s.live, h)
}

// Pending returns the number of queued callbacks.
func (s *TickScheduler) Pending() int { return len(s.live) }

// Tick runs every callback queued before the call, in scheduling order.
// Callbacks scheduled while ticking run on the next Tick. It returns the
// number of callbacks run.
func (s *TickScheduler) Tick() int {
	batch := s.order
	s.order = nil
	ran := 0
	for _, h := range batch {
		fn, ok := s.live[h]
		if !ok {
			continue
		}
		delete(s.live, h)
		fn()
		ran++
	}
	return ran
}

// ticker is implemented by schedulers the scene drives from Tick.
type ticker interface {
	Tick() int
}
