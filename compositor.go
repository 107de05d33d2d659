package brush

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// CompositeMessageType enumerates the compositor protocol.
type CompositeMessageType uint8

const (
	// MessageInit (re)allocates the worker canvas at W x H.
	MessageInit CompositeMessageType = iota
	// MessageBegin clears the canvas for a new frame, filling it with
	// Background when set.
	MessageBegin
	// MessageCommit draws Bitmap at (X, Y).
	MessageCommit
	// MessageEnd finishes frame Seq; the worker replies with the canvas and
	// the same Seq.
	MessageEnd
)

func (t CompositeMessageType) String() string {
	switch t {
	case MessageInit:
		return "init"
	case MessageBegin:
		return "begin"
	case MessageCommit:
		return "commit"
	case MessageEnd:
		return "end"
	}
	return "unknown"
}

// CompositeMessage is one step of a frame sent to a [Compositor]. Ownership
// of Bitmap passes to the receiver.
type CompositeMessage struct {
	Type   CompositeMessageType
	W, H   int
	Bitmap *image.NRGBA
	X, Y   int
	Seq    uint64

	Background color.Color
}

// CompositeReply is the finished canvas for the frame whose end message
// carried Seq.
type CompositeReply struct {
	Seq   uint64
	Image *image.NRGBA
}

// Compositor assembles committed bitmaps off the main loop. Each end message
// yields exactly one reply, in order.
type Compositor interface {
	Send(msg CompositeMessage) error
	Replies() <-chan CompositeReply
}

var (
	// ErrCompositorClosed is returned by Send after Close.
	ErrCompositorClosed = errors.New("brush: compositor closed")
	// ErrCompositorBusy is returned by Send when the input queue is full.
	ErrCompositorBusy = errors.New("brush: compositor queue full")
)

// WorkerCompositor is a [Compositor] running on its own goroutine.
type WorkerCompositor struct {
	in        chan CompositeMessage
	out       chan CompositeReply
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWorkerCompositor starts a worker whose input queue holds queueSize
// messages (64 when queueSize <= 0).
func NewWorkerCompositor(queueSize int) *WorkerCompositor {
	if queueSize <= 0 {
		queueSize = 64
	}
	w := &WorkerCompositor{
		in:   make(chan CompositeMessage, queueSize),
		out:  make(chan CompositeReply, 1),
		done: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// Send enqueues msg without blocking.
func (w *WorkerCompositor) Send(msg CompositeMessage) error {
	select {
	case <-w.done:
		return ErrCompositorClosed
	default:
	}
	select {
	case w.in <- msg:
		return nil
	case <-w.done:
		return ErrCompositorClosed
	default:
		return ErrCompositorBusy
	}
}

// Replies returns the channel of finished frames.
func (w *WorkerCompositor) Replies() <-chan CompositeReply { return w.out }

// Close stops the worker and waits for it to exit.
func (w *WorkerCompositor) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	w.wg.Wait()
	return nil
}

func (w *WorkerCompositor) run() {
	defer w.wg.Done()
	var canvas *image.NRGBA
	for {
		var msg CompositeMessage
		select {
		case <-w.done:
			return
		case msg = <-w.in:
		}
		switch msg.Type {
		case MessageInit:
			canvas = image.NewNRGBA(image.Rect(0, 0, max(msg.W, 1), max(msg.H, 1)))
		case MessageBegin:
			if canvas == nil {
				continue
			}
			clear(canvas.Pix)
			if msg.Background != nil {
				draw.Draw(canvas, canvas.Rect, image.NewUniform(msg.Background), image.Point{}, draw.Src)
			}
		case MessageCommit:
			if canvas == nil || msg.Bitmap == nil {
				continue
			}
			b := msg.Bitmap.Rect
			r := image.Rect(msg.X, msg.Y, msg.X+b.Dx(), msg.Y+b.Dy())
			draw.Draw(canvas, r, msg.Bitmap, b.Min, draw.Over)
		case MessageEnd:
			if canvas == nil {
				continue
			}
			reply := image.NewNRGBA(canvas.Rect)
			copy(reply.Pix, canvas.Pix)
			select {
			case w.out <- CompositeReply{Seq: msg.Seq, Image: reply}:
			case <-w.done:
				return
			}
		}
	}
}

// offload tracks one layer's conversation with its compositor: at most one
// frame in flight, the newest frame waiting behind it. Frames are numbered;
// replies to earlier frames, such as one that timed out, are dropped.
type offload struct {
	comp    Compositor
	timeout time.Duration

	initW, initH int
	seq          uint64
	inFlight     bool
	sentAt       time.Time
	queued       bool
	healthy      bool
	last         *image.NRGBA
}

func (o *offload) submit(l *Layer) {
	if o.inFlight {
		o.queued = true
		return
	}
	if err := o.send(l); err != nil {
		o.fail(l, err)
	}
}

func (o *offload) send(l *Layer) error {
	o.drain()
	if o.initW != l.w || o.initH != l.h {
		if err := o.comp.Send(CompositeMessage{Type: MessageInit, W: l.w, H: l.h}); err != nil {
			return err
		}
		o.initW, o.initH = l.w, l.h
	}
	begin := CompositeMessage{Type: MessageBegin}
	if l.hasBG {
		begin.Background = l.bg.Color()
	}
	if err := o.comp.Send(begin); err != nil {
		return err
	}
	for _, r := range l.roots {
		if !r.painted {
			continue
		}
		g := r.mustGeometry()
		msg := CompositeMessage{Type: MessageCommit, Bitmap: r.surface.Snapshot(), X: int(g.X), Y: int(g.Y)}
		if err := o.comp.Send(msg); err != nil {
			return err
		}
	}
	o.seq++
	if err := o.comp.Send(CompositeMessage{Type: MessageEnd, Seq: o.seq}); err != nil {
		return err
	}
	o.inFlight = true
	o.sentAt = l.scene.now()
	return nil
}

// drain discards replies that arrived after their frame timed out.
func (o *offload) drain() {
	for {
		select {
		case <-o.comp.Replies():
		default:
			return
		}
	}
}

// fail marks the worker unhealthy; the frame is retried, with a fresh init,
// on a later poll.
func (o *offload) fail(l *Layer, err error) {
	if o.healthy || o.last == nil {
		Logger().Warn("compositor failed", zap.String("layer", l.Name), zap.Error(err))
	}
	o.healthy = false
	o.inFlight = false
	o.queued = true
	o.initW, o.initH = 0, 0
}

// poll collects a finished frame, detects timeouts and sends the queued frame.
func (o *offload) poll(l *Layer) {
	if o.inFlight && !o.collect(l) && l.scene.now().Sub(o.sentAt) > o.timeout {
		o.fail(l, errors.New("brush: compositor reply timed out"))
	}
	if !o.inFlight && o.queued {
		o.queued = false
		o.submit(l)
	}
}

// collect takes the reply to the in-flight frame, if it has arrived.
func (o *offload) collect(l *Layer) bool {
	for {
		select {
		case r := <-o.comp.Replies():
			if r.Seq != o.seq {
				Logger().Debug("stale compositor reply dropped", zap.String("layer", l.Name),
					zap.Uint64("seq", r.Seq), zap.Uint64("want", o.seq))
				continue
			}
			o.inFlight = false
			o.healthy = true
			if r.Image != nil {
				o.last = r.Image
				l.version++
			}
			return true
		default:
			return false
		}
	}
}

// CompositorHealthy reports whether the layer's compositor answered its last frame.
func (l *Layer) CompositorHealthy() bool {
	return l.offload != nil && l.offload.healthy
}
