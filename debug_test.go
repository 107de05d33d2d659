package brush

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })
	return logs
}

// chainScene builds a chain of depth nodes, each compositing the next.
func chainScene(depth int, debug bool) *Scene {
	s := newTestScene()
	s.SetDebugMode(debug)
	nodes := make([]*Node, depth)
	for i := depth - 1; i >= 0; i-- {
		var next *Node
		if i+1 < depth {
			next = nodes[i+1]
		}
		n := NewNode("link", PaintFunc(func(n *Node, _ *Context) {
			if next != nil {
				n.Draw("next", nil)
			}
		}), Props{"w": 4, "h": 4})
		if next != nil {
			n.Declare("next", next)
		}
		nodes[i] = n
	}
	s.NewLayer(LayerConfig{Name: "deep"}, nodes[0])
	return s
}

func TestDebugChainDepthWarning(t *testing.T) {
	logs := observeLogs(t)
	chainScene(debugMaxChainDepth+2, true).Tick()

	if n := logs.FilterMessage("render chain too deep").Len(); n != 2 {
		t.Errorf("warnings = %d, want 2", n)
	}
	frames := logs.FilterMessage("frame").All()
	if len(frames) != 1 {
		t.Fatalf("frame stats logged %d times, want 1", len(frames))
	}
	fields := frames[0].ContextMap()
	if fields["layer"] != "deep" || fields["repainted"] != int64(debugMaxChainDepth+2) {
		t.Errorf("frame fields = %v", fields)
	}
}

func TestDebugOffIsQuiet(t *testing.T) {
	logs := observeLogs(t)
	chainScene(debugMaxChainDepth+2, false).Tick()
	if logs.Len() != 0 {
		t.Errorf("logged %d entries with debug off", logs.Len())
	}
}

func TestHiddenLayerUpdateLogged(t *testing.T) {
	logs := observeLogs(t)
	s := newTestScene()
	n := NewNode("n", nil, nil)
	s.NewLayer(LayerConfig{Name: "under"}, n)
	s.NewLayer(LayerConfig{Opacity: OpacityOpaque})
	n.Update()
	if logs.FilterMessage("update dropped on hidden layer").Len() != 1 {
		t.Errorf("entries = %v", logs.All())
	}
}

func TestSetLoggerNil(t *testing.T) {
	SetLogger(zap.NewExample())
	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("Logger() returned nil")
	}
	if Logger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("nil should restore the no-op logger")
	}
}
