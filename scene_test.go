package brush

import (
	"image/color"
	"slices"
	"testing"
)

func TestSceneSizeClamped(t *testing.T) {
	s := NewScene(SceneConfig{})
	if s.Width() != 1 || s.Height() != 1 {
		t.Errorf("size = %dx%d, want 1x1", s.Width(), s.Height())
	}
}

func TestSharedState(t *testing.T) {
	s := NewScene(SceneConfig{Width: 10, Height: 10, State: Props{"theme": "dark"}})
	if v, ok := s.Get("theme"); !ok || v != "dark" {
		t.Errorf("seeded theme = %v, %v", v, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("missing key reported present")
	}

	var log []string
	sub := s.Subscribe("theme", func(key string, v any) { log = append(log, key+"="+v.(string)) })
	s.Subscribe("other", func(string, any) { log = append(log, "other") })

	s.Set("theme", "light")
	sub.Remove()
	sub.Remove()
	s.Set("theme", "blue")
	Subscription{}.Remove()

	if !slices.Equal(log, []string{"theme=light"}) {
		t.Errorf("log = %v", log)
	}
	if v, _ := s.Get("theme"); v != "blue" {
		t.Errorf("theme = %v, want blue", v)
	}
}

func TestSubscriberMayUnsubscribeDuringSet(t *testing.T) {
	s := newTestScene()
	calls := 0
	var sub Subscription
	sub = s.Subscribe("k", func(string, any) {
		calls++
		sub.Remove()
	})
	s.Subscribe("k", func(string, any) { calls++ })
	s.Set("k", 1)
	s.Set("k", 2)
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestSubscribeNilPanics(t *testing.T) {
	expectPanic(t, "nil callback", func() { newTestScene().Subscribe("k", nil) })
}

func TestSceneDrivesStatefulNode(t *testing.T) {
	s := newTestScene()
	n, _ := fillNode("n", Props{"w": 10, "h": 10, "color": "red"})
	l := s.NewLayer(LayerConfig{}, n)
	s.Subscribe("accent", func(_ string, v any) { n.SetProps(Props{"color": v}) })
	s.Tick()

	s.Set("accent", "blue")
	s.Tick()
	assertPixel(t, l.surface, 5, 5, opaqueBlue)
}

func TestCompose(t *testing.T) {
	s := NewScene(SceneConfig{Width: 40, Height: 20})
	bottom, _ := fillNode("bottom", Props{"w": 40, "h": 20, "color": "red"})
	top, _ := fillNode("top", Props{"w": 10, "h": 10, "color": "blue"})
	s.NewLayer(LayerConfig{}, bottom)
	s.NewLayer(LayerConfig{X: 20, Y: 5}, top)
	s.Tick()

	img := s.Compose()
	if img.Rect.Dx() != 40 || img.Rect.Dy() != 20 {
		t.Fatalf("compose size = %v", img.Rect)
	}
	tests := []struct {
		x, y int
		want color.NRGBA
	}{
		{5, 5, opaqueRed},
		{25, 10, opaqueBlue},
		{35, 18, opaqueRed},
	}
	for _, tt := range tests {
		if got := img.NRGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestComposeSkipsHiddenLayers(t *testing.T) {
	s := NewScene(SceneConfig{Width: 20, Height: 20})
	bottom, _ := fillNode("bottom", Props{"w": 20, "h": 20, "color": "red"})
	lb := s.NewLayer(LayerConfig{}, bottom)
	s.Tick()
	s.NewLayer(LayerConfig{Background: "blue"})
	s.Render()

	if lb.Visible() {
		t.Fatal("bottom layer should be hidden")
	}
	if got := s.Compose().NRGBAAt(5, 5); got != opaqueBlue {
		t.Errorf("pixel = %v, want the covering layer", got)
	}
}

func TestSceneRender(t *testing.T) {
	s := newTestScene()
	n, rec := fillNode("n", Props{"color": "red"})
	l := s.NewLayer(LayerConfig{}, n)
	s.Render()
	if rec.paints != 1 || l.Scheduled() {
		t.Errorf("paints=%d scheduled=%v", rec.paints, l.Scheduled())
	}
}

func TestSceneCursor(t *testing.T) {
	s := newTestScene()
	low := s.NewLayer(LayerConfig{})
	high := s.NewLayer(LayerConfig{})
	if s.Cursor() != "" {
		t.Errorf("cursor = %q, want empty", s.Cursor())
	}
	low.SetCursor("text")
	if s.Cursor() != "text" {
		t.Errorf("cursor = %q, want text", s.Cursor())
	}
	high.SetCursor("pointer")
	if s.Cursor() != "pointer" || low.Cursor() != "text" {
		t.Errorf("cursor = %q, want pointer from the top layer", s.Cursor())
	}
}

func TestLayerVisibleOutOfRange(t *testing.T) {
	s := newTestScene()
	s.NewLayer(LayerConfig{})
	if s.LayerVisible(-1) || s.LayerVisible(1) {
		t.Error("out-of-range layer reported visible")
	}
	if len(s.Layers()) != 1 {
		t.Errorf("layers = %d", len(s.Layers()))
	}
}

type recordingStore struct{ events []InteractionEvent }

func (r *recordingStore) EmitEvent(ev InteractionEvent) { r.events = append(r.events, ev) }

func TestEntityStoreReceivesClaimedEvents(t *testing.T) {
	s := newTestScene()
	store := &recordingStore{}
	s.SetEntityStore(store)
	tagged := NewNode("tagged", nil, Props{"w": 10, "h": 10})
	tagged.EntityID = 3
	plain := NewNode("plain", nil, Props{"x": 20, "w": 10, "h": 10})
	s.NewLayer(LayerConfig{}, tagged, plain)
	s.Tick()

	s.Pointer(EventDown, 5, 5)
	s.Pointer(EventDown, 25, 5)
	if len(store.events) != 1 {
		t.Fatalf("events = %d, want 1", len(store.events))
	}
	if ev := store.events[0]; ev.EntityID != 3 || ev.Kind != EventDown || ev.LocalX != 5 {
		t.Errorf("event = %+v", ev)
	}
}
