// Package ebitenhost shows a brush scene in an Ebitengine window. The host
// drives Scene.Tick from Update, feeds mouse input to Scene.Pointer and
// uploads each visible layer's image when its version changes.
package ebitenhost

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/phanxgames/brush"
)

// RunConfig configures the window created by Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// ShowFPS draws an FPS/TPS overlay in the top-left corner.
	ShowFPS bool
	// ClearColor fills the screen under the layers.
	ClearColor color.Color
	// OnUpdate runs every tick before the scene, with the tick length in
	// seconds. Use it to advance tweens.
	OnUpdate func(dt float32)
}

// Run creates a window sized to the scene and blocks until it is closed.
func Run(scene *brush.Scene, cfg RunConfig) error {
	w, h := cfg.Width, cfg.Height
	if w <= 0 || h <= 0 {
		w, h = scene.Width(), scene.Height()
	}
	ebiten.SetWindowSize(w, h)
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	return ebiten.RunGame(NewGame(scene, cfg))
}

// Game implements ebiten.Game for a brush scene.
type Game struct {
	scene  *brush.Scene
	cfg    RunConfig
	layers map[*brush.Layer]*layerImage
	fps    *fpsOverlay

	lastX, lastY int
	cursor       ebiten.CursorShapeType
}

type layerImage struct {
	img     *ebiten.Image
	buf     *image.RGBA
	version uint64
	valid   bool
}

// NewGame returns a Game that drives scene.
func NewGame(scene *brush.Scene, cfg RunConfig) *Game {
	g := &Game{
		scene:  scene,
		cfg:    cfg,
		layers: map[*brush.Layer]*layerImage{},
		lastX:  -1,
		lastY:  -1,
	}
	if cfg.ShowFPS {
		g.fps = newFPSOverlay()
	}
	return g
}

// Update polls input and advances the scene by one tick.
func (g *Game) Update() error {
	if g.cfg.OnUpdate != nil {
		g.cfg.OnUpdate(float32(1.0 / float64(ebiten.TPS())))
	}
	g.pollPointer()
	g.scene.Tick()
	if g.fps != nil {
		g.fps.update(1.0 / float64(ebiten.TPS()))
	}
	if shape := cursorShape(g.scene.Cursor()); shape != g.cursor {
		g.cursor = shape
		ebiten.SetCursorShape(shape)
	}
	return nil
}

func (g *Game) pollPointer() {
	x, y := ebiten.CursorPosition()
	fx, fy := float64(x), float64(y)
	if x != g.lastX || y != g.lastY {
		g.lastX, g.lastY = x, y
		g.scene.Pointer(brush.EventOver, fx, fy)
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.scene.Pointer(brush.EventDown, fx, fy)
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.scene.Pointer(brush.EventUp, fx, fy)
		g.scene.Pointer(brush.EventClick, fx, fy)
	}
}

// Draw presents every visible layer, bottom first.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.cfg.ClearColor != nil {
		screen.Fill(g.cfg.ClearColor)
	}
	for i, l := range g.scene.Layers() {
		if !g.scene.LayerVisible(i) {
			continue
		}
		li := g.upload(l)
		if li == nil {
			continue
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(l.X(), l.Y())
		screen.DrawImage(li.img, op)
	}
	if g.fps != nil {
		g.fps.draw(screen)
	}
}

// upload copies the layer image into its ebiten image when the layer
// reports a new version.
func (g *Game) upload(l *brush.Layer) *layerImage {
	src, version := l.Image()
	if src == nil {
		return nil
	}
	li := g.layers[l]
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if li == nil || li.buf.Rect.Dx() != w || li.buf.Rect.Dy() != h {
		if li != nil {
			li.img.Deallocate()
		}
		li = &layerImage{img: ebiten.NewImage(w, h), buf: image.NewRGBA(image.Rect(0, 0, w, h))}
		g.layers[l] = li
	}
	if li.valid && li.version == version {
		return li
	}
	premultiply(li.buf, src)
	li.img.WritePixels(li.buf.Pix)
	li.version = version
	li.valid = true
	return li
}

// Layout keeps the logical screen at the scene size.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.scene.Width(), g.scene.Height()
}
