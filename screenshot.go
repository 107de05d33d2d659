package brush

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Screenshot queues a labeled capture of the composed layer stack. Queued
// captures are written together at the end of the current Tick, into
// ScreenshotDir, as <timestamp>_<seq>_<label>.png. seq counts captures over
// the scene's lifetime, so equal labels within one second never collide.
func (s *Scene) Screenshot(label string) {
	s.screenshotQueue = append(s.screenshotQueue, label)
}

func (s *Scene) flushScreenshots() {
	if len(s.screenshotQueue) == 0 {
		return
	}
	labels := s.screenshotQueue
	s.screenshotQueue = nil

	if err := os.MkdirAll(s.ScreenshotDir, 0o755); err != nil {
		Logger().Error("screenshot directory", zap.String("dir", s.ScreenshotDir), zap.Error(err))
		return
	}
	img := s.Compose()
	stamp := time.Now().Format("20060102_150405")
	for _, label := range labels {
		s.screenshotSeq++
		name := fmt.Sprintf("%s_%03d_%s.png", stamp, s.screenshotSeq, sanitizeLabel(label))
		path := filepath.Join(s.ScreenshotDir, name)
		if err := WritePNG(path, img); err != nil {
			Logger().Error("screenshot", zap.String("label", label), zap.Error(err))
			continue
		}
		Logger().Debug("screenshot written", zap.String("path", path))
	}
}

var pngEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// WritePNG encodes img into a new PNG file at path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := pngEncoder.Encode(w, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel keeps ASCII letters, digits, '-' and '.', replaces every
// other rune with '_', and names empty labels "unlabeled".
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}
