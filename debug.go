package brush

import (
	"time"

	"go.uber.org/zap"
)

// debugStats holds per-frame timing and repaint metrics for one layer.
// Only logged when Scene.debug is true.
type debugStats struct {
	markTime      time.Duration
	paintTime     time.Duration
	compositeTime time.Duration
	pending       int
	repainted     int
}

// debugLog logs the stats of the frame that just ran.
func (l *Layer) debugLog() {
	if !l.scene.debug {
		return
	}
	st := l.stats
	Logger().Debug("frame",
		zap.String("layer", l.Name),
		zap.Int("index", l.index),
		zap.Int("frame", l.frames),
		zap.Duration("mark", st.markTime),
		zap.Duration("paint", st.paintTime),
		zap.Duration("composite", st.compositeTime),
		zap.Duration("total", st.markTime+st.paintTime+st.compositeTime),
		zap.Int("pending", st.pending),
		zap.Int("repainted", st.repainted),
	)
}

// debugCheckChainDepth warns if a render chain exceeds the threshold.
const debugMaxChainDepth = 32

func debugCheckChainDepth(n *Node) {
	if len(n.chain) > debugMaxChainDepth {
		Logger().Warn("render chain too deep",
			zap.String("node", n.Name), zap.Int("depth", len(n.chain)), zap.Int("threshold", debugMaxChainDepth))
	}
}

// debugCheckChildCount warns if a paint composited more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		Logger().Warn("too many children",
			zap.String("node", n.Name), zap.Int("children", len(n.children)), zap.Int("threshold", debugMaxChildCount))
	}
}
