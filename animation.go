package brush

import (
	"maps"
	"slices"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates numeric props or state keys of a node. Create one with
// TweenProps, TweenState or SmoothSetState and call Update(dt) each frame;
// every Update applies the interpolated values in one SetProps or SetState
// call, so a frame repaints once however many keys move.
//
// There is no global animation manager; users call Update themselves.
type TweenGroup struct {
	keys   []string
	tweens []*gween.Tween
	target *Node
	state  bool
	Done   bool
}

// Update advances all tweens by dt seconds and applies the values. If the
// target node is unbound, Done is set and nothing is written.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target == nil || !g.target.Bound() {
		g.Done = true
		return
	}

	allDone := true
	partial := make(Props, len(g.keys))
	for i, k := range g.keys {
		val, finished := g.tweens[i].Update(dt)
		partial[k] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone

	if g.state {
		g.target.SetState(partial)
	} else {
		g.target.SetProps(partial)
	}
}

// TweenProps animates the numeric props in to over duration seconds. Keys
// whose current value is not a plain number start from 0.
func TweenProps(n *Node, to map[string]float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(n, to, duration, fn, false, func(k string) any {
		v, _ := n.props.peek(k)
		return v
	})
}

// TweenState animates numeric state keys in to over duration seconds.
func TweenState(n *Node, to map[string]float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(n, to, duration, fn, true, n.State)
}

// SmoothSetState is TweenState with linear easing.
func SmoothSetState(n *Node, to map[string]float64, duration float32) *TweenGroup {
	return TweenState(n, to, duration, ease.Linear)
}

func newTweenGroup(n *Node, to map[string]float64, duration float32, fn ease.TweenFunc, state bool, current func(string) any) *TweenGroup {
	if fn == nil {
		fn = ease.Linear
	}
	g := &TweenGroup{target: n, state: state}
	for _, k := range slices.Sorted(maps.Keys(to)) {
		from, _ := toFloat(current(k))
		g.keys = append(g.keys, k)
		g.tweens = append(g.tweens, gween.New(float32(from), float32(to[k]), duration, fn))
	}
	return g
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint32:
		return float64(t), true
	}
	return 0, false
}
