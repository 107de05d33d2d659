package brush

import (
	"maps"
	"reflect"
)

// baseProps are the lowest-priority values every node falls back to.
var baseProps = Props{"x": 0.0, "y": 0.0, "w": 100.0, "h": 100.0}

// propStore resolves reads through three tiers: explicit values, then the
// component defaults, then baseProps. While recording, every read is captured
// with the value it returned so a later render can tell whether new input
// would change the result.
type propStore struct {
	explicit  Props
	defaults  Props
	recording bool
	deps      map[string]any
}

func newPropStore(explicit, defaults Props) propStore {
	p := propStore{explicit: Props{}, defaults: Props{}}
	maps.Copy(p.explicit, explicit)
	maps.Copy(p.defaults, defaults)
	return p
}

// peek reads a property without recording it.
func (p *propStore) peek(key string) (any, bool) {
	if v, ok := p.explicit[key]; ok {
		return v, true
	}
	if v, ok := p.defaults[key]; ok {
		return v, true
	}
	v, ok := baseProps[key]
	return v, ok
}

func (p *propStore) get(key string) (any, bool) {
	v, ok := p.peek(key)
	if p.recording {
		p.deps[key] = v
	}
	return v, ok
}

func (p *propStore) set(key string, v any) {
	p.explicit[key] = v
}

// merge writes partial over the explicit tier and reports which geometry keys
// changed.
func (p *propStore) merge(partial Props) (moved, resized bool) {
	for k, v := range partial {
		old, had := p.peek(k)
		p.explicit[k] = v
		if had && !valueChanged(v, old) {
			continue
		}
		switch k {
		case "x", "y":
			moved = true
		case "w", "h":
			resized = true
		}
	}
	return moved, resized
}

func (p *propStore) beginRecording() {
	p.recording = true
	p.deps = map[string]any{}
}

func (p *propStore) endRecording() {
	p.recording = false
}

// depsChanged reports whether any key in partial was read by the last paint
// and now carries a different value.
func (p *propStore) depsChanged(partial Props) bool {
	for k, v := range partial {
		if old, ok := p.deps[k]; ok && valueChanged(v, old) {
			return true
		}
	}
	return false
}

// valueChanged compares a new property value against a recorded one. Maps are
// compared key by key, recursively; functions, slices, pointers and channels
// by identity; everything else by equality.
func valueChanged(next, prev any) bool {
	if next == nil || prev == nil {
		return next != nil || prev != nil
	}
	if a, ok := next.(Dim); ok {
		b, ok := prev.(Dim)
		return !ok || !a.equal(b)
	}
	nv, pv := reflect.ValueOf(next), reflect.ValueOf(prev)
	if nv.Type() != pv.Type() {
		return true
	}
	switch nv.Kind() {
	case reflect.Map:
		return mapChanged(nv, pv)
	case reflect.Func, reflect.Slice, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		if nv.Kind() == reflect.Slice && nv.Len() != pv.Len() {
			return true
		}
		return nv.Pointer() != pv.Pointer()
	}
	if nv.Type().Comparable() {
		return next != prev
	}
	return !reflect.DeepEqual(next, prev)
}

func mapChanged(next, prev reflect.Value) bool {
	if next.IsNil() || prev.IsNil() {
		return next.IsNil() != prev.IsNil()
	}
	if next.Len() != prev.Len() {
		return true
	}
	iter := next.MapRange()
	for iter.Next() {
		pv := prev.MapIndex(iter.Key())
		if !pv.IsValid() {
			return true
		}
		if valueChanged(iter.Value().Interface(), pv.Interface()) {
			return true
		}
	}
	return false
}
