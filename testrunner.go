package brush

import (
	"encoding/json"
	"fmt"
	"image/color"
)

// testStep is one action of a test script. Pointer actions take either
// explicit coordinates or a Node name, in which case the node's center is
// used.
type testStep struct {
	Action    string  `json:"action"`
	Label     string  `json:"label,omitempty"`
	Node      string  `json:"node,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	FromX     float64 `json:"fromX,omitempty"`
	FromY     float64 `json:"fromY,omitempty"`
	ToX       float64 `json:"toX,omitempty"`
	ToY       float64 `json:"toY,omitempty"`
	Frames    int     `json:"frames,omitempty"`
	Key       string  `json:"key,omitempty"`
	Value     any     `json:"value,omitempty"`
	Color     string  `json:"color,omitempty"`
	Tolerance uint8   `json:"tolerance,omitempty"` // per channel, for expect
}

type testScript struct {
	Steps []testStep `json:"steps"`
}

// stepFunc runs one step. It returns an error for steps that could not be
// carried out; the runner records it and moves on.
type stepFunc func(r *TestRunner, s *Scene, st testStep) error

var stepActions = map[string]stepFunc{
	"click":      runPointerStep,
	"move":       runPointerStep,
	"drag":       runDragStep,
	"wait":       runWaitStep,
	"set":        runSetStep,
	"screenshot": runScreenshotStep,
	"expect":     runExpectStep,
}

// TestRunner plays a scripted sequence of injected input, shared-state
// writes, pixel expectations and screenshots, one step per Tick. Attach it
// with Scene.SetTestRunner.
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool
	failures  []string
}

// LoadTestScript parses a JSON test script. Actions are click, move, drag,
// wait, set (writes Value under Key in the shared state), expect (compares
// the composed pixel at X, Y with Color) and screenshot.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		if _, ok := stepActions[st.Action]; !ok {
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
		switch {
		case st.Action == "set" && st.Key == "":
			return nil, fmt.Errorf("parse test script: step %d: set without key", i)
		case st.Action == "expect" && !ValidColor(st.Color):
			return nil, fmt.Errorf("parse test script: step %d: invalid color %q", i, st.Color)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// SetTestRunner attaches runner to the scene; Tick advances it before
// injected input is routed.
func (s *Scene) SetTestRunner(runner *TestRunner) {
	s.testRunner = runner
}

// Done reports whether every step has run and its input has been routed.
func (r *TestRunner) Done() bool { return r.done }

// Failures returns the failed expectations and steps that could not run,
// in order.
func (r *TestRunner) Failures() []string { return r.failures }

func (r *TestRunner) step(s *Scene) {
	if r.done || len(s.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor < len(r.steps) {
		st := r.steps[r.cursor]
		r.cursor++
		if err := stepActions[st.Action](r, s, st); err != nil {
			r.failures = append(r.failures, fmt.Sprintf("step %d (%s): %v", r.cursor-1, st.Action, err))
		}
	}
	r.done = r.cursor >= len(r.steps) && r.waitCount == 0 && len(s.injectQueue) == 0
}

func runPointerStep(_ *TestRunner, s *Scene, st testStep) error {
	x, y := st.X, st.Y
	if st.Node != "" {
		var err error
		if x, y, err = s.nodeCenter(st.Node); err != nil {
			return err
		}
	}
	if st.Action == "move" {
		s.InjectMove(x, y)
	} else {
		s.InjectClick(x, y)
	}
	return nil
}

func runDragStep(_ *TestRunner, s *Scene, st testStep) error {
	s.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, st.Frames)
	return nil
}

func runWaitStep(r *TestRunner, _ *Scene, st testStep) error {
	// The wait step's own tick counts as the first frame.
	r.waitCount = max(st.Frames-1, 0)
	return nil
}

func runSetStep(_ *TestRunner, s *Scene, st testStep) error {
	s.Set(st.Key, st.Value)
	return nil
}

func runScreenshotStep(_ *TestRunner, s *Scene, st testStep) error {
	s.Screenshot(st.Label)
	return nil
}

func runExpectStep(_ *TestRunner, s *Scene, st testStep) error {
	want, _ := parseColor(st.Color)
	img := s.Compose()
	x, y := int(st.X), int(st.Y)
	got := img.NRGBAAt(x, y)
	if !withinTolerance(got, want.Color(), st.Tolerance) {
		return fmt.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want.Color())
	}
	return nil
}

func withinTolerance(a, b color.NRGBA, tol uint8) bool {
	diff := func(p, q uint8) bool {
		d := int(p) - int(q)
		return d <= int(tol) && -d <= int(tol)
	}
	return diff(a.R, b.R) && diff(a.G, b.G) && diff(a.B, b.B) && diff(a.A, b.A)
}
