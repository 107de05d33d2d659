// Package brush is a retained-mode, layered 2D canvas engine.
//
// A [Scene] holds a stack of [Layer] values. Each layer owns a list of root
// [Node] values and paints them onto its own surface. Every node paints
// itself into a private offscreen [Surface] and memoizes the result, so a
// frame repaints only what changed and reuses everything else.
//
// # Quick start
//
//	scene := brush.NewScene(brush.SceneConfig{Width: 640, Height: 480})
//	box := brush.NewNode("box", brush.PaintFunc(func(n *brush.Node, ctx *brush.Context) {
//		ctx.Rect(brush.RectOpts{W: brush.Pct(100), H: brush.Pct(100), BackgroundColor: "tomato"})
//	}), brush.Props{"x": 20, "y": 20, "w": "25%", "h": 60})
//	scene.NewLayer(brush.LayerConfig{Background: "#202030"}, box)
//	scene.Tick() // runs the scheduled frame
//
// Use the ebitenhost package to show a scene in a window. The cmd/brush tool
// validates, renders and runs scenes described in YAML or JSON files.
//
// # Components
//
// A node's look comes from its [Behavior]: lifecycle hooks around a Paint
// method. Embed [BaseBehavior] and override what you need. A behavior may
// also supply default props (DefaultProps) and named children (Elements).
//
// Props resolve through three tiers: explicit values, component defaults,
// then the base defaults x=0, y=0, w=100, h=100. Reads made while painting
// are recorded; a later render that only changes props the paint never read
// reuses the cached surface.
//
// # Compositing children
//
// Inside Paint, a node composites a named child through a [Proxy]:
//
//	n.Composite("needle").Paint(brush.Props{"x": 40}).Rotate(30, brush.Pct(50), brush.Px(0)).Done()
//
// or, without transforms, n.Draw("needle", props).
//
// # Invalidation
//
// [Node.SetProps], [Node.SetState] and [Node.Update] report a node to its
// layer. The layer marks the node's whole render chain (root to node) stale,
// coalesces everything reported before the next frame into one frame, and
// repaints only the stale chains.
//
// # Units
//
// Geometry accepts pixels, percentages of the reference size, vw/vh of the
// layer, and arithmetic over them ("50% - 10"), parsed into a typed
// expression tree. See [Dim].
//
// # Events
//
// [Scene.Pointer] routes host pointer input to the layers, topmost first.
// Within a layer the deepest node whose painted region contains the point
// claims it and the event bubbles to its ancestors. Nodes with "in"/"out"
// handlers receive hover transitions.
//
// # Compositor worker
//
// A layer configured with a [Compositor] hands its root surfaces to a worker
// (see [NewWorkerCompositor]) and displays the worker's replies, keeping the
// last good image if the worker stalls.
//
// Brush is single-threaded: all Scene, Layer and Node methods must be called
// from the goroutine driving [Scene.Tick].
package brush
