package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/phanxgames/brush"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <scene>",
	Short: "Render a scene to a PNG without opening a window",
	Long: `Loads the scene, runs its frames headlessly and writes the composed layer stack.
With --script, a JSON test script drives injected input, pixel expectations and
screenshots first; any failed expectation fails the command.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		script, _ := cmd.Flags().GetString("script")
		shots, _ := cmd.Flags().GetString("screenshots")
		maxTicks, _ := cmd.Flags().GetInt("max-ticks")

		f, err := loadSceneFile(args[0])
		if err != nil {
			return err
		}
		b := buildScene(f)
		defer b.Close()

		if err := renderScene(b, script, shots, maxTicks); err != nil {
			return err
		}
		if err := brush.WritePNG(out, b.scene.Compose()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("out", "o", "scene.png", "Output PNG path")
	renderCmd.Flags().String("script", "", "JSON test script to run before writing the output")
	renderCmd.Flags().String("screenshots", "screenshots", "Directory for screenshots taken by the script")
	renderCmd.Flags().Int("max-ticks", 600, "Give up on the script after this many ticks")
}

// renderScene ticks the scene until its frames and script have run and
// every compositor worker has delivered a frame.
func renderScene(b *builtScene, scriptPath, shotDir string, maxTicks int) error {
	s := b.scene
	s.ScreenshotDir = shotDir

	var runner *brush.TestRunner
	if scriptPath != "" {
		data, err := os.ReadFile(scriptPath)
		if err != nil {
			return fmt.Errorf("failed to read script: %w", err)
		}
		if runner, err = brush.LoadTestScript(data); err != nil {
			return err
		}
		s.SetTestRunner(runner)
	}

	s.Tick()
	for ticks := 1; runner != nil && !runner.Done(); ticks++ {
		if ticks >= maxTicks {
			return fmt.Errorf("script did not finish within %d ticks", maxTicks)
		}
		s.Tick()
	}
	if runner != nil {
		if fails := runner.Failures(); len(fails) > 0 {
			errs := make([]error, len(fails))
			for i, f := range fails {
				errs[i] = errors.New(f)
			}
			return fmt.Errorf("script failed: %w", errors.Join(errs...))
		}
	}
	s.Render()

	deadline := time.Now().Add(2 * time.Second)
	for !workersSettled(s) {
		if time.Now().After(deadline) {
			return fmt.Errorf("compositor workers did not answer")
		}
		time.Sleep(5 * time.Millisecond)
		s.Tick()
	}
	return nil
}

func workersSettled(s *brush.Scene) bool {
	for i, l := range s.Layers() {
		if !s.LayerVisible(i) {
			continue
		}
		if img, _ := l.Image(); img == nil {
			return false
		}
	}
	return true
}
