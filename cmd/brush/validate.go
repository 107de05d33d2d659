package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <scene>",
	Short: "Check a scene description",
	Long:  `Parses the scene and reports bad colors, unit expressions and duplicate box names.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadSceneFile(args[0])
		if err != nil {
			return err
		}
		boxes := 0
		for _, l := range f.Layers {
			boxes += countBoxes(l.Boxes)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Scene is valid: %d layers, %d boxes\n", len(f.Layers), boxes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func countBoxes(boxes []boxFile) int {
	n := len(boxes)
	for _, b := range boxes {
		n += countBoxes(b.Boxes)
	}
	return n
}
