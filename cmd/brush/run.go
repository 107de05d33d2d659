package main

import (
	"github.com/phanxgames/brush/ebitenhost"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <scene>",
	Short: "Show a scene in a window",
	Long:  `Opens an Ebitengine window sized to the scene and forwards mouse input to it.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fps, _ := cmd.Flags().GetBool("fps")
		title, _ := cmd.Flags().GetString("title")

		f, err := loadSceneFile(args[0])
		if err != nil {
			return err
		}
		b := buildScene(f)
		defer b.Close()

		if title == "" {
			title = "brush - " + args[0]
		}
		return ebitenhost.Run(b.scene, ebitenhost.RunConfig{
			Title:   title,
			Width:   f.Width,
			Height:  f.Height,
			ShowFPS: fps,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("fps", false, "Show an FPS/TPS overlay")
	runCmd.Flags().String("title", "", "Window title")
}
