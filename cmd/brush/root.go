package main

import (
	"fmt"
	"os"

	"github.com/phanxgames/brush"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "brush",
	Short: "Brush renders layered canvas scenes",
	Long:  `Brush loads a scene description (YAML or JSON) and renders it to a PNG or shows it in a window.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if !verbose {
			return nil
		}
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		brush.SetLogger(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log frames and warnings to stderr")
	rootCmd.SilenceUsage = true
}
