package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/philipparndt/goifc/cmd"
	"github.com/philipparndt/goifc/internal/gui"
	"github.com/philipparndt/goifc/version"
)

var rootCmd = &cobra.Command{
	Use:          "goifc-gui [files...]",
	Short:        "IFC building model viewer (fyne)",
	Version:      version.GetFullVersion(),
	SilenceUsage: true,
	RunE: func(c *cobra.Command, args []string) error {
		cfg, logger, err := cmd.Setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		return gui.Run(context.Background(), cfg, args, logger)
	},
}

func init() {
	cmd.BindFlags(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
