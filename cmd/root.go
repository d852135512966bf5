// Package cmd holds the cobra commands shared by the goifc binaries.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/philipparndt/goifc/internal/app"
	"github.com/philipparndt/goifc/internal/config"
	"github.com/philipparndt/goifc/internal/logging"
	"github.com/philipparndt/goifc/version"
)

var (
	configPath string
	logLevel   string
	basePath   string
	pluginPath string
)

var rootCmd = &cobra.Command{
	Use:   "goifc [files...]",
	Short: "IFC building model viewer",
	Long: `GoIFC displays IFC building models in a 3D window. Models are colored by
discipline (architecture, structural, HVAC) and can be shown and hidden individually.
Files are loaded relative to the configured base path, which may be a directory or an
http(s) URL.`,
	Version:      version.GetFullVersion(),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := Setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		return app.Run(cmd.Context(), cfg, args, logger)
	},
}

func init() {
	BindFlags(rootCmd)
}

// BindFlags adds the configuration flags read by Setup to a command
func BindFlags(c *cobra.Command) {
	c.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile, "Configuration file")
	c.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	c.PersistentFlags().StringVar(&basePath, "base", "", "Base directory or URL of the model files")
	c.PersistentFlags().StringVar(&pluginPath, "plugin", "", "WASM plugin used to convert IFC files")
}

// Setup loads the configuration, applies command line overrides and builds the logger
func Setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if basePath != "" {
		cfg.BasePath = basePath
	}
	if pluginPath != "" {
		cfg.WasmPlugin = pluginPath
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// AddCommand registers subcommands on the root command
func AddCommand(cmds ...*cobra.Command) {
	rootCmd.AddCommand(cmds...)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
