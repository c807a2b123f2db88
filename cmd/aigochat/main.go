// Command aigochat runs the multi-vendor chat backend.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leofalp/aigochat/internal/config"
	"github.com/leofalp/aigochat/providers/observability/slogobs"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds what every subcommand shares.
type app struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	a := &app{}

	serve := a.newServeCommand()
	root := &cobra.Command{
		Use:           "aigochat",
		Short:         "Multi-vendor LLM chat backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (yaml, json or toml); the environment takes precedence")

	root.AddCommand(serve, a.newMigrateCommand(), a.newModelsCommand(), newVersionCommand())
	return root
}

// setup loads the configuration and installs the process logger as slog.Default.
func (a *app) setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, nil, err
	}

	logger := slogobs.NewLogger(
		slogobs.WithFormat(cfg.Format()),
		slogobs.WithLevel(cfg.Level()),
		slogobs.WithOutput(os.Stderr),
		slogobs.WithAttrs(slog.String("service", "aigochat")),
	)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
