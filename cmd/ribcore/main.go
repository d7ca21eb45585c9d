// Command ribcore evaluates scene scripts and prints the decoded meshes
// as JSON.
package main

import (
	"fmt"
	"os"

	"github.com/chazu/ribcore/internal/config"
	"github.com/spf13/cobra"
)

// options holds the persistent flags shared by all subcommands.
type options struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "ribcore",
		Short:         "ribcore evaluates scene description scripts",
		Long:          `ribcore runs a scene script through the directive interpreter and reports the meshes it produces.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: text or json")

	rootCmd.AddCommand(newEvalCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// load resolves the effective config: file and environment first, then
// any flags that were set explicitly.
func (o *options) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
