// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"

	"firestige.xyz/pktforge/internal/config"
	"firestige.xyz/pktforge/internal/core/alloc"
	"firestige.xyz/pktforge/internal/log"
)

var (
	// Global flags
	configFile string
	logLevel   string

	// Loaded by the root command before any subcommand runs.
	cfg       *config.GlobalConfig
	allocator alloc.Allocator
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pktforge",
	Short: "pktforge - craft, edit and inspect packets over managed buffers",
	Long: `pktforge builds packets from layer recipes and inspects capture files.

Packets live in managed buffers that grow and shrink in place while an
ordered chain of protocol layers views them. Buffer variant and allocator
come from the configuration file.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override the configured log level")

	rootCmd.AddCommand(craftCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(validateCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := log.Init(cfg.Log); err != nil {
		return err
	}
	allocator = cfg.NewAllocator()
	return nil
}
