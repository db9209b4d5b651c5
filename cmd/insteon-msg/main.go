// Insteon-msg decodes and builds Insteon PowerLinc Modem (PLM) messages.
//
// It parses raw serial captures into typed messages, filters the repeated
// traffic of all-link group transactions, prints the message definitions
// the parser knows about, and builds outbound commands with their checksums.
// No serial port is opened: captures are read from files or stdin.
//
// Usage:
//
//	insteon-msg [command] [flags]
//
// See 'insteon-msg --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/insteon/internal/config"
	"github.com/muurk/insteon/internal/logging"
	"github.com/muurk/insteon/internal/protocol"
	"github.com/muurk/insteon/internal/ui"
	"github.com/muurk/insteon/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		if ui.IsTerminal(os.Stderr) {
			fmt.Fprintln(os.Stderr, ui.RenderFailure("Command failed", err, nil))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// Global flags
var (
	logLevel   string
	configPath string
	noColor    bool
)

// Shared state prepared by setup before any subcommand runs
var (
	registry *config.Registry
	defs     *protocol.Definitions
)

var rootCmd = &cobra.Command{
	Use:   "insteon-msg",
	Short: "Insteon PLM message decoder and builder",
	Long: `A utility for working with the Insteon PowerLinc Modem serial protocol.

Decodes raw modem captures into messages, suppresses duplicate all-link
group traffic, lists the known message layouts, and builds outbound
commands with CRC-1 or CRC-2 checksums.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides "+logging.LogLevelEnvVar)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default is the per-user config directory)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration, logging and message definitions
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		registry, err = config.LoadRegistryFile(configPath)
	} else {
		registry, err = config.LoadRegistry()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	prefs := registry.Preferences

	level := logLevel
	if level == "" {
		level = prefs.LogLevel
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}

	ui.SetColorEnabled(prefs.Color && !noColor && ui.IsTerminal(os.Stdout))

	if prefs.DefinitionsFile != "" {
		defs, err = protocol.LoadDefinitionsFile(prefs.DefinitionsFile)
	} else {
		defs, err = protocol.DefaultDefinitions()
	}
	if defs == nil {
		return fmt.Errorf("failed to load message definitions: %w", err)
	}
	if err != nil {
		// Bad records are skipped; the rest of the file is still usable
		logging.Warn("Some message definitions were rejected", zap.Error(err))
	}

	logging.Debug("Ready",
		zap.Int("definitions", defs.Len()),
		zap.Int("devices", len(registry.Devices)),
	)
	return nil
}

// saveRegistry writes the registry back to where it was loaded from
func saveRegistry() error {
	if configPath != "" {
		return registry.SaveFile(configPath)
	}
	return registry.Save()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "insteon-msg %s (commit: %s) %s %s\n",
			info.Version, info.Commit, info.GoVersion, info.Platform)
	},
}
