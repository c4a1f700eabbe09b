package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/peterparker57/WSLSnapit-MCP/internal/archive"
	"github.com/peterparker57/WSLSnapit-MCP/internal/bridge"
	"github.com/peterparker57/WSLSnapit-MCP/internal/config"
	"github.com/peterparker57/WSLSnapit-MCP/internal/logging"
	"github.com/peterparker57/WSLSnapit-MCP/internal/tools"
	"github.com/peterparker57/WSLSnapit-MCP/internal/winpath"
)

const appName = "wslsnapit"

var (
	version = "1.1.0"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "wslsnapit",
	Short: "Windows screenshot and clipboard capture from WSL",
	Long: `wslsnapit captures Windows screenshots and reads the Windows clipboard
from inside WSL, through the powershell.exe interop bridge. It serves the
take_screenshot and read_clipboard tools over stdio (MCP-style JSON-RPC) or
WebSocket, and offers one-shot subcommands for the same operations.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s v%s\n", appName, version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/wslsnapit/wslsnapit.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(clipboardCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) error {
	var out io.Writer
	if cfg.LogFile != "" {
		rw, err := logging.NewRotatingWriter(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = rw
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, out)
	return nil
}

func buildToolbox(cfg *config.Config) (*tools.Toolbox, error) {
	runner := bridge.NewExecutor(cfg.BridgePath, cfg.BridgeTimeoutSeconds)
	enum := bridge.NewEnumerator(runner)

	store, err := archive.New(context.Background(), cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("configure archive: %w", err)
	}

	return tools.New(cfg, runner, enum, winpath.New(), store), nil
}

func die(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
