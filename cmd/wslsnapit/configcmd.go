package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/peterparker57/WSLSnapit-MCP/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		runConfigDump()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file with the defaults",
	Run: func(cmd *cobra.Command, args []string) {
		runConfigInit()
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}

func runConfigDump() {
	cfg := mustLoadConfig()

	out, err := cfg.Dump()
	if err != nil {
		die(err)
	}
	fmt.Print(out)

	for _, e := range cfg.Validate() {
		fmt.Fprintf(os.Stderr, "warning: %v\n", e)
	}
}

// runConfigInit writes the defaults to --config, or the default
// location, refusing to clobber an existing file.
func runConfigInit() {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "%s already exists, not overwriting\n", path)
		os.Exit(1)
	}

	if err := config.SaveTo(config.Default(), cfgFile); err != nil {
		die(err)
	}
	fmt.Printf("Config written to %s\n", path)
}
