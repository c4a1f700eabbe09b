package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/peterparker57/WSLSnapit-MCP/internal/tools"
)

var (
	clipboardFormat string
	clipboardOut    string
)

var clipboardCmd = &cobra.Command{
	Use:   "clipboard",
	Short: "Read the Windows clipboard and exit",
	Run: func(cmd *cobra.Command, args []string) {
		runClipboard()
	},
}

func init() {
	clipboardCmd.Flags().StringVar(&clipboardFormat, "format", "auto", "what to read: auto, text, or image")
	clipboardCmd.Flags().StringVar(&clipboardOut, "out", "", "write a clipboard image to this local file")
}

func runClipboard() {
	cfg := mustLoadConfig()
	if err := setupLogging(cfg); err != nil {
		die(err)
	}
	tb, err := buildToolbox(cfg)
	if err != nil {
		die(err)
	}

	result, _ := tb.Dispatch(context.Background(), tools.CmdReadClipboard, map[string]any{
		"format": clipboardFormat,
	})
	finishOneShot(result, clipboardOut)
}
