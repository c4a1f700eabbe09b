package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/peterparker57/WSLSnapit-MCP/internal/tools"
)

var (
	captureFilename    string
	captureFolder      string
	captureMonitor     string
	captureWindowTitle string
	captureProcess     string
	captureWindowIndex int
	captureDirect      bool
	captureQuality     int
	captureOut         string
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Take one screenshot and exit",
	Run: func(cmd *cobra.Command, args []string) {
		runCapture(cmd)
	},
}

func init() {
	captureCmd.Flags().StringVar(&captureFilename, "filename", "", "name for the saved file")
	captureCmd.Flags().StringVar(&captureFolder, "folder", "", "destination folder (WSL path)")
	captureCmd.Flags().StringVar(&captureMonitor, "monitor", "", `display to capture: "all", "primary", or a 1-based number`)
	captureCmd.Flags().StringVar(&captureWindowTitle, "window-title", "", "capture the window whose title contains this text")
	captureCmd.Flags().StringVar(&captureProcess, "process-name", "", "capture the window of this process")
	captureCmd.Flags().IntVar(&captureWindowIndex, "window-index", 0, "pick one window when the query matches several (1-based)")
	captureCmd.Flags().BoolVar(&captureDirect, "direct", false, "return the image inline instead of saving a file")
	captureCmd.Flags().IntVar(&captureQuality, "quality", 0, "JPEG quality for --direct (1-100)")
	captureCmd.Flags().StringVar(&captureOut, "out", "", "write the --direct JPEG to this local file")
}

func runCapture(cmd *cobra.Command) {
	cfg := mustLoadConfig()
	if err := setupLogging(cfg); err != nil {
		die(err)
	}
	tb, err := buildToolbox(cfg)
	if err != nil {
		die(err)
	}

	payload := map[string]any{}
	if captureFilename != "" {
		payload["filename"] = captureFilename
	}
	if captureFolder != "" {
		payload["folder"] = captureFolder
	}
	if captureMonitor != "" {
		payload["monitor"] = captureMonitor
	}
	if captureWindowTitle != "" {
		payload["windowTitle"] = captureWindowTitle
	}
	if captureProcess != "" {
		payload["processName"] = captureProcess
	}
	// An absent index means "let ambiguity surface", so only pass it
	// when the flag was really given.
	if cmd.Flags().Changed("window-index") {
		payload["windowIndex"] = captureWindowIndex
	}
	if captureDirect {
		payload["returnDirect"] = true
	}
	if cmd.Flags().Changed("quality") {
		payload["quality"] = captureQuality
	}

	result, _ := tb.Dispatch(context.Background(), tools.CmdTakeScreenshot, payload)
	finishOneShot(result, captureOut)
}

// finishOneShot prints the outcome of a one-shot command and writes an
// inline image to outPath when both are present.
func finishOneShot(result tools.CommandResult, outPath string) {
	if result.Status != tools.StatusCompleted {
		fmt.Fprintln(os.Stderr, result.Error)
		os.Exit(1)
	}

	fmt.Println(result.Message)

	if outPath != "" && result.ImageBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(result.ImageBase64)
		if err != nil {
			die(fmt.Errorf("decode image: %w", err))
		}
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			die(fmt.Errorf("write %s: %w", outPath, err))
		}
		fmt.Printf("Image written to %s\n", outPath)
	}
}
