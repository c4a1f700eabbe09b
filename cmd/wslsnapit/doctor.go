package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/peterparker57/WSLSnapit-MCP/internal/bridge"
	"github.com/peterparker57/WSLSnapit-MCP/internal/doctor"
)

const probeTimeoutSeconds = 15

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the capture environment",
	Long:  "Verifies the interop bridge, path translation, and host facts, and validates the configuration.",
	Run: func(cmd *cobra.Command, args []string) {
		runDoctor()
	},
}

func runDoctor() {
	cfg := mustLoadConfig()

	runner := bridge.NewExecutor(cfg.BridgePath, probeTimeoutSeconds)
	report := doctor.New(cfg, runner).Run(context.Background())

	for _, c := range report.Checks {
		fmt.Printf("%s %s: %s\n", statusLabel(c.Status), c.Name, c.Message)
	}

	if !report.Healthy() {
		os.Exit(1)
	}
}

func statusLabel(s doctor.Status) string {
	switch s {
	case doctor.Pass:
		return "ok  "
	case doctor.Warn:
		return "warn"
	case doctor.Fail:
		return "FAIL"
	default:
		return "info"
	}
}
