// Package doctor runs the environment checks behind the doctor
// command. Each check probes one link in the capture chain (WSL
// detection, the interop bridge binary, a live bridge round trip,
// path translation, host facts, config validity) and the report
// aggregates them into a single pass/warn/fail verdict.
package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/peterparker57/WSLSnapit-MCP/internal/bridge"
	"github.com/peterparker57/WSLSnapit-MCP/internal/config"
	"github.com/peterparker57/WSLSnapit-MCP/internal/logging"
	"github.com/peterparker57/WSLSnapit-MCP/internal/winpath"
)

var log = logging.L("doctor")

// Status classifies a single check result.
type Status string

const (
	Pass Status = "pass"
	Warn Status = "warn"
	Fail Status = "fail"
	Info Status = "info"
)

// Check is one diagnostic result.
type Check struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Report collects checks in the order they ran.
type Report struct {
	Checks []Check `json:"checks"`
}

func (r *Report) add(name string, status Status, message string) {
	r.Checks = append(r.Checks, Check{Name: name, Status: status, Message: message})
	if status == Fail {
		log.Warn("check failed", "check", name, "message", message)
	}
}

// Overall returns the worst status across all checks. Info lines do
// not affect the verdict; an empty report passes.
func (r *Report) Overall() Status {
	overall := Pass
	for _, c := range r.Checks {
		if statusRank(c.Status) > statusRank(overall) {
			overall = c.Status
		}
	}
	return overall
}

// Healthy reports whether no check failed. Warnings still count as
// healthy so a non-WSL dev box can run the one-shot commands.
func (r *Report) Healthy() bool {
	return r.Overall() != Fail
}

func statusRank(s Status) int {
	switch s {
	case Info:
		return 0
	case Pass:
		return 1
	case Warn:
		return 2
	case Fail:
		return 3
	default:
		return 3
	}
}

// Doctor wires the probes the checks depend on. Every field has a
// production default from New; tests swap in fakes so the checks run
// without a Windows side.
type Doctor struct {
	Cfg      *config.Config
	Runner   bridge.Runner
	LookPath func(file string) (string, error)
	IsWSL    func() bool
	WSLPath  func() bool
	HostInfo func() (*host.InfoStat, error)
	Memory   func() (*mem.VirtualMemoryStat, error)
}

// New builds a Doctor backed by the real environment. runner may be
// nil to skip the live bridge probe.
func New(cfg *config.Config, runner bridge.Runner) *Doctor {
	return &Doctor{
		Cfg:      cfg,
		Runner:   runner,
		LookPath: exec.LookPath,
		IsWSL:    winpath.IsWSL,
		WSLPath:  winpath.New().Available,
		HostInfo: host.Info,
		Memory:   mem.VirtualMemory,
	}
}

// Run executes every check and returns the collected report. The
// live bridge probe is skipped when the bridge binary is missing
// since it could only repeat the same failure with a worse message.
func (d *Doctor) Run(ctx context.Context) *Report {
	r := &Report{}

	if d.IsWSL() {
		r.add("wsl", Pass, "running inside WSL")
	} else {
		r.add("wsl", Warn, "not running inside WSL; the interop bridge needs it")
	}

	bridgeFound := false
	if path, err := d.LookPath(d.Cfg.BridgePath); err == nil {
		bridgeFound = true
		r.add("bridge-binary", Pass, path)
	} else {
		r.add("bridge-binary", Fail, fmt.Sprintf("%q not found in PATH", d.Cfg.BridgePath))
	}

	if d.WSLPath() {
		r.add("wslpath", Pass, "wslpath available")
	} else {
		r.add("wslpath", Warn, "wslpath missing, falling back to /mnt/<drive> mapping")
	}

	if bridgeFound && d.Runner != nil {
		res, err := d.Runner.Run(ctx, bridge.ProbeScript())
		out := ""
		if res != nil {
			out = strings.TrimSpace(res.Stdout)
		}
		switch {
		case err != nil:
			r.add("bridge-probe", Fail, err.Error())
		case !strings.HasPrefix(out, "PONG"):
			r.add("bridge-probe", Fail, fmt.Sprintf("unexpected probe output %q", out))
		default:
			r.add("bridge-probe", Pass, out)
		}
	}

	if info, err := d.HostInfo(); err == nil {
		r.add("host", Info, fmt.Sprintf("%s (%s %s, kernel %s)",
			info.Hostname, info.Platform, info.PlatformVersion, info.KernelVersion))
	}
	if vmem, err := d.Memory(); err == nil {
		r.add("memory", Info, fmt.Sprintf("%d MB total, %.0f%% used",
			vmem.Total/1024/1024, vmem.UsedPercent))
	}

	vr := d.Cfg.ValidateTiered()
	for _, e := range vr.Fatals {
		r.add("config", Fail, e.Error())
	}
	for _, e := range vr.Warnings {
		r.add("config", Warn, e.Error())
	}
	if len(vr.Fatals) == 0 && len(vr.Warnings) == 0 {
		r.add("config", Pass, "config valid")
	}

	return r
}
