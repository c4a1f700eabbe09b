// Package winpath translates WSL filesystem paths into the Windows path
// namespace. Scripts handed to the interop bridge run as Windows processes
// and only understand Windows paths.
package winpath

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/peterparker57/WSLSnapit-MCP/internal/logging"
)

// Translator converts a POSIX path to its Windows equivalent.
type Translator interface {
	ToWindows(ctx context.Context, posixPath string) (string, error)
}

// WSLTranslator shells out to wslpath and falls back to a pure mapping
// of /mnt/<drive> paths when the utility is unavailable.
type WSLTranslator struct {
	wslpathBin string
	log        *slog.Logger
}

// New returns a Translator backed by the wslpath utility.
func New() *WSLTranslator {
	return &WSLTranslator{
		wslpathBin: "wslpath",
		log:        logging.L("winpath"),
	}
}

func (t *WSLTranslator) ToWindows(ctx context.Context, posixPath string) (string, error) {
	if posixPath == "" {
		return "", fmt.Errorf("empty path")
	}

	abs, err := filepath.Abs(posixPath)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", posixPath, err)
	}

	out, err := exec.CommandContext(ctx, t.wslpathBin, "-w", abs).Output()
	if err == nil {
		win := strings.TrimSpace(string(out))
		if win != "" {
			return win, nil
		}
	}
	t.log.Debug("wslpath unavailable, using fallback mapping", "path", abs)

	return fallbackToWindows(abs)
}

// Available reports whether the wslpath utility can be found.
func (t *WSLTranslator) Available() bool {
	_, err := exec.LookPath(t.wslpathBin)
	return err == nil
}

// fallbackToWindows maps /mnt/<drive>/rest to <DRIVE>:\rest. Paths outside
// the drvfs mounts resolve through the \\wsl$ share when the distro name
// is known.
func fallbackToWindows(abs string) (string, error) {
	const mnt = "/mnt/"
	if strings.HasPrefix(abs, mnt) {
		rest := abs[len(mnt):]
		if rest == "" {
			return "", fmt.Errorf("path %q has no drive component", abs)
		}
		parts := strings.SplitN(rest, "/", 2)
		drive := parts[0]
		if len(drive) != 1 || !isDriveLetter(drive[0]) {
			return "", fmt.Errorf("path %q has no drive component", abs)
		}
		win := strings.ToUpper(drive) + ":"
		if len(parts) == 2 && parts[1] != "" {
			win += `\` + strings.ReplaceAll(parts[1], "/", `\`)
		} else {
			win += `\`
		}
		return win, nil
	}

	distro := os.Getenv("WSL_DISTRO_NAME")
	if distro == "" {
		return "", fmt.Errorf("cannot translate %q: not under /mnt and WSL_DISTRO_NAME is unset", abs)
	}
	return `\\wsl$\` + distro + strings.ReplaceAll(abs, "/", `\`), nil
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// IsWSL reports whether the process is running inside a WSL distribution.
func IsWSL() bool {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	s := strings.ToLower(string(data))
	return strings.Contains(s, "microsoft") || strings.Contains(s, "wsl")
}
