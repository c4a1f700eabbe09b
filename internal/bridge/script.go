// Package bridge generates PowerShell for the Windows interop bridge,
// executes it, and parses the sentinel protocol the scripts speak.
package bridge

import (
	"encoding/base64"
	"strings"
	"unicode/utf16"
)

// Purpose tags a script for logging and result interpretation.
type Purpose string

const (
	PurposeEnumerateMonitors Purpose = "enumerate_monitors"
	PurposeEnumerateWindows  Purpose = "enumerate_windows"
	PurposeCaptureScreen     Purpose = "capture_screen"
	PurposeCaptureWindow     Purpose = "capture_window"
	PurposeClipboard         Purpose = "clipboard"
	PurposeProbe             Purpose = "probe"
)

// Script is an immutable bridge command. Constructors in this package
// own all interpolation and escaping; once built, the body is final.
type Script struct {
	purpose Purpose
	body    string
}

func (s Script) Purpose() Purpose { return s.purpose }
func (s Script) Body() string     { return s.body }

// EncodedCommand renders the body as base64-encoded UTF-16LE, the form
// powershell.exe accepts via -EncodedCommand. Shipping the script as one
// pre-encoded block sidesteps every layer of quoting between the WSL
// shell and the Windows process.
func (s Script) EncodedCommand() string {
	codes := utf16.Encode([]rune(s.body))
	raw := make([]byte, 0, len(codes)*2)
	for _, c := range codes {
		raw = append(raw, byte(c), byte(c>>8))
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// psQuote wraps a caller-supplied string in PowerShell single quotes.
// Inside single quotes PowerShell treats everything literally except the
// quote itself, which doubles. This is the only escaping rule needed.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// dpiPreamble opts the bridge process into per-monitor DPI awareness
// before anything is measured. Without it, Windows lies about rectangle
// sizes on mixed-scaling multi-monitor setups and captures come out
// cropped or blurry.
const dpiPreamble = `Add-Type -TypeDefinition @"
using System;
using System.Runtime.InteropServices;
public class DpiHelper {
    [DllImport("user32.dll")] public static extern bool SetProcessDpiAwarenessContext(IntPtr value);
    [DllImport("user32.dll")] public static extern bool SetProcessDPIAware();
}
"@
if (-not [DpiHelper]::SetProcessDpiAwarenessContext([IntPtr](-4))) { [DpiHelper]::SetProcessDPIAware() | Out-Null }
$ErrorActionPreference = 'Stop'
`
