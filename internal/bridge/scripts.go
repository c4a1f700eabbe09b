package bridge

import (
	"fmt"
	"strings"

	"github.com/peterparker57/WSLSnapit-MCP/internal/capture"
)

// windowOpsType is the P/Invoke surface shared by window enumeration
// and window capture: visibility checks, titles, owning processes,
// foregrounding, and live rectangles.
const windowOpsType = `Add-Type -TypeDefinition @"
using System;
using System.Text;
using System.Runtime.InteropServices;
public class WindowOps {
    public delegate bool EnumWindowsProc(IntPtr hWnd, IntPtr lParam);
    [DllImport("user32.dll")] public static extern bool EnumWindows(EnumWindowsProc cb, IntPtr lParam);
    [DllImport("user32.dll")] public static extern bool IsWindow(IntPtr hWnd);
    [DllImport("user32.dll")] public static extern bool IsWindowVisible(IntPtr hWnd);
    [DllImport("user32.dll", CharSet=CharSet.Unicode)] public static extern int GetWindowText(IntPtr hWnd, StringBuilder text, int count);
    [DllImport("user32.dll")] public static extern int GetWindowTextLength(IntPtr hWnd);
    [DllImport("user32.dll")] public static extern uint GetWindowThreadProcessId(IntPtr hWnd, out uint processId);
    [DllImport("user32.dll")] public static extern bool SetForegroundWindow(IntPtr hWnd);
    [DllImport("user32.dll")] public static extern bool GetWindowRect(IntPtr hWnd, out RECT rect);
    [StructLayout(LayoutKind.Sequential)]
    public struct RECT { public int Left; public int Top; public int Right; public int Bottom; }
}
"@
`

// visibleWindowsFn walks top-level windows and keeps the visible ones
// with a non-empty title. Avoids $matches/$pid, which PowerShell
// reserves as automatic variables.
const visibleWindowsFn = `function Get-VisibleWindows {
    $items = New-Object System.Collections.Generic.List[object]
    $cb = [WindowOps+EnumWindowsProc]{
        param($hWnd, $lParam)
        if ([WindowOps]::IsWindowVisible($hWnd)) {
            $len = [WindowOps]::GetWindowTextLength($hWnd)
            if ($len -gt 0) {
                $sb = New-Object System.Text.StringBuilder ($len + 1)
                [WindowOps]::GetWindowText($hWnd, $sb, $sb.Capacity) | Out-Null
                $procId = [uint32]0
                [WindowOps]::GetWindowThreadProcessId($hWnd, [ref]$procId) | Out-Null
                $procName = 'unknown'
                try { $procName = (Get-Process -Id $procId -ErrorAction Stop).ProcessName } catch { }
                $items.Add([pscustomobject]@{ Handle = $hWnd; Title = $sb.ToString(); Process = $procName })
            }
        }
        return $true
    }
    [WindowOps]::EnumWindows($cb, [IntPtr]::Zero) | Out-Null
    return ,$items
}
`

// MonitorsScript lists every display as one MONITOR line:
// MONITOR:index|x|y|width|height|primary|device
func MonitorsScript() Script {
	var b strings.Builder
	b.WriteString(dpiPreamble)
	b.WriteString("Add-Type -AssemblyName System.Windows.Forms\n")
	b.WriteString(`try {
$i = 0
foreach ($s in [System.Windows.Forms.Screen]::AllScreens) {
    $r = $s.Bounds
    $p = 0
    if ($s.Primary) { $p = 1 }
    Write-Output ("MONITOR:{0}|{1}|{2}|{3}|{4}|{5}|{6}" -f $i, $r.X, $r.Y, $r.Width, $r.Height, $p, $s.DeviceName)
    $i++
}
} catch { Write-Output ('ERROR: ' + $_.Exception.Message) }
`)
	return Script{purpose: PurposeEnumerateMonitors, body: b.String()}
}

// WindowsScript lists visible titled windows as one WINDOW line each:
// WINDOW:handle|process|title. Title comes last so embedded pipes in
// window titles survive a bounded split.
func WindowsScript() Script {
	var b strings.Builder
	b.WriteString(dpiPreamble)
	b.WriteString(windowOpsType)
	b.WriteString(visibleWindowsFn)
	b.WriteString(`try {
foreach ($w in (Get-VisibleWindows)) {
    Write-Output ("WINDOW:{0}|{1}|{2}" -f $w.Handle.ToInt64(), $w.Process, $w.Title)
}
} catch { Write-Output ('ERROR: ' + $_.Exception.Message) }
`)
	return Script{purpose: PurposeEnumerateWindows, body: b.String()}
}

// ScreenCaptureScript grabs the resolved rectangle. Direct mode streams
// the bitmap back as BASE64 PNG; file mode saves a PNG at the
// (Windows-namespace) destination.
func ScreenCaptureScript(rect capture.Rect, mode capture.Mode, winDest string) Script {
	var b strings.Builder
	b.WriteString(dpiPreamble)
	b.WriteString("Add-Type -AssemblyName System.Windows.Forms\n")
	b.WriteString("Add-Type -AssemblyName System.Drawing\n")
	b.WriteString("try {\n")
	fmt.Fprintf(&b, "$bmp = New-Object System.Drawing.Bitmap(%d, %d)\n", rect.Width, rect.Height)
	b.WriteString("$g = [System.Drawing.Graphics]::FromImage($bmp)\n")
	fmt.Fprintf(&b, "$g.CopyFromScreen(%d, %d, 0, 0, (New-Object System.Drawing.Size(%d, %d)))\n",
		rect.X, rect.Y, rect.Width, rect.Height)
	b.WriteString("$g.Dispose()\n")
	b.WriteString(emitBitmap(mode, winDest))
	b.WriteString("$bmp.Dispose()\n")
	b.WriteString("} catch { Write-Output ('ERROR: ' + $_.Exception.Message) }\n")
	return Script{purpose: PurposeCaptureScreen, body: b.String()}
}

// WindowCaptureScript captures a resolved window. The resolved handle
// is validated first; if it has gone stale between resolution and
// capture, the script re-runs the search with the same matching rules
// and reports through the sentinel protocol. The chosen window is
// foregrounded and given 200ms to settle before pixels are sampled.
func WindowCaptureScript(target *capture.Target, mode capture.Mode, winDest string) Script {
	spec := target.Spec

	term := strings.ToLower(spec.Query)
	byProcess := spec.Kind == capture.SpecWindowProcess
	notFound := "WINDOW_NOT_FOUND:"
	if byProcess {
		term = strings.TrimSuffix(term, ".exe")
		notFound = "PROCESS_NOT_FOUND:"
	}

	idx := 0
	if spec.Index != nil {
		idx = *spec.Index
	}
	var handle uint64
	if target.Window != nil {
		handle = target.Window.Handle
	}

	var filter string
	if byProcess {
		filter = `        $p = $w.Process.ToLowerInvariant()
        if ($p.EndsWith('.exe')) { $p = $p.Substring(0, $p.Length - 4) }
        if ($p.Contains(` + psQuote(term) + `)) { $hits.Add($w) }`
	} else {
		filter = `        if ($w.Title.ToLowerInvariant().Contains(` + psQuote(term) + `)) { $hits.Add($w) }`
	}

	var b strings.Builder
	b.WriteString(dpiPreamble)
	b.WriteString("Add-Type -AssemblyName System.Windows.Forms\n")
	b.WriteString("Add-Type -AssemblyName System.Drawing\n")
	b.WriteString(windowOpsType)
	b.WriteString(visibleWindowsFn)
	b.WriteString("try {\n")
	fmt.Fprintf(&b, "$hWnd = [IntPtr]::new([int64]%d)\n", handle)
	b.WriteString(`if (($hWnd -eq [IntPtr]::Zero) -or -not ([WindowOps]::IsWindow($hWnd) -and [WindowOps]::IsWindowVisible($hWnd))) {
    $hits = New-Object System.Collections.Generic.List[object]
    foreach ($w in (Get-VisibleWindows)) {
`)
	b.WriteString(filter)
	b.WriteString("\n    }\n")
	fmt.Fprintf(&b, `    if ($hits.Count -eq 0) {
        Write-Output ('%s' + %s)
        exit 0
    } elseif ($hits.Count -eq 1) {
        $hWnd = $hits[0].Handle
    } elseif ((%d -ge 1) -and (%d -le $hits.Count)) {
        $hWnd = $hits[%d - 1].Handle
    } else {
        Write-Output ('MULTIPLE_WINDOWS_FOUND:' + %s + ':')
        $n = 1
        foreach ($m in $hits) {
            Write-Output ("{0}. {1} ({2})" -f $n, $m.Title, $m.Process)
            $n++
        }
        Write-Output ("{0}. Cancel capture" -f $n)
        exit 0
    }
}
`, notFound, psQuote(spec.Query), idx, idx, idx, psQuote(spec.Query))
	b.WriteString(`[WindowOps]::SetForegroundWindow($hWnd) | Out-Null
Start-Sleep -Milliseconds 200
$rect = New-Object 'WindowOps+RECT'
[WindowOps]::GetWindowRect($hWnd, [ref]$rect) | Out-Null
$cw = $rect.Right - $rect.Left
$ch = $rect.Bottom - $rect.Top
if (($cw -le 0) -or ($ch -le 0)) {
    Write-Output 'ERROR: window has no visible area'
    exit 0
}
$bmp = New-Object System.Drawing.Bitmap($cw, $ch)
$g = [System.Drawing.Graphics]::FromImage($bmp)
$g.CopyFromScreen($rect.Left, $rect.Top, 0, 0, (New-Object System.Drawing.Size($cw, $ch)))
$g.Dispose()
`)
	b.WriteString(emitBitmap(mode, winDest))
	b.WriteString("$bmp.Dispose()\n")
	b.WriteString("} catch { Write-Output ('ERROR: ' + $_.Exception.Message) }\n")
	return Script{purpose: PurposeCaptureWindow, body: b.String()}
}

// ClipboardScript reads the Windows clipboard. format is "auto",
// "text", or "image"; each emits exactly one sentinel.
func ClipboardScript(format string) Script {
	var body string
	switch format {
	case "text":
		body = `if ([System.Windows.Forms.Clipboard]::ContainsText()) {
    Write-Output ('TEXT_CONTENT:' + [System.Windows.Forms.Clipboard]::GetText())
} elseif ([System.Windows.Forms.Clipboard]::ContainsImage()) {
    Write-Output 'NO_TEXT_IN_CLIPBOARD'
} else {
    Write-Output 'EMPTY_CLIPBOARD'
}
`
	case "image":
		body = `if ([System.Windows.Forms.Clipboard]::ContainsImage()) {
    $img = [System.Windows.Forms.Clipboard]::GetImage()
    $ms = New-Object System.IO.MemoryStream
    $img.Save($ms, [System.Drawing.Imaging.ImageFormat]::Png)
    Write-Output ('BASE64:' + [Convert]::ToBase64String($ms.ToArray()))
    $ms.Dispose()
} elseif ([System.Windows.Forms.Clipboard]::ContainsText()) {
    Write-Output 'NO_IMAGE_IN_CLIPBOARD'
} else {
    Write-Output 'EMPTY_CLIPBOARD'
}
`
	default: // auto
		body = `if ([System.Windows.Forms.Clipboard]::ContainsText()) {
    Write-Output ('TEXT_CONTENT:' + [System.Windows.Forms.Clipboard]::GetText())
} elseif ([System.Windows.Forms.Clipboard]::ContainsImage()) {
    $img = [System.Windows.Forms.Clipboard]::GetImage()
    $ms = New-Object System.IO.MemoryStream
    $img.Save($ms, [System.Drawing.Imaging.ImageFormat]::Png)
    Write-Output ('BASE64:' + [Convert]::ToBase64String($ms.ToArray()))
    $ms.Dispose()
} else {
    Write-Output 'EMPTY_CLIPBOARD'
}
`
	}

	var b strings.Builder
	b.WriteString(dpiPreamble)
	b.WriteString("Add-Type -AssemblyName System.Windows.Forms\n")
	b.WriteString("Add-Type -AssemblyName System.Drawing\n")
	b.WriteString("try {\n")
	b.WriteString(body)
	b.WriteString("} catch { Write-Output ('ERROR: ' + $_.Exception.Message) }\n")
	return Script{purpose: PurposeClipboard, body: b.String()}
}

// ProbeScript verifies the bridge is reachable at all.
func ProbeScript() Script {
	return Script{
		purpose: PurposeProbe,
		body:    "Write-Output ('PONG ' + [System.Environment]::OSVersion.VersionString)\n",
	}
}

func emitBitmap(mode capture.Mode, winDest string) string {
	if mode == capture.ModeDirect {
		return `$ms = New-Object System.IO.MemoryStream
$bmp.Save($ms, [System.Drawing.Imaging.ImageFormat]::Png)
Write-Output ('BASE64:' + [Convert]::ToBase64String($ms.ToArray()))
$ms.Dispose()
`
	}
	return "$bmp.Save(" + psQuote(winDest) + ", [System.Drawing.Imaging.ImageFormat]::Png)\n"
}
