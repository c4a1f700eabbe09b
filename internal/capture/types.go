// Package capture holds the request model and target resolution policy:
// deciding which screen region or window a capture request refers to,
// before any bridge work happens.
package capture

import "strconv"

// Rect is a rectangle in virtual-desktop coordinates. Origin can be
// negative: monitors left of or above the primary have negative offsets.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	if r.Width <= 0 || r.Height <= 0 {
		return o
	}
	if o.Width <= 0 || o.Height <= 0 {
		return r
	}

	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.X+r.Width, o.X+o.Width)
	y2 := max(r.Y+r.Height, o.Y+o.Height)

	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Monitor describes one display as reported by the bridge.
type Monitor struct {
	Index   int
	Rect    Rect
	Primary bool
	Device  string
}

// WindowMatch is one visible top-level window with a non-empty title.
type WindowMatch struct {
	Handle  uint64
	Title   string
	Process string
}

// SpecKind selects which target selector a request carries.
type SpecKind int

const (
	SpecAllMonitors SpecKind = iota
	SpecPrimary
	SpecMonitorIndex
	SpecWindowTitle
	SpecWindowProcess
)

// TargetSpec is the declarative part of a capture request: which screen
// region or window the caller wants, before resolution.
type TargetSpec struct {
	Kind SpecKind

	// MonitorIndex is the 1-based display index for SpecMonitorIndex.
	MonitorIndex int

	// Query is the title or process search term for window kinds.
	Query string

	// Index picks one match when a window query is ambiguous. nil means
	// the caller did not supply one, which is distinct from any value.
	Index *int
}

// Mode selects how the captured image leaves the system.
type Mode int

const (
	// ModeFile saves a lossless PNG to the destination path.
	ModeFile Mode = iota
	// ModeDirect returns the image inline, compressed to the byte budget.
	ModeDirect
)

// Request is one fully-parsed take_screenshot invocation.
type Request struct {
	Spec     TargetSpec
	Mode     Mode
	Quality  int
	Filename string
	Folder   string
}

// TargetKind discriminates resolved targets.
type TargetKind int

const (
	TargetScreen TargetKind = iota
	TargetWindow
)

// Target is a resolved capture region. Screen targets carry the exact
// rectangle to grab. Window targets carry the resolved window plus the
// original query so the capture script can re-search if the handle has
// gone stale by capture time.
type Target struct {
	Kind   TargetKind
	Rect   Rect
	Window *WindowMatch
	Spec   TargetSpec
}

// ParseSpec builds a TargetSpec from the wire-level selector fields.
// windowTitle takes precedence over processName, which takes precedence
// over monitor. monitor accepts "all", "primary", or a 1-based index.
func ParseSpec(monitor, windowTitle, processName string, windowIndex *int) (TargetSpec, error) {
	if windowTitle != "" {
		return TargetSpec{Kind: SpecWindowTitle, Query: windowTitle, Index: windowIndex}, nil
	}
	if processName != "" {
		return TargetSpec{Kind: SpecWindowProcess, Query: processName, Index: windowIndex}, nil
	}

	switch monitor {
	case "", "all":
		return TargetSpec{Kind: SpecAllMonitors}, nil
	case "primary":
		return TargetSpec{Kind: SpecPrimary}, nil
	}

	n, err := strconv.Atoi(monitor)
	if err != nil {
		return TargetSpec{}, &InvalidSelectorError{Field: "monitor", Value: monitor}
	}
	return TargetSpec{Kind: SpecMonitorIndex, MonitorIndex: n}, nil
}
