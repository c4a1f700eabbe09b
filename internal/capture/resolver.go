package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/peterparker57/WSLSnapit-MCP/internal/logging"
)

// Enumerator supplies the display and window inventory the resolver
// works from. The production implementation queries the bridge; tests
// substitute fixed data.
type Enumerator interface {
	Monitors(ctx context.Context) ([]Monitor, error)
	Windows(ctx context.Context) ([]WindowMatch, error)
}

// Resolver turns a TargetSpec into a concrete capture target. It only
// reads state: foregrounding and settle delays belong to the capture
// script, not to resolution.
type Resolver struct {
	enum Enumerator
	log  *slog.Logger
}

func NewResolver(enum Enumerator) *Resolver {
	return &Resolver{
		enum: enum,
		log:  logging.L("resolver"),
	}
}

func (r *Resolver) Resolve(ctx context.Context, spec TargetSpec) (*Target, error) {
	switch spec.Kind {
	case SpecAllMonitors, SpecPrimary, SpecMonitorIndex:
		return r.resolveScreen(ctx, spec)
	case SpecWindowTitle, SpecWindowProcess:
		return r.resolveWindow(ctx, spec)
	default:
		return nil, fmt.Errorf("unknown target kind %d", spec.Kind)
	}
}

func (r *Resolver) resolveScreen(ctx context.Context, spec TargetSpec) (*Target, error) {
	monitors, err := r.enum.Monitors(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate monitors: %w", err)
	}
	if len(monitors) == 0 {
		return nil, errors.New("bridge reported no monitors")
	}
	sortMonitors(monitors)

	var rect Rect
	switch spec.Kind {
	case SpecAllMonitors:
		rect = virtualBounds(monitors)
	case SpecPrimary:
		rect = primaryMonitor(monitors).Rect
	case SpecMonitorIndex:
		if spec.MonitorIndex < 1 || spec.MonitorIndex > len(monitors) {
			return nil, &InvalidMonitorIndexError{Index: spec.MonitorIndex, Count: len(monitors)}
		}
		rect = monitors[spec.MonitorIndex-1].Rect
	}

	if rect.Width <= 0 || rect.Height <= 0 {
		return nil, fmt.Errorf("resolved region %dx%d is empty", rect.Width, rect.Height)
	}

	r.log.Debug("resolved screen target",
		"x", rect.X, "y", rect.Y, "width", rect.Width, "height", rect.Height)
	return &Target{Kind: TargetScreen, Rect: rect, Spec: spec}, nil
}

func (r *Resolver) resolveWindow(ctx context.Context, spec TargetSpec) (*Target, error) {
	windows, err := r.enum.Windows(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate windows: %w", err)
	}

	matches := matchWindows(windows, spec)
	match, err := chooseMatch(matches, spec)
	if err != nil {
		return nil, err
	}

	r.log.Debug("resolved window target",
		"title", match.Title, "process", match.Process, "handle", match.Handle)
	return &Target{Kind: TargetWindow, Window: &match, Spec: spec}, nil
}

// sortMonitors orders displays by horizontal origin so that "monitor 1"
// means the leftmost display regardless of which one Windows calls
// primary. Vertical origin breaks ties for stacked layouts.
func sortMonitors(monitors []Monitor) {
	sort.SliceStable(monitors, func(i, j int) bool {
		if monitors[i].Rect.X != monitors[j].Rect.X {
			return monitors[i].Rect.X < monitors[j].Rect.X
		}
		return monitors[i].Rect.Y < monitors[j].Rect.Y
	})
}

// virtualBounds is the union rectangle spanning every display.
func virtualBounds(monitors []Monitor) Rect {
	var bounds Rect
	for _, m := range monitors {
		bounds = bounds.Union(m.Rect)
	}
	return bounds
}

func primaryMonitor(monitors []Monitor) Monitor {
	for _, m := range monitors {
		if m.Primary {
			return m
		}
	}
	return monitors[0]
}

// matchWindows filters the window inventory by the requested query.
// Title queries are case-insensitive substring matches. Process queries
// additionally ignore a trailing .exe on either side. Enumeration order
// is preserved so disambiguation numbering stays stable.
func matchWindows(windows []WindowMatch, spec TargetSpec) []WindowMatch {
	var matches []WindowMatch
	switch spec.Kind {
	case SpecWindowTitle:
		term := strings.ToLower(spec.Query)
		for _, w := range windows {
			if strings.Contains(strings.ToLower(w.Title), term) {
				matches = append(matches, w)
			}
		}
	case SpecWindowProcess:
		term := stripExe(strings.ToLower(spec.Query))
		for _, w := range windows {
			if strings.Contains(stripExe(strings.ToLower(w.Process)), term) {
				matches = append(matches, w)
			}
		}
	}
	return matches
}

func stripExe(name string) string {
	return strings.TrimSuffix(name, ".exe")
}

// chooseMatch applies the disambiguation policy: a single match wins
// outright, a supplied in-range index picks from multiple matches, and
// anything else is either not found or ambiguous.
func chooseMatch(matches []WindowMatch, spec TargetSpec) (WindowMatch, error) {
	switch {
	case len(matches) == 0:
		kind := NotFoundWindow
		if spec.Kind == SpecWindowProcess {
			kind = NotFoundProcess
		}
		return WindowMatch{}, &NotFoundError{Kind: kind, Query: spec.Query}
	case len(matches) == 1:
		return matches[0], nil
	}

	if spec.Index != nil {
		i := *spec.Index
		if i >= 1 && i <= len(matches) {
			return matches[i-1], nil
		}
		// Out-of-range index falls through to disambiguation.
	}
	return WindowMatch{}, &AmbiguousError{Query: spec.Query, Matches: matches}
}
