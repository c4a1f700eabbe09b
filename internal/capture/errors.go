package capture

import "fmt"

// NotFoundKind says which selector produced zero matches.
type NotFoundKind int

const (
	NotFoundWindow NotFoundKind = iota
	NotFoundProcess
)

// NotFoundError reports a window query that matched nothing.
type NotFoundError struct {
	Kind  NotFoundKind
	Query string
}

func (e *NotFoundError) Error() string {
	if e.Kind == NotFoundProcess {
		return fmt.Sprintf("no visible window found for process %q", e.Query)
	}
	return fmt.Sprintf("no visible window found with title containing %q", e.Query)
}

// AmbiguousError reports a window query with several matches and no
// usable index. Its message is the full disambiguation list, ready to
// show the caller.
type AmbiguousError struct {
	Query   string
	Matches []WindowMatch
}

func (e *AmbiguousError) Error() string {
	return FormatAmbiguous(e.Query, e.Matches)
}

// InvalidMonitorIndexError reports a monitor index outside the range of
// connected displays.
type InvalidMonitorIndexError struct {
	Index int
	Count int
}

func (e *InvalidMonitorIndexError) Error() string {
	if e.Count == 1 {
		return fmt.Sprintf("monitor %d was requested but only 1 monitor is connected (valid: 1)", e.Index)
	}
	return fmt.Sprintf("monitor %d was requested but only %d monitors are connected (valid: 1-%d)", e.Index, e.Count, e.Count)
}

// InvalidSelectorError reports a selector field with an unusable value.
type InvalidSelectorError struct {
	Field string
	Value string
}

func (e *InvalidSelectorError) Error() string {
	return fmt.Sprintf("%s %q is not valid: use \"all\", \"primary\", or a 1-based monitor number", e.Field, e.Value)
}
