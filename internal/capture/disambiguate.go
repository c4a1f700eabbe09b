package capture

import (
	"fmt"
	"strings"
)

// FormatAmbiguous renders the numbered window list shown when a query
// matches more than one window. Numbering follows match order, a cancel
// option takes the slot after the last match, and the trailing guidance
// tells the caller how to retry with windowIndex.
func FormatAmbiguous(query string, matches []WindowMatch) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Multiple windows found matching %q:\n", query)
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, m.Title, m.Process)
	}
	cancel := len(matches) + 1
	fmt.Fprintf(&b, "%d. Cancel capture\n", cancel)

	b.WriteString("\n")
	fmt.Fprintf(&b, "Call take_screenshot again with windowIndex set to the number of the window to capture (e.g. windowIndex: 1), or pick %d to cancel.", cancel)

	return b.String()
}

// FormatAmbiguousRaw wraps a pre-rendered match list coming back from
// the bridge in the same header and guidance as FormatAmbiguous. The
// lines arrive already numbered; cancelLine is preserved verbatim.
func FormatAmbiguousRaw(query string, lines []string, cancelLine string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Multiple windows found matching %q:\n", query)
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if cancelLine != "" {
		b.WriteString(cancelLine)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString("Call take_screenshot again with windowIndex set to the number of the window to capture (e.g. windowIndex: 1), or pick the cancel option to stop.")

	return b.String()
}
