package capture

import (
	"strconv"
	"strings"
	"testing"
)

func TestFormatAmbiguousListsMatchesAndCancel(t *testing.T) {
	matches := []WindowMatch{
		{Title: "Inbox - Google Chrome", Process: "chrome"},
		{Title: "Docs - Google Chrome", Process: "chrome"},
	}

	msg := FormatAmbiguous("chrome", matches)

	for _, want := range []string{
		`Multiple windows found matching "chrome":`,
		"1. Inbox - Google Chrome (chrome)",
		"2. Docs - Google Chrome (chrome)",
		"3. Cancel capture",
		"windowIndex",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}

	// Cancel always takes the slot after the last match.
	if strings.Index(msg, "2. Docs") > strings.Index(msg, "3. Cancel capture") {
		t.Fatalf("cancel option should follow the matches:\n%s", msg)
	}
}

func TestFormatAmbiguousGuidanceNamesRetryParameter(t *testing.T) {
	msg := FormatAmbiguous("term", []WindowMatch{
		{Title: "A", Process: "a"},
		{Title: "B", Process: "b"},
	})

	if !strings.Contains(msg, "windowIndex: 1") {
		t.Fatalf("guidance should show an example windowIndex value:\n%s", msg)
	}
	if !strings.Contains(msg, "3 to cancel") {
		t.Fatalf("guidance should name the cancel number:\n%s", msg)
	}
}

func TestFormatAmbiguousErrorMessageMatches(t *testing.T) {
	matches := []WindowMatch{
		{Title: "A", Process: "a"},
		{Title: "B", Process: "b"},
	}
	err := &AmbiguousError{Query: "x", Matches: matches}

	if err.Error() != FormatAmbiguous("x", matches) {
		t.Fatal("AmbiguousError message should be the formatted disambiguation list")
	}
}

func TestFormatAmbiguousRawPreservesBridgeLines(t *testing.T) {
	lines := []string{
		"1. Inbox - Google Chrome (chrome)",
		"2. Docs - Google Chrome (chrome)",
	}
	msg := FormatAmbiguousRaw("chrome", lines, "3. Cancel capture")

	for _, want := range append(lines, "3. Cancel capture", "windowIndex") {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatAmbiguousThreeMatchesRendersFourOptions(t *testing.T) {
	matches := []WindowMatch{
		{Title: "Inbox - Google Chrome", Process: "chrome"},
		{Title: "Docs - Google Chrome", Process: "chrome"},
		{Title: "Meet - Google Chrome", Process: "chrome"},
	}

	msg := FormatAmbiguous("Chrome", matches)

	numbered := 0
	for _, line := range strings.Split(msg, "\n") {
		if i := strings.Index(line, ". "); i > 0 {
			if _, err := strconv.Atoi(line[:i]); err == nil {
				numbered++
			}
		}
	}
	if numbered != 4 {
		t.Fatalf("want 4 option lines (3 matches + cancel), got %d:\n%s", numbered, msg)
	}
	if !strings.Contains(msg, "4. Cancel capture") {
		t.Fatalf("cancel should be option 4:\n%s", msg)
	}
}
