package bridge

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Sentinel tokens of the bridge protocol. Scripts emit exactly one per
// logical outcome, but they share the stream with whatever noise the
// bridge produces, so parsing is scan-based rather than line-based.
const (
	markerMultiple        = "MULTIPLE_WINDOWS_FOUND:"
	markerWindowNotFound  = "WINDOW_NOT_FOUND:"
	markerProcessNotFound = "PROCESS_NOT_FOUND:"
	markerBase64          = "BASE64:"
	markerError           = "ERROR:"
	markerText            = "TEXT_CONTENT:"
	markerEmpty           = "EMPTY_CLIPBOARD"
	markerNoText          = "NO_TEXT_IN_CLIPBOARD"
	markerNoImage         = "NO_IMAGE_IN_CLIPBOARD"
)

var allMarkers = []string{
	markerMultiple,
	markerWindowNotFound,
	markerProcessNotFound,
	markerBase64,
	markerError,
	markerText,
	markerEmpty,
	markerNoText,
	markerNoImage,
}

// ErrNoSentinel reports bridge output that completed without any
// recognized marker where one was required.
var ErrNoSentinel = errors.New("no recognized sentinel in bridge output")

// BridgeError is a bridge failure with no sentinel to explain it.
type BridgeError struct {
	ExitCode int
	Stderr   string
}

func (e *BridgeError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return msg
	}
	return fmt.Sprintf("bridge failed with exit code %d", e.ExitCode)
}

// Outcome classifies a parsed bridge result.
type Outcome int

const (
	OutcomeImage Outcome = iota
	OutcomeText
	OutcomeSaved
	OutcomeAmbiguous
	OutcomeWindowNotFound
	OutcomeProcessNotFound
	OutcomeClipboardEmpty
	OutcomeNoText
	OutcomeNoImage
	OutcomeError
)

// Result is one decoded bridge outcome.
type Result struct {
	Outcome Outcome

	// Image holds the decoded (still lossless) image bytes.
	Image []byte

	// Text carries TEXT_CONTENT payloads and ERROR messages.
	Text string

	// Term is the search term echoed by match-related sentinels.
	Term string

	// Matches are the pre-rendered disambiguation lines; Cancel is the
	// trailing cancel line, verbatim.
	Matches []string
	Cancel  string
}

// Expectation says what a well-behaved script run must produce when no
// sentinel shows up. Sentinel-bearing flows treat silence as a parse
// error; the file-save flow treats clean silence as success, since its
// terminal action writes to disk instead of the stream.
type Expectation int

const (
	ExpectImage Expectation = iota
	ExpectSaved
	ExpectClipboard
)

// Parse scans the combined output for sentinels. The three match-related
// markers take precedence in their fixed order; the remaining markers
// resolve by earliest occurrence in the stream, which keeps a payload
// that happens to contain another token from hijacking the result.
func Parse(res *ExecResult, expect Expectation) (*Result, error) {
	combined := res.Stdout + "\n" + res.Stderr

	if i := strings.Index(combined, markerMultiple); i >= 0 {
		return parseMultiple(combined[i+len(markerMultiple):])
	}
	if i := strings.Index(combined, markerWindowNotFound); i >= 0 {
		return &Result{
			Outcome: OutcomeWindowNotFound,
			Term:    restOfLine(combined[i+len(markerWindowNotFound):]),
		}, nil
	}
	if i := strings.Index(combined, markerProcessNotFound); i >= 0 {
		return &Result{
			Outcome: OutcomeProcessNotFound,
			Term:    restOfLine(combined[i+len(markerProcessNotFound):]),
		}, nil
	}

	marker, pos := earliestMarker(combined,
		markerBase64, markerText, markerEmpty, markerNoText, markerNoImage, markerError)
	switch marker {
	case markerBase64:
		return parseImage(combined[pos+len(markerBase64):])
	case markerText:
		return &Result{
			Outcome: OutcomeText,
			Text:    strings.TrimRight(cutAtNextMarker(combined[pos+len(markerText):]), "\r\n"),
		}, nil
	case markerEmpty:
		return &Result{Outcome: OutcomeClipboardEmpty}, nil
	case markerNoText:
		return &Result{Outcome: OutcomeNoText}, nil
	case markerNoImage:
		return &Result{Outcome: OutcomeNoImage}, nil
	case markerError:
		return &Result{
			Outcome: OutcomeError,
			Text:    restOfLine(combined[pos+len(markerError):]),
		}, nil
	}

	// No marker at all.
	if res.ExitCode != 0 || res.TimedOut {
		return nil, &BridgeError{ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	if expect == ExpectSaved {
		return &Result{Outcome: OutcomeSaved}, nil
	}
	return nil, fmt.Errorf("parse bridge output: %w", ErrNoSentinel)
}

func earliestMarker(s string, markers ...string) (string, int) {
	best := ""
	bestPos := -1
	for _, m := range markers {
		if i := strings.Index(s, m); i >= 0 && (bestPos < 0 || i < bestPos) {
			best = m
			bestPos = i
		}
	}
	return best, bestPos
}

// parseMultiple handles the MULTIPLE_WINDOWS_FOUND payload:
// term:raw-list. Framing noise is filtered out of the raw list, and a
// trailing cancel line is kept verbatim but separated from the matches.
func parseMultiple(payload string) (*Result, error) {
	payload = cutAtNextMarker(payload)

	term, rawList, found := strings.Cut(payload, ":")
	if !found {
		return nil, fmt.Errorf("parse bridge output: malformed multiple-match payload")
	}

	var lines []string
	for _, line := range strings.Split(rawList, "\n") {
		line = strings.TrimRight(line, "\r")
		if isNoiseLine(line) {
			continue
		}
		lines = append(lines, line)
	}

	var cancel string
	if n := len(lines); n > 0 && strings.Contains(strings.ToLower(lines[n-1]), "cancel") {
		cancel = lines[n-1]
		lines = lines[:n-1]
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("parse bridge output: multiple-match payload carried no match lines")
	}

	return &Result{
		Outcome: OutcomeAmbiguous,
		Term:    strings.TrimSpace(term),
		Matches: lines,
		Cancel:  cancel,
	}, nil
}

// parseImage decodes the BASE64 payload: everything up to the next
// recognized marker or end of stream, truncated at the first byte that
// cannot be part of base64 data.
func parseImage(payload string) (*Result, error) {
	payload = cutAtNextMarker(payload)
	payload = strings.TrimLeft(payload, " \t\r\n")

	end := len(payload)
	for i := 0; i < len(payload); i++ {
		if !isBase64Byte(payload[i]) {
			end = i
			break
		}
	}
	data := payload[:end]
	// A capped or interrupted stream can end mid-quantum.
	data = data[:len(data)-len(data)%4]

	if data == "" {
		return nil, fmt.Errorf("parse bridge output: empty image payload: %w", ErrNoSentinel)
	}

	img, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("parse bridge output: decode image payload: %w", err)
	}
	return &Result{Outcome: OutcomeImage, Image: img}, nil
}

func cutAtNextMarker(s string) string {
	cut := len(s)
	for _, m := range allMarkers {
		if i := strings.Index(s, m); i >= 0 && i < cut {
			cut = i
		}
	}
	return s[:cut]
}

func restOfLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// isNoiseLine drops tool-output framing: blank lines and ruler lines
// made of dashes or equals signs.
func isNoiseLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	for _, r := range trimmed {
		if r != '-' && r != '=' {
			return false
		}
	}
	return true
}

func isBase64Byte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '+' || b == '/' || b == '=':
		return true
	}
	return false
}
