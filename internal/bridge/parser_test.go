package bridge

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func run(stdout, stderr string, exitCode int) *ExecResult {
	return &ExecResult{Stdout: stdout, Stderr: stderr, ExitCode: exitCode}
}

func parseOK(t *testing.T, res *ExecResult, expect Expectation) *Result {
	t.Helper()
	result, err := Parse(res, expect)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return result
}

func TestParseImage(t *testing.T) {
	payload := []byte("not-really-a-png-but-bytes")
	stdout := "BASE64:" + base64.StdEncoding.EncodeToString(payload) + "\n"

	result := parseOK(t, run(stdout, "", 0), ExpectImage)
	if result.Outcome != OutcomeImage {
		t.Fatalf("outcome = %d, want image", result.Outcome)
	}
	if !bytes.Equal(result.Image, payload) {
		t.Fatalf("decoded payload mismatch: %q", result.Image)
	}
}

func TestParseImageIgnoresSurroundingNoise(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01}
	stdout := "Loading personal profile...\nBASE64:" +
		base64.StdEncoding.EncodeToString(payload) + "\nSome trailing warning\n"

	result := parseOK(t, run(stdout, "one more warning on stderr", 0), ExpectImage)
	if !bytes.Equal(result.Image, payload) {
		t.Fatalf("decoded payload mismatch: %v", result.Image)
	}
}

func TestParseImageStopsAtEmbeddedMarker(t *testing.T) {
	payload := []byte("image-bytes")
	stdout := "BASE64:" + base64.StdEncoding.EncodeToString(payload) +
		"ERROR: dispose failed\n"

	result := parseOK(t, run(stdout, "", 0), ExpectImage)
	if result.Outcome != OutcomeImage {
		t.Fatalf("outcome = %d, want image", result.Outcome)
	}
	if !bytes.Equal(result.Image, payload) {
		t.Fatalf("decoded payload mismatch: %q", result.Image)
	}
}

func TestParseImageTruncatesPartialQuantum(t *testing.T) {
	full := base64.StdEncoding.EncodeToString([]byte("0123456789AB"))
	// Chop mid-quantum, as a capped stream would.
	stdout := "BASE64:" + full[:len(full)-2] + "\n"

	result := parseOK(t, run(stdout, "", 0), ExpectImage)
	if want := []byte("012345678"); !bytes.Equal(result.Image, want) {
		t.Fatalf("truncated decode = %q, want %q", result.Image, want)
	}
}

func TestParseImageWinsOverLaterError(t *testing.T) {
	stdout := "BASE64:" + base64.StdEncoding.EncodeToString([]byte("ABC")) + "\n"
	result := parseOK(t, run(stdout, "ERROR: cleanup grumble", 0), ExpectImage)
	if result.Outcome != OutcomeImage {
		t.Fatalf("outcome = %d, want image", result.Outcome)
	}
}

func TestParseEmptyImagePayload(t *testing.T) {
	_, err := Parse(run("BASE64:\n", "", 0), ExpectImage)
	if !errors.Is(err, ErrNoSentinel) {
		t.Fatalf("want ErrNoSentinel, got %v", err)
	}
}

func TestParseGarbageImagePayload(t *testing.T) {
	_, err := Parse(run("BASE64:====\n", "", 0), ExpectImage)
	if err == nil {
		t.Fatal("expected decode failure")
	}
}

func TestParseErrorMarker(t *testing.T) {
	result := parseOK(t, run("ERROR: Capture failed: access denied\n", "", 0), ExpectImage)
	if result.Outcome != OutcomeError {
		t.Fatalf("outcome = %d, want error", result.Outcome)
	}
	if result.Text != "Capture failed: access denied" {
		t.Fatalf("message = %q", result.Text)
	}
}

func TestParseWindowNotFound(t *testing.T) {
	result := parseOK(t, run("WINDOW_NOT_FOUND:teams\n", "", 0), ExpectImage)
	if result.Outcome != OutcomeWindowNotFound {
		t.Fatalf("outcome = %d, want window-not-found", result.Outcome)
	}
	if result.Term != "teams" {
		t.Fatalf("term = %q", result.Term)
	}
}

func TestParseProcessNotFound(t *testing.T) {
	result := parseOK(t, run("PROCESS_NOT_FOUND:slack\n", "", 0), ExpectSaved)
	if result.Outcome != OutcomeProcessNotFound {
		t.Fatalf("outcome = %d, want process-not-found", result.Outcome)
	}
	if result.Term != "slack" {
		t.Fatalf("term = %q", result.Term)
	}
}

func TestParseNotFoundPrecedesImage(t *testing.T) {
	stdout := "BASE64:" + base64.StdEncoding.EncodeToString([]byte("ABC")) +
		"\nWINDOW_NOT_FOUND:x\n"
	result := parseOK(t, run(stdout, "", 0), ExpectImage)
	if result.Outcome != OutcomeWindowNotFound {
		t.Fatalf("outcome = %d, want window-not-found", result.Outcome)
	}
}

func TestParseMultipleWindows(t *testing.T) {
	stdout := strings.Join([]string{
		"MULTIPLE_WINDOWS_FOUND:chrome:",
		"1. Inbox - Google Chrome (chrome)",
		"2. Docs - Google Chrome (chrome)",
		"3. Cancel capture",
		"",
	}, "\n")

	result := parseOK(t, run(stdout, "", 0), ExpectImage)
	if result.Outcome != OutcomeAmbiguous {
		t.Fatalf("outcome = %d, want ambiguous", result.Outcome)
	}
	if result.Term != "chrome" {
		t.Fatalf("term = %q", result.Term)
	}
	want := []string{
		"1. Inbox - Google Chrome (chrome)",
		"2. Docs - Google Chrome (chrome)",
	}
	if len(result.Matches) != len(want) {
		t.Fatalf("matches = %q", result.Matches)
	}
	for i := range want {
		if result.Matches[i] != want[i] {
			t.Fatalf("match %d = %q, want %q", i, result.Matches[i], want[i])
		}
	}
	if result.Cancel != "3. Cancel capture" {
		t.Fatalf("cancel = %q", result.Cancel)
	}
}

func TestParseMultipleWindowsFiltersFraming(t *testing.T) {
	stdout := strings.Join([]string{
		"MULTIPLE_WINDOWS_FOUND:term:",
		"",
		"----------------",
		"1. A (a)",
		"",
		"================",
		"2. B (b)",
		"3. Cancel capture",
	}, "\r\n")

	result := parseOK(t, run(stdout, "", 0), ExpectImage)
	if len(result.Matches) != 2 {
		t.Fatalf("matches = %q", result.Matches)
	}
	if result.Matches[0] != "1. A (a)" || result.Matches[1] != "2. B (b)" {
		t.Fatalf("matches = %q", result.Matches)
	}
	if result.Cancel != "3. Cancel capture" {
		t.Fatalf("cancel = %q", result.Cancel)
	}
}

func TestParseMultiplePrecedesEverything(t *testing.T) {
	stdout := "ERROR: earlier noise\nMULTIPLE_WINDOWS_FOUND:x:\n1. A (a)\n2. Cancel capture\n"
	result := parseOK(t, run(stdout, "", 0), ExpectImage)
	if result.Outcome != OutcomeAmbiguous {
		t.Fatalf("outcome = %d, want ambiguous", result.Outcome)
	}
}

func TestParseMultipleWithoutMatchLinesIsError(t *testing.T) {
	if _, err := Parse(run("MULTIPLE_WINDOWS_FOUND:x:\n\n", "", 0), ExpectImage); err == nil {
		t.Fatal("expected parse failure for empty match list")
	}
}

func TestParseTextContent(t *testing.T) {
	result := parseOK(t, run("TEXT_CONTENT:hello world\n", "", 0), ExpectClipboard)
	if result.Outcome != OutcomeText {
		t.Fatalf("outcome = %d, want text", result.Outcome)
	}
	if result.Text != "hello world" {
		t.Fatalf("text = %q", result.Text)
	}
}

func TestParseTextContentKeepsInteriorNewlines(t *testing.T) {
	result := parseOK(t, run("TEXT_CONTENT:line one\nline two\n", "", 0), ExpectClipboard)
	if result.Text != "line one\nline two" {
		t.Fatalf("text = %q", result.Text)
	}
}

func TestParseTextNotHijackedByPayloadMarker(t *testing.T) {
	result := parseOK(t, run("TEXT_CONTENT:deploy log: ERROR: disk full\n", "", 0), ExpectClipboard)
	if result.Outcome != OutcomeText {
		t.Fatalf("outcome = %d, want text", result.Outcome)
	}
	if !strings.HasPrefix(result.Text, "deploy log") {
		t.Fatalf("text = %q", result.Text)
	}
}

func TestParseClipboardStates(t *testing.T) {
	cases := []struct {
		stdout string
		want   Outcome
	}{
		{"EMPTY_CLIPBOARD\n", OutcomeClipboardEmpty},
		{"NO_TEXT_IN_CLIPBOARD\n", OutcomeNoText},
		{"NO_IMAGE_IN_CLIPBOARD\n", OutcomeNoImage},
	}
	for _, tc := range cases {
		result := parseOK(t, run(tc.stdout, "", 0), ExpectClipboard)
		if result.Outcome != tc.want {
			t.Fatalf("%q: outcome = %d, want %d", tc.stdout, result.Outcome, tc.want)
		}
	}
}

func TestParseSentinelOnStderr(t *testing.T) {
	result := parseOK(t, run("", "WINDOW_NOT_FOUND:stray", 0), ExpectImage)
	if result.Outcome != OutcomeWindowNotFound || result.Term != "stray" {
		t.Fatalf("result = %+v", result)
	}
}

func TestParseSavedExpectation(t *testing.T) {
	result := parseOK(t, run("", "", 0), ExpectSaved)
	if result.Outcome != OutcomeSaved {
		t.Fatalf("outcome = %d, want saved", result.Outcome)
	}
}

func TestParseSilenceWithoutSavedExpectationIsError(t *testing.T) {
	for _, expect := range []Expectation{ExpectImage, ExpectClipboard} {
		_, err := Parse(run("profile banner only\n", "", 0), expect)
		if !errors.Is(err, ErrNoSentinel) {
			t.Fatalf("expect %d: want ErrNoSentinel, got %v", expect, err)
		}
	}
}

func TestParseSilentFailureCarriesStderr(t *testing.T) {
	_, err := Parse(run("", "The term 'foo' is not recognized", 1), ExpectSaved)
	var bridgeErr *BridgeError
	if !errors.As(err, &bridgeErr) {
		t.Fatalf("want BridgeError, got %v", err)
	}
	if bridgeErr.ExitCode != 1 {
		t.Fatalf("exit code = %d", bridgeErr.ExitCode)
	}
	if bridgeErr.Error() != "The term 'foo' is not recognized" {
		t.Fatalf("message = %q", bridgeErr.Error())
	}
}

func TestParseSilentFailureWithoutStderr(t *testing.T) {
	_, err := Parse(run("", "  \n", 3), ExpectImage)
	var bridgeErr *BridgeError
	if !errors.As(err, &bridgeErr) {
		t.Fatalf("want BridgeError, got %v", err)
	}
	if bridgeErr.Error() != "bridge failed with exit code 3" {
		t.Fatalf("message = %q", bridgeErr.Error())
	}
}

func TestParseTimeoutIsBridgeError(t *testing.T) {
	res := &ExecResult{ExitCode: -1, TimedOut: true}
	_, err := Parse(res, ExpectSaved)
	var bridgeErr *BridgeError
	if !errors.As(err, &bridgeErr) {
		t.Fatalf("want BridgeError, got %v", err)
	}
}

func TestParseSentinelBeatsNonZeroExit(t *testing.T) {
	result := parseOK(t, run("EMPTY_CLIPBOARD\n", "spurious", 1), ExpectClipboard)
	if result.Outcome != OutcomeClipboardEmpty {
		t.Fatalf("outcome = %d, want clipboard-empty", result.Outcome)
	}
}
