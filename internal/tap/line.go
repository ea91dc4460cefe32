package tap

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Header is the first line of every report.
const Header = "TAP version 13"

// Result formats a result line: "<ok|not ok> <n> <marker><message>".
//
// The "- " separator is dropped when the message is empty, and the line
// never carries trailing whitespace.
func Result(ok bool, n int64, d Directive, msg string) string {
	status := "ok"
	if !ok {
		status = "not ok"
	}

	msg = norm.NFC.String(strings.TrimSpace(singleLine(msg)))
	marker := d.Marker()
	if msg == "" && !d.Valid() {
		marker = ""
	}

	return strings.TrimRight(fmt.Sprintf("%s %d %s%s", status, n, marker, msg), " \t")
}

// Comment formats a comment. A multi-line message becomes one "# " line
// per non-blank line. It returns false for blank messages, which produce
// no output.
func Comment(msg string) (string, bool) {
	var lines []string
	for _, line := range strings.Split(norm.NFC.String(msg), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, "# "+line)
		}
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

// Plan formats the trailing plan line of a completed run.
func Plan(count int64) string {
	return fmt.Sprintf("1..%d", count)
}

// Bail formats the terminal line of a failed run.
func Bail(msg string) string {
	return strings.TrimRight("Bail out! "+singleLine(msg), " \t")
}

// singleLine folds line breaks into spaces so a message cannot spill onto
// lines of its own.
func singleLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
