package tap

import (
	"strings"

	"golang.org/x/text/cases"
)

// Directive annotates a result line. Defined by the TAP protocol.
type Directive string

const (
	// None renders the plain "- " separator.
	None Directive = ""
	// Skip marks a result that was not evaluated.
	Skip Directive = "skip"
	// Todo marks an expected failure; it never fails the suite.
	Todo Directive = "todo"
)

var fold = cases.Fold()

// ParseDirective normalizes s to a recognized directive.
// Unknown values yield None.
func ParseDirective(s string) Directive {
	switch d := Directive(fold.String(strings.TrimSpace(s))); d {
	case Skip, Todo:
		return d
	default:
		return None
	}
}

// Valid reports whether d is one of the two protocol directives.
func (d Directive) Valid() bool {
	return d == Skip || d == Todo
}

// Marker returns the text placed between the ordinal and the message.
func (d Directive) Marker() string {
	if d.Valid() {
		return "# " + string(d) + " "
	}
	return "- "
}

// Resolve picks the directive for a single result line.
//
// A fixed directive (declared when the test was registered) always wins.
// Otherwise the first call-site directive is used if it is recognized.
func Resolve(fixed Directive, callSite ...Directive) Directive {
	if fixed = ParseDirective(string(fixed)); fixed.Valid() {
		return fixed
	}
	if len(callSite) == 0 {
		return None
	}
	return ParseDirective(string(callSite[0]))
}
