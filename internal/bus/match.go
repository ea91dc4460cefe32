package bus

import "strings"

// Wildcard is the pattern character matching an arbitrary substring
// within one segment.
const Wildcard = "*"

// Delimiter separates topic segments.
const Delimiter = "."

// Match reports whether pattern matches topic.
//
// Exact strings always match. Otherwise both are split on Delimiter and
// compared segment by segment; the segment counts must be equal.
func Match(pattern, topic string) bool {
	pattern = strings.TrimSpace(pattern)
	topic = strings.TrimSpace(topic)

	if pattern == topic {
		return true
	}
	if !strings.Contains(pattern, Wildcard) {
		return false
	}

	ps := strings.Split(pattern, Delimiter)
	ts := strings.Split(topic, Delimiter)
	if len(ps) != len(ts) {
		return false
	}

	for i := range ps {
		if !matchSegment(ps[i], ts[i]) {
			return false
		}
	}
	return true
}

// matchSegment matches one segment where each "*" stands for any run of
// characters, including none.
func matchSegment(pattern, segment string) bool {
	if pattern == Wildcard {
		return true
	}
	if !strings.Contains(pattern, Wildcard) {
		return pattern == segment
	}

	parts := strings.Split(pattern, Wildcard)

	// Anchor the first and last literal parts; the middle ones are found
	// left to right.
	if !strings.HasPrefix(segment, parts[0]) {
		return false
	}
	segment = segment[len(parts[0]):]

	last := parts[len(parts)-1]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(segment, part)
		if idx < 0 {
			return false
		}
		segment = segment[idx+len(part):]
	}

	return len(segment) >= len(last) && strings.HasSuffix(segment, last)
}
