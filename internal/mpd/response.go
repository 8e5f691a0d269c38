package mpd

import "strings"

// Attrs is a parsed response: key -> value. When a key repeats, the last
// occurrence wins.
type Attrs map[string]string

// ParseLine splits a "key: value" line. The key is everything before the
// first colon; the value starts two bytes after it, so the single separating
// space is dropped and any further colons stay in the value. Lines without a
// colon report ok == false.
func ParseLine(line string) (key, value string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", "", false
	}
	key = line[:i]
	if i+2 <= len(line) {
		value = line[i+2:]
	}
	return key, value, true
}

// ParseResponse parses a block of newline separated lines into Attrs.
// Lines without a separator, including the "OK" terminator, are skipped.
func ParseResponse(text string) Attrs {
	attrs := make(Attrs)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if k, v, ok := ParseLine(line); ok {
			attrs[k] = v
		}
	}
	return attrs
}
