package gstreamer

import (
	"regexp"
	"strings"
)

// EventType classifies what the pipeline reported on its bus.
type EventType int

const (
	EventStateChanged EventType = iota + 1
	EventError
	EventEOS
)

func (t EventType) String() string {
	switch t {
	case EventStateChanged:
		return "state-changed"
	case EventError:
		return "error"
	case EventEOS:
		return "eos"
	default:
		return "unknown"
	}
}

// Event is one coarse-grained bus message.
type Event struct {
	Type EventType
	// State is the new pipeline state for EventStateChanged, e.g. "PLAYING".
	State string
	// Message carries the diagnostic for EventError.
	Message string
}

// Terminal reports whether the event ends a pipeline run.
func (e Event) Terminal() bool {
	return e.Type == EventError || e.Type == EventEOS
}

// Patterns for gst-launch-1.0 -m output.
var (
	// "Setting pipeline to PAUSED ..."
	settingStateRegex = regexp.MustCompile(`^Setting pipeline to (\w+)`)

	// Got message #31 from element "pipeline0" (state-changed): GstMessageStateChanged, old-state=(GstState)paused, new-state=(GstState)playing, ...
	busStateRegex = regexp.MustCompile(`from element "pipeline\d*" \(state-changed\).*new-state=\(GstState\)(\w+)`)

	// Got message #40 from element "pipeline0" (eos): ...
	busEOSRegex = regexp.MustCompile(`^Got message #\d+ from .*\(eos\)`)

	// Got EOS from element "pipeline0".
	gotEOSRegex = regexp.MustCompile(`^Got EOS from element`)

	// ERROR: from element /GstPipeline:pipeline0/GstTCPClientSrc:tcpclientsrc0: Could not open resource for reading.
	elementErrorRegex = regexp.MustCompile(`^ERROR: from element \S+?: (.+)$`)

	// ERROR: pipeline doesn't want to preroll.
	errorRegex = regexp.MustCompile(`^ERROR: (.+)$`)

	// WARNING: erroneous pipeline: no element "mpg123audiodecc"
	erroneousRegex = regexp.MustCompile(`^(?:WARNING|ERROR): erroneous pipeline: (.+)$`)
)

// ParseLine turns one line of gst-launch output into an Event. Lines that
// carry nothing the orchestrator cares about report ok == false.
func ParseLine(line string) (ev Event, ok bool) {
	line = strings.TrimSpace(line)

	if m := erroneousRegex.FindStringSubmatch(line); m != nil {
		return Event{Type: EventError, Message: "erroneous pipeline: " + m[1]}, true
	}
	if gotEOSRegex.MatchString(line) || busEOSRegex.MatchString(line) {
		return Event{Type: EventEOS}, true
	}
	if m := elementErrorRegex.FindStringSubmatch(line); m != nil {
		return Event{Type: EventError, Message: strings.TrimSpace(m[1])}, true
	}
	if m := errorRegex.FindStringSubmatch(line); m != nil {
		return Event{Type: EventError, Message: strings.TrimSpace(m[1])}, true
	}
	if m := settingStateRegex.FindStringSubmatch(line); m != nil {
		return Event{Type: EventStateChanged, State: strings.ToUpper(m[1])}, true
	}
	if m := busStateRegex.FindStringSubmatch(line); m != nil {
		return Event{Type: EventStateChanged, State: strings.ToUpper(m[1])}, true
	}
	return Event{}, false
}

// constructed reports whether ev shows the pipeline was parsed and linked.
// gst-launch only moves to PAUSED after gst_parse_launch succeeded.
func constructed(ev Event) bool {
	return ev.Type == EventStateChanged && (ev.State == "PAUSED" || ev.State == "PLAYING")
}
