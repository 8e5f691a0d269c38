package orchestrator

import (
	"net"
	"strconv"
	"time"

	"playback-orchestrator/internal/mpd"
)

// Response keys read from the control plane.
const (
	keyState  = "state"
	keyTitle  = "Title"
	keyArtist = "Artist"

	statePlay = "play"
)

// Track is the currently loaded song as last reported by the control plane.
type Track struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Merge copies the fields present in attrs onto t. Missing fields keep their
// previous value.
func (t *Track) Merge(attrs mpd.Attrs) {
	if v, ok := attrs[keyTitle]; ok {
		t.Title = v
	}
	if v, ok := attrs[keyArtist]; ok {
		t.Artist = v
	}
}

// PlaybackStatus is the projection of a status response the orchestrator
// cares about. Only "play" counts as playing; stop, pause, a missing state
// and anything else do not.
type PlaybackStatus struct {
	State   string
	Playing bool
}

// StatusFromAttrs projects a status response.
func StatusFromAttrs(attrs mpd.Attrs) PlaybackStatus {
	s := attrs[keyState]
	return PlaybackStatus{State: s, Playing: s == statePlay}
}

// Endpoint is a host and TCP port.
type Endpoint struct {
	Host string
	Port uint16
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

// State is the playback state machine's current phase.
type State int

const (
	StateWaiting State = iota
	StateStarting
	StateActive
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	default:
		return "waiting"
	}
}

// Snapshot is the externally visible status of the daemon.
type Snapshot struct {
	State     string    `json:"state"`
	Playing   bool      `json:"playing"`
	Track     Track     `json:"track"`
	Sessions  int64     `json:"sessions"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
