package mpd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line      string
		key, val  string
		wantFound bool
	}{
		{"state: play", "state", "play", true},
		{"time: 12:240", "time", "12:240", true},
		{"file: http://radio.example/stream", "file", "http://radio.example/stream", true},
		{"Title:", "Title", "", true},
		{"Title:x", "Title", "", true},
		{"Title:  padded", "Title", " padded", true},
		{"OK", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		k, v, ok := ParseLine(tt.line)
		if ok != tt.wantFound || k != tt.key || v != tt.val {
			t.Errorf("ParseLine(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.line, k, v, ok, tt.key, tt.val, tt.wantFound)
		}
	}
}

func TestParseResponse_skips_lines_without_separator(t *testing.T) {
	got := ParseResponse("volume: 50\ngarbage line\nstate: play\nOK\n")
	want := Attrs{"volume": "50", "state": "play"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseResponse_current_song(t *testing.T) {
	got := ParseResponse("Artist: Foo\r\nTitle: Bar\r\n")
	want := Attrs{"Artist": "Foo", "Title": "Bar"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseResponse_last_duplicate_wins(t *testing.T) {
	got := ParseResponse("Artist: A\nArtist: B\n")
	if got["Artist"] != "B" {
		t.Errorf("Artist = %q, want B", got["Artist"])
	}
}

func TestParseAck(t *testing.T) {
	tests := []struct {
		line string
		want CommandError
	}{
		{`ACK [50@0] {play} No such song`, CommandError{Code: 50, Index: 0, Command: "play", Message: "No such song"}},
		{`ACK [5@2] {} unknown command "x"`, CommandError{Code: 5, Index: 2, Command: "", Message: `unknown command "x"`}},
		{`ACK something odd`, CommandError{Message: "something odd"}},
	}
	for _, tt := range tests {
		got := parseAck(tt.line)
		if diff := cmp.Diff(tt.want, *got); diff != "" {
			t.Errorf("parseAck(%q) mismatch (-want +got):\n%s", tt.line, diff)
		}
	}
}
