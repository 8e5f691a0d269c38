package gstreamer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// DefaultTemplate reads an MP3 stream from the render source over TCP,
// decodes and resamples it, and plays it on Sink without clock sync.
const DefaultTemplate = "tcpclientsrc host={{.Host}} port={{.Port}} ! queue min-threshold-buffers=6 ! " +
	"mpegaudioparse ! mpg123audiodec ! audioconvert ! audioresample ! " +
	"{{.Sink}} sync=false buffer-time=800000"

// Params fill in a pipeline template.
type Params struct {
	Host string
	Port uint16
	Sink string
}

// Describe renders tmpl with p into a gst-launch pipeline description.
func Describe(tmpl string, p Params) (string, error) {
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	if p.Host == "" || strings.ContainsAny(p.Host, " \t\n!") {
		return "", fmt.Errorf("invalid source host %q", p.Host)
	}
	if p.Port == 0 {
		return "", errors.New("source port must not be zero")
	}
	if p.Sink == "" {
		p.Sink = "autoaudiosink"
	}

	t, err := template.New("pipeline").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}

	desc := strings.TrimSpace(buf.String())
	if desc == "" {
		return "", errors.New("empty pipeline description")
	}
	if strings.HasPrefix(desc, "!") || strings.HasSuffix(desc, "!") || strings.Contains(desc, "! !") {
		return "", fmt.Errorf("dangling link in pipeline description %q", desc)
	}
	return desc, nil
}
