// Package gstreamer runs render pipelines as gst-launch-1.0 child processes
// and translates their bus output into a small event stream.
package gstreamer

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync/atomic"
)

// BuildError reports that a pipeline could not be constructed: the launcher
// is missing, the description is invalid, or gst-launch rejected it.
type BuildError struct {
	Description string
	Err         error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build pipeline: %v", e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// EngineConfig configures an Engine.
type EngineConfig struct {
	// Binary is the launcher executable, gst-launch-1.0 when empty.
	Binary string
	// Template is the pipeline description template, DefaultTemplate when empty.
	Template string
	// Sink is the audio output element.
	Sink string
}

// Engine builds render pipelines.
type Engine struct {
	cfg    EngineConfig
	logger *slog.Logger
	seq    atomic.Int64
}

// NewEngine returns an Engine; nothing is checked until Build.
func NewEngine(cfg EngineConfig, logger *slog.Logger) *Engine {
	if cfg.Binary == "" {
		cfg.Binary = "gst-launch-1.0"
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Build prepares a pipeline that reads from host:port. The process is not
// started until SetState(Playing).
func (e *Engine) Build(ctx context.Context, host string, port uint16) (*Pipeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	desc, err := Describe(e.cfg.Template, Params{Host: host, Port: port, Sink: e.cfg.Sink})
	if err != nil {
		return nil, &BuildError{Description: e.cfg.Template, Err: err}
	}

	bin, err := exec.LookPath(e.cfg.Binary)
	if err != nil {
		return nil, &BuildError{Description: desc, Err: err}
	}

	// -m prints bus messages, which is where EOS and errors show up.
	args := append([]string{"-m"}, strings.Fields(desc)...)

	id := e.seq.Add(1)
	return newPipeline(id, desc, exec.Command(bin, args...), e.logger), nil
}
