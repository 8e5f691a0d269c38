package orchestrator

import (
	"context"

	"playback-orchestrator/internal/gstreamer"
	"playback-orchestrator/internal/mpd"
)

// Querier runs one control-plane command. *mpd.Client implements it.
type Querier interface {
	Query(ctx context.Context, cmd string) (mpd.Attrs, error)
}

// Engine builds render pipelines reading from a source endpoint.
type Engine interface {
	Build(ctx context.Context, host string, port uint16) (Pipeline, error)
}

// Pipeline is the handle of one built render pipeline.
type Pipeline interface {
	SetState(ctx context.Context, s gstreamer.State) error
	Events() <-chan gstreamer.Event
	Release() error
}

type gstEngine struct {
	e *gstreamer.Engine
}

// NewGStreamerEngine adapts a gstreamer.Engine to Engine.
func NewGStreamerEngine(e *gstreamer.Engine) Engine {
	return gstEngine{e: e}
}

func (g gstEngine) Build(ctx context.Context, host string, port uint16) (Pipeline, error) {
	p, err := g.e.Build(ctx, host, port)
	if err != nil {
		return nil, err
	}
	return p, nil
}
