package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"playback-orchestrator/internal/gstreamer"
)

// ErrSessionUsed is returned when Start is called on a session that has
// already been started.
var ErrSessionUsed = errors.New("session already started")

// Session is one run of the rendering engine, from pipeline build to
// release. It is single use.
type Session struct {
	engine Engine
	source Endpoint
	log    *slog.Logger

	mu       sync.Mutex
	started  bool
	pipeline Pipeline

	terminal   chan gstreamer.Event
	stopOnce   sync.Once
	workerDone chan struct{}
}

// NewSession prepares a session rendering from source. Nothing happens until Start.
func NewSession(engine Engine, source Endpoint, log *slog.Logger) *Session {
	return &Session{
		engine:     engine,
		source:     source,
		log:        log,
		terminal:   make(chan gstreamer.Event, 1),
		workerDone: make(chan struct{}),
	}
}

// Start builds the pipeline, sets it playing and begins consuming its event
// stream on a worker goroutine. On failure every engine resource acquired so
// far has been released when Start returns.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrSessionUsed
	}
	s.started = true
	s.mu.Unlock()

	p, err := s.engine.Build(ctx, s.source.Host, s.source.Port)
	if err != nil {
		close(s.workerDone)
		return err
	}

	s.mu.Lock()
	s.pipeline = p
	s.mu.Unlock()

	if err := p.SetState(ctx, gstreamer.Playing); err != nil {
		close(s.workerDone)
		s.Stop()
		return err
	}

	go s.consume(p.Events())
	return nil
}

// consume forwards the first terminal event and discards state changes.
func (s *Session) consume(events <-chan gstreamer.Event) {
	defer close(s.workerDone)

	for ev := range events {
		if !ev.Terminal() {
			s.log.Debug("pipeline state changed", slog.String("state", ev.State))
			continue
		}
		s.terminal <- ev
		return
	}
	s.terminal <- gstreamer.Event{Type: gstreamer.EventError, Message: "event stream closed"}
}

// Wait blocks until the worker observes a terminal event or ctx is done.
func (s *Session) Wait(ctx context.Context) (gstreamer.Event, error) {
	select {
	case ev := <-s.terminal:
		return ev, nil
	case <-ctx.Done():
		return gstreamer.Event{}, ctx.Err()
	}
}

// Stop sets the pipeline to Stopped and releases it. Only the first call does
// anything; it returns once the engine resources are gone and the worker has
// exited.
func (s *Session) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		p := s.pipeline
		s.pipeline = nil
		s.mu.Unlock()
		if p == nil {
			return
		}

		if serr := p.SetState(context.Background(), gstreamer.Stopped); serr != nil {
			s.log.Debug("stop pipeline", slog.String("error", serr.Error()))
		}
		if rerr := p.Release(); rerr != nil {
			err = fmt.Errorf("release pipeline: %w", rerr)
		}
		<-s.workerDone
	})
	return err
}
