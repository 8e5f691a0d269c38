package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"playback-orchestrator/internal/gstreamer"
	"playback-orchestrator/internal/platform/logger"
)

var testSource = Endpoint{Host: "127.0.0.1", Port: 6601}

func TestSession_eos_releases_once(t *testing.T) {
	e := newFakeEngine()
	e.onPlay = sendEOS
	s := NewSession(e, testSource, logger.Discard())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ev, err := s.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if ev.Type != gstreamer.EventEOS {
		t.Errorf("terminal = %v, want eos", ev.Type)
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	s.Stop()

	p := e.pipelines[0]
	if n := p.releaseCount(); n != 1 {
		t.Errorf("released %d times, want 1", n)
	}
	if p.host != testSource.Host || p.port != testSource.Port {
		t.Errorf("pipeline built for %s:%d", p.host, p.port)
	}
	want := []gstreamer.State{gstreamer.Playing, gstreamer.Stopped}
	if len(p.states) != 2 || p.states[0] != want[0] || p.states[1] != want[1] {
		t.Errorf("states = %v, want %v", p.states, want)
	}
}

func TestSession_error_event(t *testing.T) {
	e := newFakeEngine()
	e.onPlay = func(p *fakePipeline) {
		p.events <- gstreamer.Event{Type: gstreamer.EventError, Message: "Could not open resource for reading."}
	}
	s := NewSession(e, testSource, logger.Discard())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	ev, err := s.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if ev.Type != gstreamer.EventError || ev.Message != "Could not open resource for reading." {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestSession_single_use(t *testing.T) {
	e := newFakeEngine()
	s := NewSession(e, testSource, logger.Discard())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if err := s.Start(context.Background()); !errors.Is(err, ErrSessionUsed) {
		t.Errorf("second Start: %v", err)
	}
	if built, _, _ := e.stats(); built != 1 {
		t.Errorf("built %d pipelines, want 1", built)
	}
}

func TestSession_build_error(t *testing.T) {
	e := newFakeEngine()
	e.buildErr = &gstreamer.BuildError{Err: errors.New("no element \"mpg123audiodec\"")}
	s := NewSession(e, testSource, logger.Discard())

	err := s.Start(context.Background())
	var be *gstreamer.BuildError
	if !errors.As(err, &be) {
		t.Fatalf("expected BuildError, got %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop after failed build: %v", err)
	}
}

func TestSession_start_error_releases(t *testing.T) {
	e := newFakeEngine()
	e.startErr = errors.New("device busy")
	s := NewSession(e, testSource, logger.Discard())

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	if _, released, _ := e.stats(); released != 1 {
		t.Errorf("released = %d, want 1", released)
	}
	s.Stop()
	if n := e.pipelines[0].releaseCount(); n != 1 {
		t.Errorf("Release called %d times, want 1", n)
	}
}

func TestSession_wait_cancel(t *testing.T) {
	e := newFakeEngine()
	s := NewSession(e, testSource, logger.Discard())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked")
	}
}
