package orchestrator

import (
	"context"
	"sync"

	"playback-orchestrator/internal/gstreamer"
	"playback-orchestrator/internal/mpd"
)

// replyFunc answers the n-th (0-based) call of one command.
type replyFunc func(n int) (mpd.Attrs, error)

func always(attrs mpd.Attrs) replyFunc {
	return func(int) (mpd.Attrs, error) { return attrs, nil }
}

// fakeQuerier stands in for the control-plane client.
type fakeQuerier struct {
	mu      sync.Mutex
	replies map[string]replyFunc
	calls   map[string]int
}

func newFakeQuerier(replies map[string]replyFunc) *fakeQuerier {
	return &fakeQuerier{replies: replies, calls: make(map[string]int)}
}

func (f *fakeQuerier) Query(ctx context.Context, cmd string) (mpd.Attrs, error) {
	if err := ctx.Err(); err != nil {
		return nil, &mpd.ProtocolError{Command: cmd, Err: err}
	}
	f.mu.Lock()
	n := f.calls[cmd]
	f.calls[cmd]++
	fn := f.replies[cmd]
	f.mu.Unlock()

	if fn == nil {
		return mpd.Attrs{}, nil
	}
	return fn(n)
}

func (f *fakeQuerier) count(cmd string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[cmd]
}

// fakeEngine records pipeline lifetimes so tests can check that at most one
// is alive at any time.
type fakeEngine struct {
	mu        sync.Mutex
	live      int
	maxLive   int
	built     int
	released  int
	buildErr  error
	startErr  error
	onPlay    func(p *fakePipeline)
	pipelines []*fakePipeline
	builtCh   chan struct{}
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{builtCh: make(chan struct{}, 64)}
}

func (e *fakeEngine) Build(ctx context.Context, host string, port uint16) (Pipeline, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buildErr != nil {
		return nil, e.buildErr
	}
	e.live++
	if e.live > e.maxLive {
		e.maxLive = e.live
	}
	e.built++
	p := &fakePipeline{engine: e, host: host, port: port, events: make(chan gstreamer.Event, 8)}
	e.pipelines = append(e.pipelines, p)
	select {
	case e.builtCh <- struct{}{}:
	default:
	}
	return p, nil
}

func (e *fakeEngine) stats() (built, released, maxLive int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.built, e.released, e.maxLive
}

type fakePipeline struct {
	engine *fakeEngine
	host   string
	port   uint16
	events chan gstreamer.Event

	mu       sync.Mutex
	states   []gstreamer.State
	releases int
}

func (p *fakePipeline) SetState(ctx context.Context, s gstreamer.State) error {
	p.mu.Lock()
	p.states = append(p.states, s)
	p.mu.Unlock()

	if s != gstreamer.Playing {
		return nil
	}
	p.engine.mu.Lock()
	startErr, onPlay := p.engine.startErr, p.engine.onPlay
	p.engine.mu.Unlock()
	if startErr != nil {
		return startErr
	}
	if onPlay != nil {
		onPlay(p)
	}
	return nil
}

func (p *fakePipeline) Events() <-chan gstreamer.Event { return p.events }

func (p *fakePipeline) Release() error {
	p.mu.Lock()
	p.releases++
	first := p.releases == 1
	p.mu.Unlock()
	if !first {
		return nil
	}
	close(p.events)

	p.engine.mu.Lock()
	p.engine.live--
	p.engine.released++
	p.engine.mu.Unlock()
	return nil
}

func (p *fakePipeline) releaseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.releases
}

func sendEOS(p *fakePipeline) {
	p.events <- gstreamer.Event{Type: gstreamer.EventStateChanged, State: "PLAYING"}
	p.events <- gstreamer.Event{Type: gstreamer.EventEOS}
}
