package gstreamer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// State is the target state requested with SetState.
type State int

const (
	Null State = iota
	Playing
	Stopped
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Stopped:
		return "stopped"
	default:
		return "null"
	}
}

const (
	// startTimeout bounds how long SetState(Playing) waits for gst-launch to
	// confirm the description parsed and linked.
	startTimeout = 10 * time.Second

	// stopTimeout is how long a stopping process gets before it is killed.
	stopTimeout = 5 * time.Second

	eventBuffer = 32

	// maxLineSize bounds a single output line. Tag messages carrying cover
	// art run well past the scanner default; longer lines stop parsing but
	// the pipe is still drained.
	maxLineSize = 1 << 20
)

// ErrAlreadyStarted is returned when SetState(Playing) is called twice.
var ErrAlreadyStarted = errors.New("pipeline already started")

// Pipeline is one gst-launch process. It is single use: it can be started
// once and released once.
type Pipeline struct {
	id          int64
	description string
	cmd         *exec.Cmd
	logger      *slog.Logger

	events chan Event
	ready  chan struct{}
	exited chan struct{}
	quit   chan struct{}

	readyOnce   sync.Once
	releaseOnce sync.Once

	mu        sync.Mutex
	state     State
	terminal  bool
	lastError string
	exitErr   error
}

func newPipeline(id int64, desc string, cmd *exec.Cmd, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		id:          id,
		description: desc,
		cmd:         cmd,
		logger:      logger.With(slog.Int64("pipeline", id)),
		events:      make(chan Event, eventBuffer),
		ready:       make(chan struct{}),
		exited:      make(chan struct{}),
		quit:        make(chan struct{}),
	}
}

// ID identifies the pipeline within its Engine.
func (p *Pipeline) ID() int64 { return p.id }

// Description is the rendered gst-launch description.
func (p *Pipeline) Description() string { return p.description }

// Events delivers bus events in order. The channel is closed after the
// process has exited; a terminal event always precedes the close.
func (p *Pipeline) Events() <-chan Event { return p.events }

// SetState starts (Playing) or interrupts (Stopped) the process. Starting
// blocks until gst-launch has constructed the pipeline; failures at that
// stage are returned as *BuildError.
func (p *Pipeline) SetState(ctx context.Context, s State) error {
	switch s {
	case Playing:
		return p.start(ctx)
	case Stopped:
		p.interrupt()
		return nil
	default:
		return fmt.Errorf("unsupported target state %s", s)
	}
}

func (p *Pipeline) start(ctx context.Context) error {
	p.mu.Lock()
	if p.state != Null {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		p.mu.Unlock()
		return &BuildError{Description: p.description, Err: err}
	}
	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		p.mu.Unlock()
		return &BuildError{Description: p.description, Err: err}
	}
	if err := p.cmd.Start(); err != nil {
		p.mu.Unlock()
		return &BuildError{Description: p.description, Err: fmt.Errorf("start %s: %w", p.cmd.Path, err)}
	}
	p.state = Playing
	p.mu.Unlock()

	p.logger.Debug("render process started",
		slog.Int("pid", p.cmd.Process.Pid),
		slog.String("description", p.description))

	go p.monitor(stdout, stderr)

	timer := time.NewTimer(startTimeout)
	defer timer.Stop()

	select {
	case <-p.ready:
		return nil
	case <-p.exited:
		// ready may have been signalled right before a fast exit.
		select {
		case <-p.ready:
			return nil
		default:
		}
		return &BuildError{Description: p.description, Err: p.startFailure()}
	case <-timer.C:
		return &BuildError{Description: p.description, Err: fmt.Errorf("pipeline not constructed after %s", startTimeout)}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) startFailure() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastError != "" {
		return errors.New(p.lastError)
	}
	if p.exitErr != nil {
		return fmt.Errorf("launcher exited: %w", p.exitErr)
	}
	return errors.New("launcher exited before the pipeline was constructed")
}

func (p *Pipeline) interrupt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Playing {
		return
	}
	p.state = Stopped
	if err := p.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.logger.Warn("failed to interrupt render process", slog.String("error", err.Error()))
	}
}

// Release stops the process if it is running and waits for it to exit. It is
// idempotent and safe on a nil or never-started pipeline.
func (p *Pipeline) Release() error {
	if p == nil {
		return nil
	}
	var err error
	p.releaseOnce.Do(func() {
		close(p.quit)

		p.mu.Lock()
		started := p.state != Null
		p.mu.Unlock()
		if !started {
			return
		}

		p.interrupt()
		select {
		case <-p.exited:
		case <-time.After(stopTimeout):
			p.logger.Warn("render process did not stop, killing")
			if kerr := p.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
				err = fmt.Errorf("kill render process: %w", kerr)
			}
			<-p.exited
		}
		p.logger.Debug("render process released")
	})
	return err
}

func (p *Pipeline) monitor(stdout, stderr io.Reader) {
	var wg sync.WaitGroup
	wg.Add(2)
	go p.scan(stdout, &wg)
	go p.scan(stderr, &wg)
	wg.Wait()

	err := p.cmd.Wait()

	p.mu.Lock()
	p.exitErr = err
	terminal := p.terminal
	p.mu.Unlock()

	if !terminal {
		msg := "render process exited"
		if err != nil {
			msg = fmt.Sprintf("render process exited: %v", err)
		}
		p.emit(Event{Type: EventError, Message: msg})
	}
	close(p.exited)
	close(p.events)
}

func (p *Pipeline) scan(r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		line := sc.Text()
		ev, ok := ParseLine(line)
		if !ok {
			continue
		}
		if constructed(ev) {
			p.readyOnce.Do(func() { close(p.ready) })
		}
		p.emit(ev)
	}
	if err := sc.Err(); err != nil {
		p.logger.Debug("render output not parsed", slog.String("error", err.Error()))
	}
	// Keep the pipe empty so the process can never block on a write.
	io.Copy(io.Discard, r)
}

// emit forwards ev to the consumer. Only the first terminal event is
// delivered. State changes never take the last buffer slot, which stays
// reserved for the terminal event, and are dropped when nobody keeps up.
func (p *Pipeline) emit(ev Event) {
	p.mu.Lock()
	if !ev.Terminal() {
		if !p.terminal && len(p.events) < cap(p.events)-1 {
			p.events <- ev
		}
		p.mu.Unlock()
		return
	}

	if p.terminal {
		p.mu.Unlock()
		return
	}
	p.terminal = true
	if ev.Type == EventError {
		p.lastError = ev.Message
	}
	p.mu.Unlock()

	select {
	case p.events <- ev:
	case <-p.quit:
	}
}
