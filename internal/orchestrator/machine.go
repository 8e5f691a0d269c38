package orchestrator

import (
	"context"
	"errors"
	"log/slog"

	"playback-orchestrator/internal/gstreamer"
	"playback-orchestrator/internal/platform/metrics"
)

// Machine is the playback state machine. It waits for the control plane to
// report playback, renders the source until the engine reports end of stream
// or a fatal error, then waits again. At most one Session exists at a time:
// a session is fully stopped before the next poll.
type Machine struct {
	poller       *Poller
	client       Querier
	trackCommand string
	engine       Engine
	source       Endpoint
	store        Store
	log          *slog.Logger
	metrics      *metrics.Metrics

	// Owned by the goroutine running Run.
	state    State
	track    Track
	sessions int64
}

// MachineConfig carries the fixed parameters of a Machine.
type MachineConfig struct {
	// TrackCommand fetches current-track metadata, e.g. "currentsong".
	TrackCommand string
	// Source is where the render pipeline reads audio from.
	Source Endpoint
}

// NewMachine wires a state machine. store and m may be nil.
func NewMachine(poller *Poller, client Querier, engine Engine, cfg MachineConfig, store Store, log *slog.Logger, m *metrics.Metrics) *Machine {
	if store == nil {
		store = NewInMemoryStore()
	}
	return &Machine{
		poller:       poller,
		client:       client,
		trackCommand: cfg.TrackCommand,
		engine:       engine,
		source:       cfg.Source,
		store:        store,
		log:          log,
		metrics:      m,
	}
}

// Run cycles until ctx is done and returns ctx.Err(). Nothing else stops it:
// build failures and engine errors are logged and followed by another wait.
func (m *Machine) Run(ctx context.Context) error {
	for {
		if err := m.Cycle(ctx); err != nil {
			m.setState(StateWaiting)
			return err
		}
	}
}

// Cycle runs one WAITING -> STARTING -> ACTIVE -> WAITING round. It only
// returns an error when ctx is done.
func (m *Machine) Cycle(ctx context.Context) error {
	m.setState(StateWaiting)
	m.log.Info("waiting for playback")
	if err := m.poller.WaitForPlayback(ctx); err != nil {
		return err
	}
	m.setPlaying(true)

	m.setState(StateStarting)
	m.refreshTrack(ctx)

	sess := NewSession(m.engine, m.source, m.log)
	if err := sess.Start(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.metrics.IncBuildFailures()
		m.recordError(err)
		m.setPlaying(false)
		m.setState(StateWaiting)
		var be *gstreamer.BuildError
		if errors.As(err, &be) {
			m.log.Error("render pipeline could not be built", slog.String("error", err.Error()))
		} else {
			m.log.Error("render pipeline failed to start", slog.String("error", err.Error()))
		}
		return nil
	}

	m.sessions++
	m.metrics.IncSessionsStarted()
	m.setState(StateActive)
	m.log.Info("playing",
		slog.String("source", m.source.String()),
		slog.String("artist", m.track.Artist),
		slog.String("title", m.track.Title))

	ev, err := sess.Wait(ctx)
	if serr := sess.Stop(); serr != nil {
		m.log.Warn("render session did not release cleanly", slog.String("error", serr.Error()))
	}
	m.setPlaying(false)
	m.setState(StateWaiting)
	if err != nil {
		return err
	}

	switch ev.Type {
	case gstreamer.EventEOS:
		m.metrics.IncTerminations(metrics.ReasonEOS)
		m.log.Info("end of stream")
	default:
		m.metrics.IncTerminations(metrics.ReasonError)
		m.recordError(errors.New(ev.Message))
		m.log.Error("render engine error", slog.String("error", ev.Message))
	}
	return nil
}

// refreshTrack fetches current-track metadata. Failure keeps the previous
// values.
func (m *Machine) refreshTrack(ctx context.Context) {
	attrs, err := m.client.Query(ctx, m.trackCommand)
	if err != nil {
		if ctx.Err() == nil {
			m.metrics.IncProtocolErrors()
			m.log.Warn("current track query failed", slog.String("error", err.Error()))
		}
		return
	}
	m.track.Merge(attrs)

	track := m.track
	m.store.Update(func(s *Snapshot) { s.Track = track })
}

func (m *Machine) setState(st State) {
	if m.state != st {
		m.log.Debug("state transition", slog.String("from", m.state.String()), slog.String("to", st.String()))
	}
	m.state = st
	m.metrics.SetState(int(st))

	sessions := m.sessions
	m.store.Update(func(s *Snapshot) {
		s.State = st.String()
		s.Sessions = sessions
	})
}

func (m *Machine) setPlaying(v bool) {
	m.store.Update(func(s *Snapshot) { s.Playing = v })
}

func (m *Machine) recordError(err error) {
	msg := err.Error()
	m.store.Update(func(s *Snapshot) { s.LastError = msg })
}

// Track returns the last fetched track. Only safe once Run has returned or
// from the goroutine running it; other goroutines should use the Store.
func (m *Machine) Track() Track {
	return m.track
}
