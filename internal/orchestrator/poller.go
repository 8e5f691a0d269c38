package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"playback-orchestrator/internal/platform/metrics"
)

// DefaultPollInterval is the delay between status queries while waiting.
const DefaultPollInterval = 800 * time.Millisecond

// Poller asks the control plane for its playback status.
type Poller struct {
	client   Querier
	command  string
	interval time.Duration
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewPoller returns a Poller that sends command every interval. If
// interval <= 0, DefaultPollInterval is used. Metrics may be nil.
func NewPoller(client Querier, command string, interval time.Duration, log *slog.Logger, m *metrics.Metrics) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{client: client, command: command, interval: interval, log: log, metrics: m}
}

// PollOnce issues one status query. A failed query counts as not playing.
func (p *Poller) PollOnce(ctx context.Context) PlaybackStatus {
	p.metrics.IncPolls()

	attrs, err := p.client.Query(ctx, p.command)
	if err != nil {
		if ctx.Err() == nil {
			p.metrics.IncProtocolErrors()
			p.log.Warn("status query failed", slog.String("error", err.Error()))
		}
		return PlaybackStatus{}
	}

	st := StatusFromAttrs(attrs)
	p.log.Debug("polled status", slog.String("state", st.State))
	return st
}

// WaitForPlayback polls until the control plane reports "play". It returns
// nil as soon as that is observed, or ctx.Err() once ctx is done.
func (p *Poller) WaitForPlayback(ctx context.Context) error {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		if p.PollOnce(ctx).Playing {
			return nil
		}

		timer.Reset(p.interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}
