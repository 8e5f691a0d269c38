package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playback-orchestrator/internal/gstreamer"
	"playback-orchestrator/internal/mpd"
	"playback-orchestrator/internal/orchestrator"
	"playback-orchestrator/internal/platform/config"
	"playback-orchestrator/internal/platform/logger"
	"playback-orchestrator/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	flag "github.com/spf13/pflag"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	cfg, err := config.ParseFlags(os.Args[0], os.Args[1:], config.FromEnv(), os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	met := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := mpd.Dial(ctx, cfg.ControlAddr(), cfg.DialTimeout)
	if err != nil {
		log.Error("cannot connect to mpd", "addr", cfg.ControlAddr(), "error", err)
		os.Exit(1)
	}
	defer client.Close()
	log.Info("connected to mpd", "addr", client.Addr(), "version", client.Version())

	go client.KeepAlive(ctx, cfg.KeepAliveInterval, log)

	engine := orchestrator.NewGStreamerEngine(gstreamer.NewEngine(gstreamer.EngineConfig{
		Binary:   cfg.LaunchBinary,
		Template: cfg.PipelineTemplate,
		Sink:     cfg.AudioSink,
	}, log))

	store := orchestrator.NewInMemoryStore()
	poller := orchestrator.NewPoller(client, cfg.StatusCommand, cfg.PollInterval, log, met)
	machine := orchestrator.NewMachine(poller, client, engine, orchestrator.MachineConfig{
		TrackCommand: cfg.TrackCommand,
		Source:       orchestrator.Endpoint{Host: cfg.Host, Port: uint16(cfg.RenderPort)},
	}, store, log, met)

	var srv *http.Server
	if cfg.StatusAddr != "" {
		r := chi.NewRouter()
		r.Use(logger.RequestLogger(log))
		r.Use(metrics.RequestMiddleware(met))
		r.Method(http.MethodGet, "/metrics", met.Handler())
		orchestrator.NewHandler(store, log).Routes(r)

		srv = &http.Server{Addr: cfg.StatusAddr, Handler: r}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("status server error", "error", err)
				stop()
			}
		}()
		log.Info("status server starting", "addr", cfg.StatusAddr)
	}

	log.Info("orchestrator starting",
		"mpd", cfg.ControlAddr(),
		"source", orchestrator.Endpoint{Host: cfg.Host, Port: uint16(cfg.RenderPort)}.String(),
		"sink", cfg.AudioSink,
		"poll_interval", cfg.PollInterval,
	)

	logRunResult(ctx, log, machine.Run(ctx))

	if srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}

	log.Info("orchestrator stopped")
}

// logRunResult reports why the state machine returned. The shutdown line is
// only written when a signal cancelled ctx.
func logRunResult(ctx context.Context, log *slog.Logger, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("orchestrator stopped", "error", err)
	}
	if ctx.Err() != nil {
		log.Info("shutdown signal received, releasing resources")
	}
}
