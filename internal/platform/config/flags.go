package config

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ParseFlags overlays command-line options on top of base. Flags that are not
// given keep the value from base, so the precedence is flags > env > defaults.
// A request for help returns flag.ErrHelp after the usage text is written to out.
func ParseFlags(name string, args []string, base Config, out io.Writer) (Config, error) {
	cfg := base

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.SortFlags = false
	fs.Usage = func() {
		fmt.Fprintf(out, "usage: %s [options]\n", name)
		fs.PrintDefaults()
	}

	fs.StringVarP(&cfg.Host, "host", "H", cfg.Host, "address of the mpd and render source endpoints")
	fs.IntVarP(&cfg.ControlPort, "mpd-port", "m", cfg.ControlPort, "mpd control port")
	fs.IntVarP(&cfg.RenderPort, "render-port", "g", cfg.RenderPort, "port the pipeline reads audio from")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "delay between status polls")
	fs.StringVar(&cfg.AudioSink, "sink", cfg.AudioSink, "gstreamer audio sink element")
	fs.StringVar(&cfg.StatusAddr, "listen", cfg.StatusAddr, "address for the status/metrics http server (empty disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")

	if err := fs.Parse(args); err != nil {
		return base, err
	}
	if fs.NArg() > 0 {
		return base, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return cfg, cfg.Validate()
}
