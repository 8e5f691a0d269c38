package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the daemon. The MPD and render ports match the stock MPD
// control port and the port its httpd/tcp output is usually bound to.
const (
	DefaultHost              = "127.0.0.1"
	DefaultControlPort       = 6600
	DefaultRenderPort        = 6601
	DefaultPollInterval      = 800 * time.Millisecond
	DefaultKeepAliveInterval = 30 * time.Second
	DefaultDialTimeout       = 5 * time.Second
	DefaultStatusCommand     = "status"
	DefaultTrackCommand      = "currentsong"
	DefaultLaunchBinary      = "gst-launch-1.0"
	DefaultAudioSink         = "pulsesink"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

// Config is the complete runtime configuration of the daemon. It is built once
// at startup and treated as immutable afterwards.
type Config struct {
	Host              string
	ControlPort       int
	RenderPort        int
	PollInterval      time.Duration
	KeepAliveInterval time.Duration
	DialTimeout       time.Duration
	StatusCommand     string
	TrackCommand      string
	LaunchBinary      string
	AudioSink         string
	PipelineTemplate  string
	StatusAddr        string
	LogLevel          string
	LogFormat         string
}

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files; with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// FromEnv returns a Config populated from the environment, falling back to
// the package defaults for anything unset.
func FromEnv() Config {
	return Config{
		Host:              GetEnv("MPD_HOST", DefaultHost),
		ControlPort:       GetEnvInt("MPD_PORT", DefaultControlPort),
		RenderPort:        GetEnvInt("RENDER_PORT", DefaultRenderPort),
		PollInterval:      GetEnvDuration("POLL_INTERVAL", DefaultPollInterval),
		KeepAliveInterval: GetEnvDuration("KEEPALIVE_INTERVAL", DefaultKeepAliveInterval),
		DialTimeout:       GetEnvDuration("DIAL_TIMEOUT", DefaultDialTimeout),
		StatusCommand:     GetEnv("STATUS_COMMAND", DefaultStatusCommand),
		TrackCommand:      GetEnv("TRACK_COMMAND", DefaultTrackCommand),
		LaunchBinary:      GetEnv("GST_LAUNCH", DefaultLaunchBinary),
		AudioSink:         GetEnv("AUDIO_SINK", DefaultAudioSink),
		PipelineTemplate:  GetEnv("PIPELINE_TEMPLATE", ""),
		StatusAddr:        GetEnv("STATUS_ADDR", ""),
		LogLevel:          GetEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:         GetEnv("LOG_FORMAT", DefaultLogFormat),
	}
}

// ControlAddr is the host:port of the control-plane service.
func (c Config) ControlAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.ControlPort))
}

// Validate reports the first invalid setting, if any.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("host must not be empty")
	}
	if err := validPort("mpd port", c.ControlPort); err != nil {
		return err
	}
	if err := validPort("render port", c.RenderPort); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.KeepAliveInterval < 0 {
		return fmt.Errorf("keep-alive interval must not be negative, got %s", c.KeepAliveInterval)
	}
	if c.StatusCommand == "" || c.TrackCommand == "" {
		return errors.New("status and track commands must not be empty")
	}
	return nil
}

func validPort(name string, p int) error {
	if p < 1 || p > 65535 {
		return fmt.Errorf("%s out of range: %d", name, p)
	}
	return nil
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvDuration parses the variable with time.ParseDuration ("800ms", "30s").
// Unset, empty, or unparsable values yield fallback.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return fallback
}
