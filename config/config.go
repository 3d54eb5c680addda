// Package config loads the live tutor configuration from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-live/core/audio"
	"github.com/koscakluka/ema-live/core/tutors"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "EMA_LIVE_"

const (
	TransportGenAI     = "genai"
	TransportWebsocket = "websocket"

	BackendMiniaudio = "miniaudio"
	BackendPortaudio = "portaudio"

	CodecPCM16 = "pcm16"
	CodecOpus  = "opus"
)

type Config struct {
	Live         LiveConfig       `yaml:"live"`
	Audio        AudioConfig      `yaml:"audio"`
	Log          LogConfig        `yaml:"log"`
	Metrics      MetricsConfig    `yaml:"metrics"`
	Tutors       []tutors.Profile `yaml:"tutors"`
	DefaultTutor string           `yaml:"default_tutor"`
}

type LiveConfig struct {
	Transport      string        `yaml:"transport"`
	Model          string        `yaml:"model"`
	Endpoint       string        `yaml:"endpoint"`
	APIKey         string        `yaml:"api_key"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type AudioConfig struct {
	Backend          string `yaml:"backend"`
	InputSampleRate  int    `yaml:"input_sample_rate"`
	OutputSampleRate int    `yaml:"output_sample_rate"`
	FrameSize        int    `yaml:"frame_size"`
	OutboundQueue    int    `yaml:"outbound_queue"`
	Codec            string `yaml:"codec"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

func Default() Config {
	return Config{
		Live: LiveConfig{
			Transport:      TransportGenAI,
			Model:          "gemini-2.5-flash-native-audio-preview-09-2025",
			ConnectTimeout: 15 * time.Second,
		},
		Audio: AudioConfig{
			Backend:          BackendMiniaudio,
			InputSampleRate:  audio.DefaultInputSampleRate,
			OutputSampleRate: audio.DefaultOutputSampleRate,
			FrameSize:        audio.DefaultFrameSize,
			OutboundQueue:    32,
			Codec:            CodecPCM16,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Addr:      ":9464",
			Namespace: "ema_live",
		},
		DefaultTutor: tutors.DefaultID,
	}
}

// Load starts from the defaults, applies the file at path when path is
// not empty, then the environment, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if c.Live.APIKey == "" {
		for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
			if value, ok := lookup(key); ok && value != "" {
				c.Live.APIKey = value
				break
			}
		}
	}

	bindings := map[string]func(string) error{
		"LIVE_TRANSPORT":           setString(&c.Live.Transport),
		"LIVE_MODEL":               setString(&c.Live.Model),
		"LIVE_ENDPOINT":            setString(&c.Live.Endpoint),
		"LIVE_API_KEY":             setString(&c.Live.APIKey),
		"LIVE_CONNECT_TIMEOUT":     setDuration(&c.Live.ConnectTimeout),
		"AUDIO_BACKEND":            setString(&c.Audio.Backend),
		"AUDIO_INPUT_SAMPLE_RATE":  setInt(&c.Audio.InputSampleRate),
		"AUDIO_OUTPUT_SAMPLE_RATE": setInt(&c.Audio.OutputSampleRate),
		"AUDIO_FRAME_SIZE":         setInt(&c.Audio.FrameSize),
		"AUDIO_OUTBOUND_QUEUE":     setInt(&c.Audio.OutboundQueue),
		"AUDIO_CODEC":              setString(&c.Audio.Codec),
		"LOG_LEVEL":                setString(&c.Log.Level),
		"LOG_FORMAT":               setString(&c.Log.Format),
		"METRICS_ENABLED":          setBool(&c.Metrics.Enabled),
		"METRICS_ADDR":             setString(&c.Metrics.Addr),
		"METRICS_NAMESPACE":        setString(&c.Metrics.Namespace),
		"DEFAULT_TUTOR":            setString(&c.DefaultTutor),
	}

	var errs []error
	for name, set := range bindings {
		value, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := set(strings.TrimSpace(value)); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		}
	}
	return errors.Join(errs...)
}

func setString(dst *string) func(string) error {
	return func(value string) error {
		*dst = value
		return nil
	}
}

func setInt(dst *int) func(string) error {
	return func(value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setBool(dst *bool) func(string) error {
	return func(value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func setDuration(dst *time.Duration) func(string) error {
	return func(value string) error {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

func (c *Config) Validate() error {
	if err := c.Live.Validate(); err != nil {
		return fmt.Errorf("live config: %w", err)
	}
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics config: addr cannot be empty when metrics are enabled")
	}

	roster, err := c.Roster()
	if err != nil {
		return fmt.Errorf("tutors config: %w", err)
	}
	if _, ok := roster.Lookup(c.DefaultTutor); !ok {
		return fmt.Errorf("default_tutor %q is not in the roster %v", c.DefaultTutor, roster.IDs())
	}
	return nil
}

func (l *LiveConfig) Validate() error {
	if !slices.Contains([]string{TransportGenAI, TransportWebsocket}, l.Transport) {
		return fmt.Errorf("unknown transport %q", l.Transport)
	}
	if l.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if l.ConnectTimeout < 0 {
		return fmt.Errorf("connect_timeout cannot be negative, got %s", l.ConnectTimeout)
	}
	return nil
}

func (a *AudioConfig) Validate() error {
	if !slices.Contains([]string{BackendMiniaudio, BackendPortaudio}, a.Backend) {
		return fmt.Errorf("unknown backend %q", a.Backend)
	}
	if !slices.Contains([]string{CodecPCM16, CodecOpus}, a.Codec) {
		return fmt.Errorf("unknown codec %q", a.Codec)
	}
	if a.InputSampleRate <= 0 || a.OutputSampleRate <= 0 {
		return fmt.Errorf("sample rates must be positive, got %d and %d", a.InputSampleRate, a.OutputSampleRate)
	}
	if a.FrameSize <= 0 {
		return fmt.Errorf("frame_size must be positive, got %d", a.FrameSize)
	}
	if a.OutboundQueue <= 0 {
		return fmt.Errorf("outbound_queue must be positive, got %d", a.OutboundQueue)
	}
	return nil
}

func (l *LogConfig) Validate() error {
	if _, err := l.SlogLevel(); err != nil {
		return err
	}
	if l.Format != "text" && l.Format != "json" {
		return fmt.Errorf("unknown format %q", l.Format)
	}
	return nil
}

func (l *LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid level %q: %w", l.Level, err)
	}
	return level, nil
}

// Roster merges the configured tutor overrides onto the built-in roster.
// Empty override fields keep the built-in value; unknown ids add tutors.
func (c *Config) Roster() (tutors.Roster, error) {
	roster := tutors.Defaults()

	for _, override := range c.Tutors {
		id := strings.ToUpper(strings.TrimSpace(override.ID))
		override.ID = id

		base, ok := roster[id]
		if !ok {
			if err := override.Validate(); err != nil {
				return nil, err
			}
			roster[id] = override
			continue
		}

		voice := base.Voice
		if err := copier.CopyWithOption(&base, &override, copier.Option{IgnoreEmpty: true, DeepCopy: true}); err != nil {
			return nil, fmt.Errorf("failed to merge tutor %s: %w", id, err)
		}
		base.Voice = voice
		if err := copier.CopyWithOption(&base.Voice, &override.Voice, copier.Option{IgnoreEmpty: true}); err != nil {
			return nil, fmt.Errorf("failed to merge voice of tutor %s: %w", id, err)
		}
		roster[id] = base
	}
	return roster, nil
}
