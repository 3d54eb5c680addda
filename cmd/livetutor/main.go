package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	live "github.com/koscakluka/ema-live/core"
	"github.com/koscakluka/ema-live/config"
	"github.com/koscakluka/ema-live/core/curriculum"
	"github.com/koscakluka/ema-live/core/transport/gemini"
	"github.com/koscakluka/ema-live/core/transport/socket"
	"github.com/koscakluka/ema-live/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/genai"
)

const stopTimeout = 5 * time.Second

type options struct {
	configPath string
	tutorID    string
	listTutors bool
	diagnose   bool
	wrapWidth  int
}

func main() {
	var opt options
	flag.StringVar(&opt.configPath, "config", "", "Path to configuration file (optional)")
	flag.StringVar(&opt.tutorID, "tutor", "", "Tutor to talk to (defaults to default_tutor)")
	flag.BoolVar(&opt.listTutors, "list-tutors", false, "List the tutor roster and exit")
	flag.BoolVar(&opt.diagnose, "diagnose", false, "Diagnose the student and draft a study plan when the session ends")
	flag.IntVar(&opt.wrapWidth, "wrap", 80, "Wrap transcript lines at this width")
	flag.Parse()

	cfg, err := config.Load(opt.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opt, logger); err != nil {
		logger.Error("livetutor failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)), nil
}

func run(ctx context.Context, cfg *config.Config, opt options, logger *slog.Logger) error {
	roster, err := cfg.Roster()
	if err != nil {
		return err
	}
	if opt.listTutors {
		printRoster(os.Stdout, roster)
		return nil
	}

	tutorID := cfg.DefaultTutor
	if opt.tutorID != "" {
		tutorID = opt.tutorID
	}
	profile, ok := roster.Lookup(tutorID)
	if !ok {
		return fmt.Errorf("unknown tutor %q, available: %v", tutorID, roster.IDs())
	}

	if cfg.Live.APIKey == "" {
		return errors.New("no API key configured, set GEMINI_API_KEY or live.api_key")
	}

	var genaiClient *genai.Client
	if cfg.Live.Transport == config.TransportGenAI || opt.diagnose {
		if genaiClient, err = gemini.NewClient(ctx, cfg.Live.APIKey); err != nil {
			return err
		}
	}

	var transport live.Transport
	switch cfg.Live.Transport {
	case config.TransportGenAI:
		transport = gemini.NewTransport(genaiClient, gemini.WithModel(cfg.Live.Model))
	case config.TransportWebsocket:
		transport = socket.NewTransport(cfg.Live.APIKey,
			socket.WithEndpoint(cfg.Live.Endpoint),
			socket.WithModel(cfg.Live.Model))
	}

	devices, err := openDevices(cfg.Audio)
	if err != nil {
		return err
	}
	defer func() {
		if err := devices.Close(); err != nil {
			logger.Warn("failed to release audio backend", slog.Any("error", err))
		}
	}()

	newDecoder := decoderFactory(cfg.Audio)
	if _, err := newDecoder(); err != nil {
		return err
	}

	collector := metrics.NewCollector(cfg.Metrics.Namespace)
	if cfg.Metrics.Enabled {
		shutdown := serveMetrics(cfg.Metrics.Addr, collector, logger)
		defer shutdown()
	}

	printer := newTranscriptPrinter(os.Stdout, profile.Name, opt.wrapWidth)
	ended := make(chan struct{}, 1)

	controller := live.NewController(
		live.WithTransport(transport),
		live.WithAudioInput(devices.Input),
		live.WithAudioOutput(devices.Output),
		live.WithDecoderFactory(newDecoder),
		live.WithLogger(logger),
		live.WithMetrics(collector),
		live.WithFrameSize(cfg.Audio.FrameSize),
		live.WithOutboundQueueSize(cfg.Audio.OutboundQueue),
		live.WithConnectTimeout(cfg.Live.ConnectTimeout),
		live.WithStatusCallback(func(state live.State, message string) {
			printer.Status(message)
			if state == live.StateClosed {
				select {
				case ended <- struct{}{}:
				default:
				}
			}
		}),
		live.WithTranscriptCallback(printer.Transcript),
		live.WithErrorCallback(func(message string) {
			logger.Error("session error", slog.String("message", message))
		}),
	)
	defer controller.Close()

	if err := controller.Start(ctx, profile); err != nil {
		return fmt.Errorf("failed to start session with %s: %w", profile.ID, err)
	}
	if session, ok := controller.Session(); ok {
		logger.Info("session started", slog.String("session_id", session.ID), slog.String("tutor", profile.ID))
	}

	select {
	case <-ctx.Done():
	case <-ended:
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := controller.Stop(stopCtx); err != nil {
		logger.Warn("session did not stop cleanly", slog.Any("error", err))
	}

	if opt.diagnose {
		return diagnose(context.WithoutCancel(ctx), curriculum.NewClient(genaiClient.Models), controller.Transcript(), printer)
	}
	return nil
}

func serveMetrics(addr string, collector *metrics.Collector, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	logger.Info("serving metrics", slog.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

func diagnose(ctx context.Context, client *curriculum.Client, history []live.Utterance, printer *transcriptPrinter) error {
	if len(history) == 0 {
		return nil
	}

	messages := make([]curriculum.ChatMessage, 0, len(history))
	for _, utterance := range history {
		messages = append(messages, curriculum.ChatMessage{Sender: string(utterance.Speaker), Text: utterance.Text})
	}

	student, err := client.Diagnose(ctx, messages)
	if err != nil {
		return err
	}
	printer.Status(fmt.Sprintf("Diagnosis: %s, %d, %s (%s, %s path)", student.Name, student.Age, student.Instrument, student.Level, student.Path))

	plan, err := client.GeneratePlan(ctx, *student)
	if err != nil {
		return err
	}
	printer.Block(plan)
	return nil
}
