package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samaysahu/Vox-GPT/internal/logging"
	"github.com/samaysahu/Vox-GPT/pkg/arm"
	"github.com/samaysahu/Vox-GPT/pkg/config"
	"github.com/samaysahu/Vox-GPT/pkg/device"
	"github.com/samaysahu/Vox-GPT/pkg/intent"
	"github.com/samaysahu/Vox-GPT/pkg/journal"
	"github.com/samaysahu/Vox-GPT/pkg/metrics"
	"github.com/samaysahu/Vox-GPT/pkg/relay"
	"github.com/samaysahu/Vox-GPT/pkg/server"
)

const shutdownGracePeriod = 10 * time.Second

type ServeCommand struct {
	Listen    string `short:"l" long:"listen" description:"Listen address (overrides listen_addr)"`
	DeviceURL string `long:"device" description:"Arm controller URL (overrides device.url)"`
	NoOracle  bool   `long:"no-oracle" description:"Parse with the keyword matcher only"`
}

func (c *ServeCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if c.Listen != "" {
		cfg.ListenAddr = c.Listen
	}
	if c.DeviceURL != "" {
		cfg.Device.URL = c.DeviceURL
	}
	if c.NoOracle {
		cfg.Oracle.Provider = config.ProviderNone
	}

	logger, _, err := logging.Setup(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	return runServe(context.Background(), cfg, logger, defaultServeDeps())
}

type serveDeps struct {
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultServeDeps() serveDeps {
	return serveDeps{
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			signal.Notify(c, sig...)
		},
		signalStop: signal.Stop,
	}
}

// app is the wired relay with the resources it owns.
type app struct {
	relay   *relay.Relay
	server  *server.Server
	journal *journal.Journal
}

func (a *app) Close() error {
	if a.journal == nil {
		return nil
	}
	return a.journal.Close()
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	limits, err := cfg.JointLimits()
	if err != nil {
		return nil, err
	}
	reg, err := arm.NewRegistry(limits)
	if err != nil {
		return nil, fmt.Errorf("create registry: %w", err)
	}

	dev, err := device.NewClient(device.Config{
		URL:              cfg.Device.URL,
		Timeout:          cfg.Device.Timeout,
		TelemetryTimeout: cfg.Device.TelemetryTimeout,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create device client: %w", err)
	}

	parserOpts := []intent.ParserOption{
		intent.WithLogger(logger),
		intent.WithOracleTimeout(cfg.Oracle.Timeout),
	}
	if cfg.OracleEnabled() {
		oracle, err := intent.NewGeminiOracle(ctx, intent.GeminiConfig{
			APIKey: cfg.Oracle.APIKey,
			Model:  cfg.Oracle.Model,
		})
		if err != nil {
			return nil, err
		}
		parserOpts = append(parserOpts, intent.WithOracle(oracle))
		logger.Info("oracle enabled", "provider", cfg.Oracle.Provider, "model", oracle.Model())
	} else {
		logger.Info("oracle disabled, using keyword matcher")
	}

	m := metrics.New("")
	relayOpts := []relay.Option{relay.WithLogger(logger), relay.WithMetrics(m)}

	a := &app{}
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
		a.journal = j
		relayOpts = append(relayOpts, relay.WithJournal(j))
	}

	a.relay = relay.New(reg, intent.NewParser(reg, parserOpts...), dev, relayOpts...)
	a.server = server.New(server.Config{
		Relay:       a.relay,
		Metrics:     m,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})
	return a, nil
}

func buildHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps serveDeps) error {
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	httpSrv := buildHTTPServer(cfg.ListenAddr, a.server.Handler())

	logger.Info("starting relay", "addr", cfg.ListenAddr, "device", cfg.Device.URL, "journal", cfg.Journal.Path)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("relay stopped")
	return nil
}
