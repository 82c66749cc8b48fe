package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/samaysahu/Vox-GPT/internal/logging"
	"github.com/samaysahu/Vox-GPT/pkg/device/sim"
)

type SimulateCommand struct {
	Listen   string `short:"l" long:"listen" default:":8081" description:"Listen address of the simulated controller"`
	LogLevel string `long:"log-level" default:"debug" description:"Log level"`
}

func (c *SimulateCommand) Execute(args []string) error {
	logger, _, err := logging.Setup(os.Stderr, c.LogLevel)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render("voxgpt simulator"))
	fmt.Printf("Serving the arm controller API on %s\n", c.Listen)
	fmt.Println(dimStyle.Render("Point the relay at it with: voxgpt serve --device http://localhost" + c.Listen))

	return runSimulator(context.Background(), c.Listen, sim.New(logger), logger, defaultServeDeps())
}

func runSimulator(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger, deps serveDeps) error {
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	httpSrv := buildHTTPServer(addr, handler)

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
	deps.signalNotify(sigCh, os.Interrupt)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		return err
	case <-ctx.Done():
	case <-sigCh:
	}

	logger.Info("simulator stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown simulator: %w", err)
	}
	return <-listenErrCh
}
