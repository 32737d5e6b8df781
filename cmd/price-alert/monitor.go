package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	delivery "stock-price-alert/internal/monitor/delivery/http"
	_ "stock-price-alert/internal/monitor/docs"
	"stock-price-alert/internal/monitor/dto"
	"stock-price-alert/pkg/logger"

	"github.com/spf13/cobra"
)

func newMonitorCmd(opts *rootOptions) *cobra.Command {
	var (
		intervalSeconds int
		iterations      int
	)
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Poll prices and fire alerts until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withApp(opts, func(a *app) error {
				runOpts := runOptions(a, cmd, intervalSeconds, iterations)
				monitorSvc, err := a.newMonitor(newRegistry())
				if err != nil {
					return err
				}
				return monitorSvc.Run(ctx, runOpts)
			})
		},
	}
	cmd.Flags().IntVarP(&intervalSeconds, "interval", "i", 0, "Seconds between cycles (minimum 5, default from config)")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Stop after this many cycles (0 runs until interrupted)")
	return cmd
}

// runOptions merges command line flags over the configured monitor settings.
func runOptions(a *app, cmd *cobra.Command, intervalSeconds, iterations int) dto.RunOptions {
	opts := dto.RunOptions{
		Interval:      a.cfg.Monitor.Interval,
		MaxIterations: a.cfg.Monitor.MaxIterations,
	}
	if cmd.Flags().Changed("interval") {
		opts.Interval = time.Duration(intervalSeconds) * time.Second
	}
	if cmd.Flags().Changed("iterations") {
		opts.MaxIterations = iterations
	}
	return opts
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the monitor together with the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withApp(opts, func(a *app) error {
				return serve(ctx, stop, a)
			})
		},
	}
}

func serve(ctx context.Context, stop context.CancelFunc, a *app) error {
	reg := newRegistry()
	monitorSvc, err := a.newMonitor(reg)
	if err != nil {
		return err
	}

	e := delivery.NewServer(a.alertService, reg, a.log.Named("http"))

	monitorErr := make(chan error, 1)
	go func() {
		monitorErr <- monitorSvc.Run(ctx, dto.RunOptions{
			Interval:      a.cfg.Monitor.Interval,
			MaxIterations: a.cfg.Monitor.MaxIterations,
		})
	}()

	go func() {
		addr := fmt.Sprintf("%s:%d", a.cfg.API.Host, a.cfg.API.Port)
		a.log.Info("HTTP server starting", logger.StringField("address", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		runErr = <-monitorErr
	case runErr = <-monitorErr:
		// The monitor finished on its own (iteration limit or storage failure).
	}

	a.log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.log.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	a.log.Info("Server exiting")
	return runErr
}
