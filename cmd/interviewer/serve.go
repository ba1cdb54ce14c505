package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Divas-Gupta30/interview-agent/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interview HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	svc := a.service()
	opts := append([]api.Option{api.WithLogger(a.logger)}, a.checks...)
	server := &http.Server{
		Addr:    ":" + a.cfg.Server.Port,
		Handler: api.NewServer(svc, opts...).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("interview service starting", "port", a.cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	select {
	case <-c:
	case err := <-errCh:
		return err
	}

	a.logger.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	if err := svc.Shutdown(ctx); err != nil {
		a.logger.Warn("sessions still running at exit", "error", err)
	}
	a.logger.Info("server exited")
	return nil
}
