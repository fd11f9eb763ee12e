package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// ServeCmd runs the HTTP API until the process is signalled.
type ServeCmd struct {
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests." default:"10s"`
}

func (c *ServeCmd) Run(rt *runtime) error {
	env, err := rt.open(true)
	if err != nil {
		return err
	}
	defer env.release()

	logger := env.logger
	svc, err := buildServices(env.cfg, env.storage, logger, time.Now)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", env.cfg.HTTPPort),
		Handler:           newHandler(svc, logger, time.Now),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(rt.ctx)
	g.Go(func() error {
		logger.Info("secretary API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		svc.reminders.RunScheduled(ctx, env.cfg.Reminder.Interval)
		return nil
	})

	return g.Wait()
}
