package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iafilius/StateScatter/src/dataset"
	"github.com/iafilius/StateScatter/src/logging"
	"github.com/iafilius/StateScatter/src/server"
)

func main() {
	logging.SetOutput(os.Stdout)
	if p, err := server.LoadEnv(); err != nil {
		logging.Warnf("could not load .env file: %v", err)
	} else if p != "" {
		logging.Infof("loaded environment from %s", p)
	}
	cfg, err := server.LoadConfig(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	if !logging.SetLogLevel(cfg.LogLevel) {
		logging.Warnf("unknown log level %q, keeping %s", cfg.LogLevel, logging.GetLogLevel())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loadCtx, cancel := context.WithTimeout(ctx, time.Minute)
	ds, err := dataset.LoadDataset(loadCtx, cfg.DataSource)
	cancel()
	if err != nil {
		logging.Errorf("%v", err)
		os.Exit(1)
	}

	s, err := server.New(ctx, ds, cfg)
	if err != nil {
		logging.Errorf("%v", err)
		os.Exit(1)
	}
	defer s.Close()

	srv := &http.Server{
		Handler:           s.Handler(),
		Addr:              cfg.Addr,
		WriteTimeout:      15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	serverErrors := make(chan error, 1)
	go func() {
		logging.Infof("serving %d states on %s", len(ds), cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case <-ctx.Done():
		logging.Infof("shutdown signal received")
	case err := <-serverErrors:
		logging.Errorf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Errorf("shutdown: %v", err)
		return
	}
	logging.Infof("server stopped")
}
