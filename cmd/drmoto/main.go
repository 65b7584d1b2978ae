// cmd/drmoto/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	capadapter "drmoto/internal/adapters/out/capture"
	appcfg "drmoto/internal/infra/config"
	"drmoto/internal/infra/logger"
	"drmoto/internal/platform/di"
	"drmoto/internal/platform/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "drmoto:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := appcfg.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	sh := newShell(readLines(os.Stdin), os.Stdout)
	picker := capadapter.PickerFunc(sh.pick)

	cont, err := di.Build(ctx, cfg, log, picker)
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	defer func() {
		if err := cont.Close(); err != nil {
			log.Warn("close failed", zap.Error(err))
		}
	}()
	cont.Start(ctx)
	sh.bind(cont)

	// ─────────────────────────────────────────────────────────────
	// Optional Prometheus listener
	// ─────────────────────────────────────────────────────────────
	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.Handler(cont.Registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics listener stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
	}

	sh.run(ctx)
	log.Info("shutting down")
	return nil
}

// readLines feeds stdin lines to a channel so the shell can also watch ctx.
func readLines(f *os.File) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}
