// Command serbridge relays bytes between a serial device and a TCP peer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/momentics/serbridge/client"
	"github.com/momentics/serbridge/control"
	"github.com/momentics/serbridge/internal/session"
	"github.com/momentics/serbridge/server"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"
)

func main() {
	opts, err := ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			atexit.Exit(0)
		}
		atexit.Exit(2)
	}
	atexit.Exit(run(opts))
}

// run is the main entry point after CLI parsing.
func run(opts Options) int {
	loader := control.NewLoader(opts.ConfigPath)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return 1
	}
	if err := opts.Apply(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "invalid serial port:", err)
		return 2
	}
	warnings, err := cfg.Validate()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if opts.PrintConfig {
		out, err := cfg.YAML()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		_, _ = os.Stdout.Write(out)
		return 0
	}

	logger := control.SetupLogger(cfg.Log)
	for _, w := range warnings {
		logger.Warn(w)
	}

	store := control.NewConfigStore(cfg)
	store.OnReload(func(c *control.Config) {
		logger.SetLevel(c.Log.Level)
		logger.Info("configuration reloaded", zap.Stringer("log_level", logger.Level()))
	})
	loader.Watch(store, opts.Apply, func(err error) {
		logger.Warn("configuration reload failed", zap.Error(err))
	})

	ctx, cancel := context.WithCancel(context.Background())
	atexit.Register(cancel)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		logger.Info("shutting down", zap.Stringer("signal", s))
		atexit.Exit(0)
	}()

	metrics := control.NewMetrics()
	probes := control.NewDebugProbes()
	control.RegisterPlatformProbes(probes)
	if cfg.Metrics.Listen != "" {
		if _, err := control.ServeIntrospection(ctx, cfg.Metrics.Listen, metrics, probes, logger.Logger); err != nil {
			logger.Error("introspection endpoint failed", zap.Error(err))
			return 1
		}
	}

	runner := session.NewRunner(cfg.Serial, cfg.BufferSize,
		session.WithLogger(logger.Logger),
		session.WithHooks(metrics),
	)

	if cfg.ClientMode() {
		c, err := client.NewClient(cfg.Remote, runner, client.WithLogger(logger.Logger), client.WithDebug(probes))
		if err != nil {
			logger.Error("client setup failed", zap.Error(err))
			return 1
		}
		if err := c.Run(ctx); err != nil {
			return 1
		}
		return 0
	}

	srv, err := server.NewServer(cfg.ListenAddr(), runner, server.WithLogger(logger.Logger), server.WithDebug(probes))
	if err != nil {
		logger.Error("server setup failed", zap.Error(err))
		return 1
	}
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return 1
	}
	return 0
}
