package commands

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hexput/runtime/internal/config"
	"github.com/hexput/runtime/internal/engine"
	"github.com/hexput/runtime/internal/transport"
)

// ErrConfig and ErrBind classify a serve failure for the exit code
// spec §6 assigns it: 1 for a configuration error, 2 for a listener
// bind failure. Any other RunE error (the default cobra path) exits 1
// as well, so only the bind-failure case needs explicit handling.
var (
	ErrConfig = errors.New("configuration error")
	ErrBind   = errors.New("bind failure")
)

func newServeCommand() *cobra.Command {
	var configPath string
	var address string
	var port int
	var debug bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the WebSocket runtime server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("%w: loading config: %w", ErrConfig, err)
				}
				cfg = loaded
			}
			if cmd.Flags().Changed("address") {
				cfg.Listen.Address = address
			}
			if cmd.Flags().Changed("port") {
				cfg.Listen.Port = port
			}
			if cmd.Flags().Changed("debug") {
				cfg.Logging.Debug = debug
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = logLevel
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to hexputd.yaml (defaults are used when omitted)")
	cmd.Flags().StringVar(&address, "address", "", "listen address (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug-level logging")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	return cmd
}

func runServe(cfg *config.Config) error {
	levelName := cfg.Logging.Level
	if cfg.Logging.Debug {
		levelName = "debug"
	}
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("%w: invalid log level %q: %w", ErrConfig, levelName, err)
	}
	log := newLogger().Level(level)

	eng := engine.New(log, cfg.Bridge.ProbeTimeout, cfg.Bridge.CallTimeout, cfg.Limits.MaxCallbackDepth)
	srv := transport.NewServer(log, eng.Handler)

	addr := fmt.Sprintf("%s:%d", cfg.Listen.Address, cfg.Listen.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: binding %s: %w", ErrBind, addr, err)
	}

	httpServer := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("address", addr).Msg("listening")
	if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func newLogger() zerolog.Logger {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).With().Timestamp().Logger()
}
