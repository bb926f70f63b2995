package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/strangerchat-server/internal/app"
	"github.com/vovakirdan/strangerchat-server/internal/config"
	"github.com/vovakirdan/strangerchat-server/internal/log"
)

type rootOptions struct {
	configPath  string
	addr        string
	logLevel    string
	matchPolicy string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "strangerchat-server",
		Short: "Anonymous one-on-one stranger chat server",
		Long: `strangerchat-server pairs anonymous users into one-on-one chats over WebSocket
and relays their messages, typing indicators and presence counts.

Configuration is read from a YAML file (created with defaults when missing),
overridden by STRANGERCHAT_* environment variables and then by flags.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (default ./config.yaml)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.Flags().StringVar(&opts.matchPolicy, "match-policy", "", "matching policy: fifo or interest")

	cmd.AddCommand(newConfigCmd(opts))
	return cmd
}

// loadConfig resolves file and env configuration, then applies flag overrides.
// bootLog may be nil.
func loadConfig(opts *rootOptions, bootLog *zerolog.Logger) (config.Config, string, error) {
	cfg, path, err := config.Load(bootLog, opts.configPath)
	if err != nil {
		return cfg, path, err
	}
	cfg.UpdateFrom(config.Config{
		Addr:     opts.addr,
		Log:      config.LogConfig{Level: opts.logLevel},
		Matching: config.MatchingConfig{Policy: opts.matchPolicy},
	})
	if err := cfg.Validate(); err != nil {
		return cfg, path, err
	}
	return cfg, path, nil
}

func runServer(parent context.Context, opts *rootOptions) error {
	cfg, path, err := loadConfig(opts, log.New("info", "console"))
	if err != nil {
		return err
	}

	logger := log.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize application")
		return err
	}

	if err := config.Watch(path, logger, application.ApplyConfig); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("config hot reload disabled")
	}

	logger.Info().Str("addr", cfg.Addr).Str("config", path).Msg("starting strangerchat server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return fmt.Errorf("run: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
