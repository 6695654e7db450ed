package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/chordmatch/internal/config"
	"github.com/himanishpuri/chordmatch/pkg/chordmatch"
	"github.com/himanishpuri/chordmatch/pkg/logger"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:           "chordmatch-server",
		Short:         "Serve chord-based song recommendations over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), settings)
		},
	}

	if err := config.BindCommonFlags(cmd.Flags(), v); err != nil {
		panic(err)
	}
	if err := config.BindServerFlags(cmd.Flags(), v); err != nil {
		panic(err)
	}
	return cmd
}

func run(ctx context.Context, settings config.Settings) error {
	configureLogger(settings)
	log := logger.GetLogger()

	service, err := chordmatch.NewService(
		chordmatch.WithCorpusPath(settings.CorpusPath),
		chordmatch.WithDBPath(settings.DBPath),
		chordmatch.WithWorkers(settings.Workers),
		chordmatch.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer service.Close()

	server := NewServer(service, &ServerConfig{
		Port:           settings.Port,
		CorpusPath:     settings.CorpusPath,
		DBPath:         settings.DBPath,
		AllowedOrigins: settings.AllowedOrigins,
		RateLimit:      settings.RateLimit,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func configureLogger(settings config.Settings) {
	if level, err := logger.ParseLevel(settings.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if settings.LogFormat == "json" {
		logger.GetLogger().SetJSON(true)
	}
}
