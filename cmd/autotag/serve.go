// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/data-mint-research/autotag2/internal/api"
	"github.com/data-mint-research/autotag2/internal/buildinfo"
	"github.com/data-mint-research/autotag2/internal/classifier"
	"github.com/data-mint-research/autotag2/internal/config"
	"github.com/data-mint-research/autotag2/internal/exiftool"
	"github.com/data-mint-research/autotag2/internal/logger"
	"github.com/data-mint-research/autotag2/internal/metrics"
	"github.com/data-mint-research/autotag2/internal/services/batch"
)

func RunServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the tagging API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")

	appCfg, err := config.New(configPath, buildinfo.Version)
	if err != nil {
		return err
	}
	cfg := appCfg.Config

	logger.Setup(cfg)

	log.Info().
		Str("version", buildinfo.Version).
		Str("commit", buildinfo.Commit).
		Msg("Starting autotag")

	client := classifier.NewClient(cfg.ClassifierURL, cfg.ClassifierTimeoutSeconds)
	writer := exiftool.NewWriter(cfg.ExiftoolPath, cfg.ExiftoolTimeout())

	service := batch.NewService(batch.Config{
		DefaultTagMode: cfg.DefaultTagMode(),
	}, client, client, writer)

	server := api.NewServer(&api.Dependencies{
		Config:       cfg,
		BatchService: service,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.ListenAndServe(gctx)
	})

	if cfg.MetricsEnabled {
		manager := metrics.NewManager(service.Tracker())
		g.Go(func() error {
			return manager.ListenAndServe(gctx, cfg.MetricsHost, cfg.MetricsPort)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().Msg("Shutdown complete")
	return nil
}
