// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/spf13/cobra"

	"github.com/data-mint-research/autotag2/internal/buildinfo"
	"github.com/data-mint-research/autotag2/internal/config"
	"github.com/data-mint-research/autotag2/internal/logger"
	"github.com/data-mint-research/autotag2/internal/modeldl"
)

func RunModelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage classifier model weights",
	}

	cmd.AddCommand(runModelsDownloadCommand())
	return cmd
}

func runModelsDownloadCommand() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download and verify classifier model weights",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")

			appCfg, err := config.New(configPath, buildinfo.Version)
			if err != nil {
				return err
			}
			logger.Setup(appCfg.Config)

			dir := outputDir
			if dir == "" {
				dir = appCfg.Config.ModelsDir
			}

			return modeldl.NewDownloader().DownloadAll(cmd.Context(), dir)
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for model weights (defaults to modelsDir from config)")
	return cmd
}
