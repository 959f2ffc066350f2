// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/data-mint-research/autotag2/internal/buildinfo"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "autotag",
		Short: "AI-assisted image tagging service",
		Long:  "autotag classifies images with an AI sidecar and writes the resulting tags into image metadata via exiftool.",
		RunE: func(cmd *cobra.Command, args []string) error {
			// running without a subcommand starts the server
			return runServe(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "path to configuration directory or file")

	rootCmd.AddCommand(RunServeCommand())
	rootCmd.AddCommand(RunModelsCommand())
	rootCmd.AddCommand(runVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Print(buildinfo.String())
		},
	}
}
