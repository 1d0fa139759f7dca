// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	rcron "github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/mnemo-dev/mnemo/internal/config"

	mnemoerr "github.com/mnemo-dev/mnemo/pkg/errors"
)

func newRunCmd() *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one batch pass, or keep running on a schedule",
		Long: "Executes the full pipeline: ingest new messages, mark them processed, " +
			"generate weekly summaries, refresh identity profiles, and compact the store. " +
			"With --schedule, runs repeatedly until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if schedule == "" {
				return runOnce(cmd, cfg)
			}
			return runScheduled(cmd, cfg, schedule)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression (with seconds field) for repeated runs")
	return cmd
}

func runOnce(cmd *cobra.Command, cfg *config.Config) error {
	app, err := WireApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	report, err := app.Runner.Run(cmd.Context())
	if report != nil {
		fmt.Fprint(cmd.OutOrStdout(), report.String())
	}
	return err
}

// runScheduled executes the pipeline on a cron schedule until SIGINT or
// SIGTERM. Subsystems are wired per run so an idle scheduler holds no
// database handles.
func runScheduled(cmd *cobra.Command, cfg *config.Config, schedule string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := rcron.New(rcron.WithSeconds())
	_, err := c.AddJob(schedule, overlapSafe(func() {
		if err := runOnce(cmd, cfg); err != nil {
			slog.Error("scheduled run failed", "error", err)
		}
	}))
	if err != nil {
		return mnemoerr.Errorf(mnemoerr.CodeCLIInputInvalid, "invalid schedule %q: %w", schedule, err)
	}

	slog.Info("scheduler started", "schedule", schedule)
	c.Start()
	<-ctx.Done()

	slog.Info("shutting down scheduler")
	<-c.Stop().Done() // let an in-flight run finish
	return nil
}

// overlapSafe keeps scheduled passes from overlapping: the store assumes a
// single writer, and compaction must never run concurrently with ingestion.
// A pass that outlasts the schedule interval makes the next firing skip.
func overlapSafe(job func()) rcron.Job {
	return rcron.NewChain(rcron.SkipIfStillRunning(rcron.DefaultLogger)).Then(rcron.FuncJob(job))
}
