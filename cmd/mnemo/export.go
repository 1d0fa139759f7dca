// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package main

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mnemo-dev/mnemo/internal/export"
	mnemoerr "github.com/mnemo-dev/mnemo/pkg/errors"
)

func newExportCmd() *cobra.Command {
	var (
		out   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recent summaries as a JSON snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, _, err := wireStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			doc, err := export.Snapshot(cmd.Context(), st, limit, time.Now())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return mnemoerr.Errorf(mnemoerr.CodeCLISetupFailure, "creating export file: %w", err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			return export.Write(w, doc)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "write to file instead of stdout")
	cmd.Flags().IntVar(&limit, "limit", 5, "summaries of each kind to include")
	return cmd
}
