// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store counts",
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

			ctx := cmd.Context()
			contacts, err := st.ContactCount(ctx)
			if err != nil {
				return err
			}
			messages, err := st.MessageCount(ctx)
			if err != nil {
				return err
			}
			weekly, err := st.WeeklySummaryCount(ctx)
			if err != nil {
				return err
			}
			identities, err := st.IdentitySummaryCount(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "contacts:           %d\n", contacts)
			fmt.Fprintf(out, "messages:           %d\n", messages)
			fmt.Fprintf(out, "weekly summaries:   %d\n", weekly)
			fmt.Fprintf(out, "identity snapshots: %d\n", identities)
			return nil
		},
	}
}
