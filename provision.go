package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xiaot623/worldrag/internal/dataset"
)

func newProvisionCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Download the World Bank CSV and the GEM report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(flags)
			cfg.SkipDownload = false

			ctx, cancel := exitOnSignal(cmd.Context())
			defer cancel()

			report, err := dataset.Provision(ctx, cfg)
			if report != nil {
				log.Info().
					Strs("downloaded", report.Downloaded).
					Strs("skipped", report.Skipped).
					Int("failed", len(report.Failed)).
					Msg("provisioning finished")
			}
			if err != nil {
				return fmt.Errorf("provisioning failed: %w", err)
			}
			return nil
		},
	}
}
