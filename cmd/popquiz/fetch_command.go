package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"popquiz/internal/workflow"
)

func newFetchCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		inputFile string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a round's sources without rendering",
		Long:  "fetch downloads every source the round file references and writes the per-question source clips, so a later render can run without network access.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.buildLogger()
			if err != nil {
				return err
			}

			runner := workflow.New(cfg, nil, logger)
			count, err := runner.Fetch(cmd.Context(), inputFile, force)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d sources ready in %s\n", count, cfg.Paths.SourcesDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input_file", "i", "", "Quiz round file (JSON or YAML)")
	cmd.Flags().BoolVar(&force, "force", false, "Download sources again even when already cached")
	_ = cmd.MarkFlagRequired("input_file")

	return cmd
}
