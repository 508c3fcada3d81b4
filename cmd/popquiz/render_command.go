package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"popquiz/internal/config"
	"popquiz/internal/ledger"
	"popquiz/internal/services"
	"popquiz/internal/workflow"
)

func newRenderCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		inputFile  string
		outputDir  string
		backend    string
		downloader string
		width      int
		height     int
		resume     bool
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a quiz round into videos and sheets",
		Long:  "render reads the given round file, downloads every source it references, and produces title cards, per-question videos, the combined question and answer reels, and the printable sheets.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyRenderOverrides(cfg, outputDir, backend, downloader, width, height); err != nil {
				return err
			}

			logger, err := cmdCtx.buildLogger()
			if err != nil {
				return err
			}

			// A dry run only prints the plan; opening the ledger would
			// create the database as a side effect.
			var store *ledger.Store
			if !dryRun {
				store, err = ledger.Open(cfg)
				if err != nil {
					return fmt.Errorf("open ledger: %w", err)
				}
				defer store.Close()
			}

			runner := workflow.New(cfg, store, logger,
				workflow.WithResume(resume),
				workflow.WithDryRun(dryRun),
			)
			outcome, err := runner.Run(cmd.Context(), inputFile)
			if err != nil {
				if !services.IsUsageError(err) {
					fmt.Fprintln(cmd.ErrOrStderr(), "Completed videos are kept; re-run with --resume to pick up where this run stopped.")
				}
				return err
			}

			out := cmd.OutOrStdout()
			if outcome.DryRun {
				fmt.Fprintf(out, "Dry run: round %02d would produce %d videos\n", outcome.Round, len(outcome.Plan))
				rows := make([][]string, 0, len(outcome.Plan))
				for _, entry := range outcome.Plan {
					rows = append(rows, []string{entry.Label, yesNo(entry.Cached), entry.Path})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Artifact", "On Disk", "Output"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
				return nil
			}

			fmt.Fprintf(out, "Round %02d complete: %d videos rendered, %d reused, %d sheets written in %s\n",
				outcome.Round, outcome.Rendered, outcome.Reused, len(outcome.Sheets), outcome.Elapsed.Round(time.Second))
			fmt.Fprintf(out, "Output directory: %s\n", outcome.RoundDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input_file", "i", "", "Quiz round file (JSON or YAML)")
	cmd.Flags().StringVarP(&outputDir, "output_dir", "o", "", "Override the output directory root")
	cmd.Flags().StringVarP(&backend, "backend", "b", "", "Render backend (filtergraph or pipeline)")
	cmd.Flags().StringVarP(&downloader, "downloader", "d", "", "Downloader binary (yt-dlp or youtube-dl)")
	cmd.Flags().IntVar(&width, "width", 0, "Override the output video width")
	cmd.Flags().IntVar(&height, "height", 0, "Override the output video height")
	cmd.Flags().BoolVar(&resume, "resume", false, "Reuse videos already on disk instead of rendering them again")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be rendered without running any tool")
	_ = cmd.MarkFlagRequired("input_file")

	return cmd
}

// applyRenderOverrides folds command line overrides into the loaded config
// and revalidates, so flag values go through the same checks as file values.
func applyRenderOverrides(cfg *config.Config, outputDir, backend, downloader string, width, height int) error {
	if dir := strings.TrimSpace(outputDir); dir != "" {
		if err := cfg.SetOutputDir(dir); err != nil {
			return err
		}
	}
	if value := strings.TrimSpace(backend); value != "" {
		cfg.Render.Backend = value
	}
	if value := strings.TrimSpace(downloader); value != "" {
		cfg.Tools.Downloader = value
	}
	if width > 0 {
		cfg.Video.Width = width
	}
	if height > 0 {
		cfg.Video.Height = height
	}
	return cfg.Validate()
}
