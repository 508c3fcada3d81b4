package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"popquiz/internal/fileutil"
	"popquiz/internal/quiz"
	"popquiz/internal/sheets"
)

func newSheetsCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		inputFile string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write the printable question and answer sheets",
		Long:  "sheets writes the markdown question sheet (blank columns for teams to fill in) and the answer sheet for a round, without rendering any video.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if dir := strings.TrimSpace(outputDir); dir != "" {
				if err := cfg.SetOutputDir(dir); err != nil {
					return err
				}
			}

			round, err := quiz.ReadRound(inputFile)
			if err != nil {
				return err
			}

			logger, err := cmdCtx.buildLogger()
			if err != nil {
				return err
			}

			roundDir := cfg.RoundDir(round.Round)
			if err := fileutil.EnsureDir(roundDir); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			writer := sheets.NewWriter(logger)
			for _, kind := range []quiz.Kind{quiz.KindQuestion, quiz.KindAnswer} {
				path, err := writer.Write(round, kind, roundDir)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %s\n", path)
			}

			// Terminal preview only; files carry the full markdown tables.
			if shouldColorize(out) {
				for _, kind := range []quiz.Kind{quiz.KindQuestion, quiz.KindAnswer} {
					headers, rows := sheets.Columns(round, kind)
					fmt.Fprintln(out)
					for _, line := range renderSectionHeader(fmt.Sprintf("Round %02d %ss", round.Round, kind), true) {
						fmt.Fprintln(out, line)
					}
					fmt.Fprintln(out, renderTable(headers, rows, nil))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input_file", "i", "", "Quiz round file (JSON or YAML)")
	cmd.Flags().StringVarP(&outputDir, "output_dir", "o", "", "Override the output directory root")
	_ = cmd.MarkFlagRequired("input_file")

	return cmd
}
