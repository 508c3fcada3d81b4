package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"popquiz/internal/preflight"
)

type preflightResultJSON struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

func newPreflightCommand(cmdCtx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check tools and directories before a render",
		Long:  "preflight runs the same checks a render starts with: working directory access, the ffmpeg and ffprobe binaries, and the downloader. A non-zero exit means a render would refuse to start. A missing downloader is reported as a warning; it only blocks rounds with web sources.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)

			if jsonOut {
				payload := make([]preflightResultJSON, 0, len(results))
				for _, result := range results {
					payload = append(payload, preflightResultJSON{
						Name:     result.Name,
						Passed:   result.Passed,
						Optional: result.Optional,
						Detail:   result.Detail,
					})
				}
				if err := writeJSON(cmd, payload); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, result := range results {
					kind := statusOK
					switch {
					case result.Passed:
					case result.Optional:
						kind = statusWarn
					default:
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
				}
			}

			if !preflight.Passed(results) {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}
