package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"popquiz/internal/config"
	"popquiz/internal/ledger"
	"popquiz/internal/preflight"
)

type statusReport struct {
	Config   configSummary   `json:"config"`
	Tools    []toolSummary   `json:"tools"`
	Ledger   map[string]int  `json:"ledger"`
	Database databaseSummary `json:"database"`
}

type databaseSummary struct {
	Path      string `json:"path"`
	Healthy   bool   `json:"healthy"`
	Items     int    `json:"items"`
	LastError string `json:"last_error,omitempty"`
}

type configSummary struct {
	OutputDir  string `json:"output_dir"`
	SourcesDir string `json:"sources_dir"`
	LedgerPath string `json:"ledger_path"`
	Backend    string `json:"backend"`
	Format     string `json:"format"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FPS        int    `json:"fps"`
}

type toolSummary struct {
	Name      string `json:"name"`
	Binary    string `json:"binary"`
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
}

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration, tools, and ledger state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			probes := preflight.ProbeTools(cmd.Context(), cfg)

			return cmdCtx.withStore(func(store *ledger.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				dbHealth, healthErr := store.CheckHealth(cmd.Context())

				if jsonOut {
					return writeJSON(cmd, buildStatusReport(cfg, probes, stats, dbHealth, healthErr))
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Configuration", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Output directory", statusInfo, cfg.Paths.OutputDir, colorize))
				fmt.Fprintln(out, renderStatusLine("Backend", statusInfo, cfg.Render.Backend, colorize))
				fmt.Fprintln(out, renderStatusLine("Format", statusInfo, cfg.Render.Format, colorize))
				fmt.Fprintln(out, renderStatusLine("Canvas", statusInfo,
					fmt.Sprintf("%dx%d at %d fps", cfg.Video.Width, cfg.Video.Height, cfg.Video.FPS), colorize))

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Tools", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, probe := range probes {
					kind := statusOK
					if !probe.Available {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(probe.Name, kind, probe.Detail(), colorize))
				}

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Ledger", colorize) {
					fmt.Fprintln(out, line)
				}
				dbKind, dbDetail := databaseStatusLine(dbHealth, healthErr)
				fmt.Fprintln(out, renderStatusLine("Database", dbKind, dbDetail, colorize))
				rows := buildLedgerStatsRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(out, statusIndent+"Ledger is empty")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Status", "Videos"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

func buildStatusReport(cfg *config.Config, probes []preflight.ToolProbe, stats map[ledger.Status]int, dbHealth ledger.DatabaseHealth, healthErr error) statusReport {
	report := statusReport{
		Config: configSummary{
			OutputDir:  cfg.Paths.OutputDir,
			SourcesDir: cfg.Paths.SourcesDir,
			LedgerPath: cfg.Paths.LedgerPath,
			Backend:    cfg.Render.Backend,
			Format:     cfg.Render.Format,
			Width:      cfg.Video.Width,
			Height:     cfg.Video.Height,
			FPS:        cfg.Video.FPS,
		},
		Ledger: make(map[string]int, len(stats)),
		Database: databaseSummary{
			Path:    dbHealth.DBPath,
			Healthy: healthErr == nil && dbHealth.IntegrityCheck && len(dbHealth.MissingColumns) == 0,
			Items:   dbHealth.TotalItems,
		},
	}
	if healthErr != nil {
		report.Database.LastError = healthErr.Error()
	} else if dbHealth.Error != "" {
		report.Database.LastError = dbHealth.Error
	}
	for _, probe := range probes {
		report.Tools = append(report.Tools, toolSummary{
			Name:      probe.Name,
			Binary:    probe.Binary,
			Available: probe.Available,
			Version:   probe.Version,
		})
	}
	for status, count := range stats {
		report.Ledger[string(status)] = count
	}
	return report
}

func databaseStatusLine(health ledger.DatabaseHealth, healthErr error) (statusKind, string) {
	switch {
	case healthErr != nil:
		return statusError, healthErr.Error()
	case len(health.MissingColumns) > 0:
		return statusError, fmt.Sprintf("%s (missing columns: %s)", health.DBPath, strings.Join(health.MissingColumns, ", "))
	case !health.IntegrityCheck:
		return statusError, fmt.Sprintf("%s (integrity check failed)", health.DBPath)
	default:
		return statusOK, fmt.Sprintf("%s (%d videos)", health.DBPath, health.TotalItems)
	}
}

func buildLedgerStatsRows(stats map[ledger.Status]int) [][]string {
	var rows [][]string
	total := 0
	for _, status := range ledger.AllStatuses() {
		count := stats[status]
		if count == 0 {
			continue
		}
		total += count
		rows = append(rows, []string{string(status), fmt.Sprintf("%d", count)})
	}
	if len(rows) == 0 {
		return nil
	}
	rows = append(rows, []string{"total", fmt.Sprintf("%d", total)})
	return rows
}
