package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"popquiz/internal/ledger"
)

func newLedgerCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and manage the render ledger",
	}

	cmd.AddCommand(newLedgerListCommand(cmdCtx))
	cmd.AddCommand(newLedgerRetryCommand(cmdCtx))
	cmd.AddCommand(newLedgerResetCommand(cmdCtx))
	cmd.AddCommand(newLedgerClearCommand(cmdCtx))

	return cmd
}

type ledgerItemJSON struct {
	ID              int64   `json:"id"`
	Round           int     `json:"round"`
	Question        int     `json:"question,omitempty"`
	Kind            string  `json:"kind"`
	Status          string  `json:"status"`
	Backend         string  `json:"backend,omitempty"`
	OutputPath      string  `json:"output_path,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
	ProgressStage   string  `json:"progress_stage,omitempty"`
	ProgressPercent float64 `json:"progress_percent"`
	UpdatedAt       string  `json:"updated_at"`
}

func newLedgerListCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		statusFilters []string
		kindFilter    string
		round         int
		jsonOut       bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatusFilters(statusFilters)
			if err != nil {
				return err
			}
			kind, err := parseKindFilter(kindFilter)
			if err != nil {
				return err
			}

			return cmdCtx.withStore(func(store *ledger.Store) error {
				items, err := listItems(cmd.Context(), store, round, statuses)
				if err != nil {
					return err
				}
				items = filterByKind(items, kind)

				if jsonOut {
					payload := make([]ledgerItemJSON, 0, len(items))
					for _, item := range items {
						payload = append(payload, itemToJSON(item))
					}
					return writeJSON(cmd, payload)
				}

				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Ledger is empty")
					return nil
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Artifact", "Status", "Progress", "Detail", "Updated"},
					buildLedgerListRows(items),
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by status (repeatable)")
	cmd.Flags().StringVar(&kindFilter, "kind", "", "Filter by artifact kind")
	cmd.Flags().IntVar(&round, "round", 0, "Show only the given round")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

// listItems queries per round when a round is given; the status filter then
// applies client side, since ItemsForRound has no status clause.
func listItems(ctx context.Context, store *ledger.Store, round int, statuses []ledger.Status) ([]*ledger.Item, error) {
	if round <= 0 {
		return store.List(ctx, statuses...)
	}
	items, err := store.ItemsForRound(ctx, round)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return items, nil
	}
	wanted := make(map[ledger.Status]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}
	filtered := items[:0]
	for _, item := range items {
		if _, ok := wanted[item.Status]; ok {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

func filterByKind(items []*ledger.Item, kind ledger.ArtifactKind) []*ledger.Item {
	if kind == "" {
		return items
	}
	filtered := items[:0]
	for _, item := range items {
		if item.Kind == kind {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func newLedgerRetryCommand(cmdCtx *commandContext) *cobra.Command {
	var rounds []int

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Mark failed videos for another attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(store *ledger.Store) error {
				count, err := store.RetryFailed(cmd.Context(), rounds...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %d failed videos for retry\n", count)
				return nil
			})
		},
	}

	cmd.Flags().IntSliceVar(&rounds, "round", nil, "Limit the retry to the given rounds")

	return cmd
}

func newLedgerResetCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset videos stuck in an in-flight status",
		Long:  "reset returns videos left in fetching or rendering by an interrupted run to pending, so the next render picks them up again.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(store *ledger.Store) error {
				count, err := store.ResetStuckProcessing(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d in-flight videos to pending\n", count)
				return nil
			})
		},
	}

	return cmd
}

func newLedgerClearCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		completed bool
		failed    bool
		round     int
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove ledger entries",
		Long:  "clear removes ledger entries. Without flags the whole ledger is cleared; --completed, --failed, and --round narrow the removal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if completed && failed {
				return fmt.Errorf("--completed and --failed are mutually exclusive")
			}

			return cmdCtx.withStore(func(store *ledger.Store) error {
				var (
					count int64
					err   error
				)
				switch {
				case round > 0:
					count, err = store.ClearRound(cmd.Context(), round)
				case completed:
					count, err = store.ClearCompleted(cmd.Context())
				case failed:
					count, err = store.ClearFailed(cmd.Context())
				default:
					count, err = store.Clear(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d ledger entries\n", count)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "Remove only completed entries")
	cmd.Flags().BoolVar(&failed, "failed", false, "Remove only failed entries")
	cmd.Flags().IntVar(&round, "round", 0, "Remove only entries for the given round")

	return cmd
}

func parseStatusFilters(raw []string) ([]ledger.Status, error) {
	statuses := make([]ledger.Status, 0, len(raw))
	for _, value := range raw {
		status, ok := ledger.ParseStatus(value)
		if !ok {
			known := ledger.AllStatuses()
			names := make([]string, 0, len(known))
			for _, s := range known {
				names = append(names, string(s))
			}
			return nil, fmt.Errorf("unknown status %q (known: %s)", value, strings.Join(names, ", "))
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func parseKindFilter(raw string) (ledger.ArtifactKind, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	kind, ok := ledger.ParseKind(raw)
	if !ok {
		known := ledger.AllKinds()
		names := make([]string, 0, len(known))
		for _, k := range known {
			names = append(names, string(k))
		}
		return "", fmt.Errorf("unknown kind %q (known: %s)", raw, strings.Join(names, ", "))
	}
	return kind, nil
}

func buildLedgerListRows(items []*ledger.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		detail := item.ProgressStage
		switch {
		case item.Status == ledger.StatusFailed && item.ErrorMessage != "":
			detail = item.ErrorMessage
		case item.Status == ledger.StatusCompleted && item.OutputPath != "":
			detail = filepath.Base(item.OutputPath)
		}
		// Percentages only mean something while a video is in flight.
		progress := ""
		if item.IsProcessing() {
			progress = fmt.Sprintf("%.0f%%", item.ProgressPercent)
		}
		rows = append(rows, []string{
			item.Label(),
			string(item.Status),
			progress,
			detail,
			item.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	return rows
}

func itemToJSON(item *ledger.Item) ledgerItemJSON {
	return ledgerItemJSON{
		ID:              item.ID,
		Round:           item.Round,
		Question:        item.Question,
		Kind:            string(item.Kind),
		Status:          string(item.Status),
		Backend:         item.Backend,
		OutputPath:      item.OutputPath,
		ErrorMessage:    item.ErrorMessage,
		ProgressStage:   item.ProgressStage,
		ProgressPercent: item.ProgressPercent,
		UpdatedAt:       item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
