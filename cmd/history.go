package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/spf13/cobra"
)

const defaultHistoryLimit = 20

type historyRecordOutput struct {
	ID              int64   `json:"id"`
	AppID           uint32  `json:"app_id"`
	GameName        string  `json:"game_name"`
	StartedAt       string  `json:"started_at"`
	EndedAt         string  `json:"ended_at,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	Status          string  `json:"status"`
}

type historyOutput struct {
	TotalIdleSeconds float64               `json:"total_idle_seconds"`
	Sessions         []historyRecordOutput `json:"sessions"`
}

func newHistoryCmd(app *app) *cobra.Command {
	var (
		game   string
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded idle sessions and total idle time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := app.openHistory(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var records []domain.HistoryRecord
			if game != "" {
				appID, err := domain.ParseAppID(game)
				if err != nil {
					return fmt.Errorf("parse --game: %w", err)
				}
				records, err = store.ByApp(ctx, appID, limit)
				if err != nil {
					return fmt.Errorf("load history: %w", err)
				}
			} else {
				records, err = store.Recent(ctx, limit)
				if err != nil {
					return fmt.Errorf("load history: %w", err)
				}
			}

			total, err := store.TotalIdle(ctx)
			if err != nil {
				return fmt.Errorf("load total idle time: %w", err)
			}

			if asJSON {
				return writeHistoryJSON(cmd, records, total)
			}

			rendered, err := app.historyRenderer(records, total)
			if err != nil {
				return fmt.Errorf("render history: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&game, "game", "", "Only show sessions of this app id")
	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "Maximum number of sessions to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print history as JSON")
	return cmd
}

func writeHistoryJSON(cmd *cobra.Command, records []domain.HistoryRecord, total time.Duration) error {
	out := historyOutput{
		TotalIdleSeconds: total.Seconds(),
		Sessions:         make([]historyRecordOutput, 0, len(records)),
	}
	for _, record := range records {
		item := historyRecordOutput{
			ID:              record.ID,
			AppID:           uint32(record.AppID),
			GameName:        record.GameName,
			StartedAt:       record.StartedAt.UTC().Format(time.RFC3339),
			DurationSeconds: record.Duration.Seconds(),
			Status:          string(record.Status),
		}
		if !record.EndedAt.IsZero() {
			item.EndedAt = record.EndedAt.UTC().Format(time.RFC3339)
		}
		out.Sessions = append(out.Sessions, item)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
