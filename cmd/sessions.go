package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type sessionOutput struct {
	AppID  uint32 `json:"app_id"`
	Name   string `json:"name"`
	Paused bool   `json:"paused"`
}

func newSessionsCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Show the sessions saved for the next run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := app.sessionRepository(zap.NewNop())
			if err != nil {
				return err
			}

			records, err := repo.LoadSnapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("load sessions: %w", err)
			}

			if asJSON {
				out := make([]sessionOutput, 0, len(records))
				for _, record := range records {
					out = append(out, sessionOutput{AppID: uint32(record.AppID), Name: record.Name, Paused: record.Paused})
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			rendered, err := app.sessionsRenderer(records)
			if err != nil {
				return fmt.Errorf("render sessions: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print sessions as JSON")
	return cmd
}
