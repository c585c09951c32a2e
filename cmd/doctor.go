package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDoctorCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the helper and SDK library are installed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			ws := app.workspaceManager(zap.NewNop())

			configFile := app.cfg.ConfigFile
			if configFile == "" {
				configFile = "(defaults)"
			}
			_, _ = fmt.Fprintf(out, "config:      %s\n", configFile)
			_, _ = fmt.Fprintf(out, "data dir:    %s\n", app.cfg.DataDir)
			_, _ = fmt.Fprintf(out, "install dir: %s\n", app.cfg.InstallDir)

			for _, dep := range ws.Dependencies() {
				mark := "ok"
				if !dep.Present {
					mark = "missing"
				}
				_, _ = fmt.Fprintf(out, "%-8s %s (%s)\n", mark, dep.Name, dep.Path)
			}

			return ws.CheckDependencies()
		},
	}
}
