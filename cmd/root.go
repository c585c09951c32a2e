package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configFile string
	app := newApp()

	rootCmd := &cobra.Command{
		Use:           "gidle",
		Short:         "Ghost idler (gidle): keep games idling without running them",
		Long:          "gidle launches one lightweight helper per game so the platform counts the game as running, and keeps track of what is idling across restarts.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return app.load(configFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config.toml (default ~/.config/ghost-idler/config.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(app),
		newSessionsCmd(app),
		newHistoryCmd(app),
		newDoctorCmd(app),
	)

	return rootCmd
}
