package commands

import (
	"github.com/spf13/cobra"

	"recycle-schedule-backend/internal/fostplus"
)

var (
	settingsURL string
	language    string

	client *fostplus.Client
)

func Execute() error {
	root := &cobra.Command{
		Use:   "recycle-lookup",
		Short: "Query Belgian waste collection schedules from the command line",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = fostplus.NewClient(settingsURL)
			return client.Initialize(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&settingsURL, "settings-url", "", "override the app settings URL used for endpoint discovery")
	root.PersistentFlags().StringVarP(&language, "language", "l", "fr", "language for names (nl, fr, de, en)")

	root.AddCommand(resolveCmd(), collectionsCmd(), fractionsCmd())
	return root.Execute()
}
