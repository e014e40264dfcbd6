package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/oxbot/oxbot/internal/app"
	"github.com/oxbot/oxbot/internal/config"
	"github.com/oxbot/oxbot/internal/provider"
)

var useCmd = &cobra.Command{
	Use:   "use [local|cloud]",
	Short: "Switch provider and start the chat app",
	Long:  `Switch the active provider and immediately start the chat application.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		if name != provider.KeyLocal && name != provider.KeyCloud {
			log.Fatalf("Unknown provider '%s', expected local or cloud", name)
		}

		settings, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}
		if err := settings.Set("active_provider", name); err != nil {
			log.Fatalf("Failed to save settings: %v", err)
		}

		application, err := app.NewApplication()
		if err != nil {
			log.Fatalf("Failed to create application: %v", err)
		}
		defer application.Stop()

		if err := application.Start(); err != nil {
			log.Fatalf("Application error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(useCmd)
}
