package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/oxbot/oxbot/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "oxbot",
	Short: "A desktop agent that writes and runs code for you",
	Long:  `oxbot connects a terminal chat to a local or cloud model that can write code, ask for your approval and run it on this machine.`,
	Run: func(cmd *cobra.Command, args []string) {
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

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution error: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(providerCmd)
}
