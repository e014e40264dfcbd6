package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oxbot/oxbot/internal/automation"
	"github.com/oxbot/oxbot/internal/config"
	"github.com/oxbot/oxbot/internal/logging"
)

var autoCmd = &cobra.Command{
	Use:   "auto ACTION [args...]",
	Short: "Run a single desktop automation action",
	Long: `Run one desktop automation action and print its result. Code blocks
produced in a chat session shell out to this command to drive the desktop;
every action respects the automation.enabled setting and stops when the
mouse sits in the top-left corner of the screen.

Actions: move X Y, click [button] [double], clickat X Y [button] [double],
drag X Y, scroll DX DY, type TEXT, paste TEXT, key KEY [MOD...], hold KEY MS,
windows, activate TITLE, find IMAGE_PATH, pos, screen, info, sleep MS.`,
	Args: cobra.MinimumNArgs(1),
	// Coordinates can be negative, which flag parsing would eat.
	DisableFlagParsing: true,
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}
		logger, err := logging.New(settings.Dir(), settings.LogLevel())
		if err != nil {
			logger = zap.NewNop()
		}

		controller := automation.NewController(automation.NewRobotgoDriver(), logger)
		controller.SetEnabled(settings.AutomationEnabled())
		controller.SetPause(settings.AutomationPause())

		out, err := automation.Run(controller, args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if out != "" {
			fmt.Println(out)
		}
	},
}

func init() {
	rootCmd.AddCommand(autoCmd)
}
