package cmd

import (
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/oxbot/oxbot/internal/config"
	"github.com/oxbot/oxbot/internal/provider"
)

var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Manage model providers",
	Long:  `Inspect and edit the local and cloud provider slots.`,
}

var listProvidersCmd = &cobra.Command{
	Use:   "list",
	Short: "List both provider slots",
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}

		active := settings.ActiveProvider()
		fmt.Printf("Active provider: %s\n\n", active)
		for _, name := range []string{provider.KeyLocal, provider.KeyCloud} {
			marker := ""
			if name == active {
				marker = " (active)"
			}
			fmt.Printf("  %s%s\n", name, marker)
			fmt.Printf("    Endpoint: %s\n", settings.ProviderEndpoint(name))
			fmt.Printf("    Model: %s\n", settings.ProviderModel(name))
			hasKey := "No"
			if k := settings.ProviderAPIKey(name); k != "" && k != provider.PlaceholderAPIKey {
				hasKey = "Yes"
			}
			fmt.Printf("    API Key: %s\n", hasKey)
			fmt.Println()
		}
	},
}

var editProviderCmd = &cobra.Command{
	Use:   "edit [local|cloud]",
	Short: "Edit a provider slot",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}

		var name string
		if len(args) > 0 {
			name = args[0]
		} else {
			prompt := promptui.Select{
				Label: "Select provider to edit",
				Items: []string{provider.KeyLocal, provider.KeyCloud},
			}
			_, name, err = prompt.Run()
			if err != nil {
				log.Fatalf("Selection failed: %v", err)
			}
		}
		if name != provider.KeyLocal && name != provider.KeyCloud {
			log.Fatalf("Unknown provider '%s', expected local or cloud", name)
		}

		endpointPrompt := promptui.Prompt{
			Label:   "Endpoint",
			Default: settings.ProviderEndpoint(name),
		}
		endpoint, err := endpointPrompt.Run()
		if err != nil {
			log.Fatalf("Prompt failed: %v", err)
		}

		modelPrompt := promptui.Prompt{
			Label:   "Model",
			Default: settings.ProviderModel(name),
		}
		model, err := modelPrompt.Run()
		if err != nil {
			log.Fatalf("Prompt failed: %v", err)
		}

		apiKeyPrompt := promptui.Prompt{
			Label:   "API Key",
			Default: settings.ProviderAPIKey(name),
			Mask:    '*',
		}
		apiKey, err := apiKeyPrompt.Run()
		if err != nil {
			log.Fatalf("Prompt failed: %v", err)
		}

		for path, value := range map[string]interface{}{
			"providers." + name + ".endpoint": endpoint,
			"providers." + name + ".model":    model,
			"providers." + name + ".api_key":  apiKey,
		} {
			if err := settings.Set(path, value); err != nil {
				log.Fatalf("Failed to save settings: %v", err)
			}
		}

		fmt.Printf("Provider '%s' updated successfully!\n", name)
	},
}

var switchProviderCmd = &cobra.Command{
	Use:   "switch [local|cloud]",
	Short: "Switch the active provider",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}

		var name string
		if len(args) > 0 {
			name = args[0]
		} else {
			prompt := promptui.Select{
				Label: "Select provider",
				Items: []string{provider.KeyLocal, provider.KeyCloud},
			}
			_, name, err = prompt.Run()
			if err != nil {
				log.Fatalf("Selection failed: %v", err)
			}
		}
		if name != provider.KeyLocal && name != provider.KeyCloud {
			log.Fatalf("Unknown provider '%s', expected local or cloud", name)
		}

		if err := settings.Set("active_provider", name); err != nil {
			log.Fatalf("Failed to save settings: %v", err)
		}
		fmt.Printf("Switched to provider '%s'\n", name)
	},
}

var resetSettingsCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset all settings to defaults",
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}

		confirmPrompt := promptui.Prompt{
			Label:     "Reset all settings to defaults? (y/N)",
			IsConfirm: true,
		}
		if _, err := confirmPrompt.Run(); err != nil {
			fmt.Println("Reset cancelled")
			return
		}

		if err := settings.ResetToDefaults(); err != nil {
			log.Fatalf("Failed to reset settings: %v", err)
		}
		fmt.Println("Settings reset to defaults")
	},
}

func init() {
	providerCmd.AddCommand(listProvidersCmd)
	providerCmd.AddCommand(editProviderCmd)
	providerCmd.AddCommand(switchProviderCmd)
	providerCmd.AddCommand(resetSettingsCmd)
}
