package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/asipanicisco/meraki-migration/internal/ui"
	"github.com/asipanicisco/meraki-migration/internal/wizard"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a migration.yml config file interactively",
	Long: `Walk through source and target tenant details (organizations, networks,
API keys) and generate a config file through an interactive wizard.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := "migration.yml"

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("%s already exists.\n", configPath)
		fmt.Print("Overwrite? [y/N] ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Detect environment
	fmt.Println(ui.Bold("Scanning environment..."))
	detection := wizard.Detect(nil)

	// Run wizard
	answers, err := wizard.Run(detection)
	if err != nil {
		return fmt.Errorf("wizard: %w", err)
	}

	// Generate config
	content, err := wizard.GenerateConfig(*answers)
	if err != nil {
		return fmt.Errorf("generating config: %w", err)
	}

	// Write config file
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	ui.Success(fmt.Sprintf("Created %s", configPath))
	fmt.Println()
	fmt.Printf("Next step: %s\n", ui.Bold("meraki-migration validate"))
	fmt.Printf("           %s\n", ui.Hint("then 'meraki-migration capture' to take a snapshot"))

	return nil
}
