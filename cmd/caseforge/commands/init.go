package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caseforge/caseforge/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample CaseForge configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/caseforge/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  caseforge init

  # Initialize with custom path
  caseforge init --config /etc/caseforge/config.yaml

  # Force overwrite existing config
  caseforge init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		// Use custom path
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		// Use default path
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Run database migrations with: caseforge migrate")
	fmt.Println("  3. Start the API with: caseforge api")
	fmt.Println("  4. Start the worker with: caseforge worker")

	return nil
}
