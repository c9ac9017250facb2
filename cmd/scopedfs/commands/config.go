package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/scopedfs/scopedfs/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the scopedfs configuration file",
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Long: `Write a scopedfs configuration file populated with default values.

By default the file is created at $XDG_CONFIG_HOME/scopedfs/config.yaml.
Use --config to specify a custom path.`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the configuration",
	RunE:  runConfigValidate,
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the configuration JSON schema",
	RunE:  runConfigSchema,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configSchemaCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		var err error
		path, err = defaultConfigPath()
		if err != nil {
			return err
		}
	}

	if !configInitForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
	}

	if err := config.Default().WriteFile(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}
	fmt.Printf("Configuration valid (bridge endpoint: %s)\n", cfg.Bridge.Endpoint)
	return nil
}

func runConfigSchema(cmd *cobra.Command, args []string) error {
	schema := jsonschema.Reflect(&config.Config{})
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling schema: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
