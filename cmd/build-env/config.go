package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fastogt/build-env/internal/builder"
	"github.com/fastogt/build-env/internal/userconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage build-env configuration",
	Long: `Manage build-env configuration settings.

Configuration is stored in ~/.build-env/config.toml
($BUILD_ENV_HOME/config.toml, or the file named by $BUILD_ENV_CONFIG).

Available settings:
  use_sudo                      Run the package manager through sudo (true/false)
  prefix                        Default install prefix
  sources.<component>.git       Git repository of a component
  sources.<component>.branch    Branch of a git source
  sources.<component>.archive   HTTPS source archive of a component

Components are json-c, libev, common and fastotv_protocol.

Examples:
  build-env config get use_sudo
  build-env config set prefix /opt/fastotv
  build-env config set sources.libev.archive https://dist.schmorp.de/libev/libev-4.33.tar.gz`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]

		cfg, err := userconfig.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			exitWithCode(ExitGeneral)
		}

		value, ok := cfg.Get(key)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys(os.Stderr)
			exitWithCode(ExitUsage)
		}

		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := args[1]

		cfg, err := userconfig.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			exitWithCode(ExitGeneral)
		}

		if err := setConfigValue(cfg, key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys(os.Stderr)
			exitWithCode(ExitUsage)
		}

		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			exitWithCode(ExitGeneral)
		}

		fmt.Printf("%s = %s\n", key, value)
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the current configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := userconfig.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			exitWithCode(ExitGeneral)
		}
		printConfig(os.Stdout, cfg)
	},
}

// setConfigValue applies key=value and rejects source overrides the
// builder could not use.
func setConfigValue(cfg *userconfig.Config, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	_, err := builder.SourcesFromConfig(cfg.Sources)
	return err
}

func printConfig(w io.Writer, cfg *userconfig.Config) {
	fmt.Fprintf(w, "use_sudo = %t\n", cfg.UseSudo)
	fmt.Fprintf(w, "prefix = %s\n", cfg.Prefix)
	for _, name := range cfg.Components() {
		for _, field := range []string{"git", "branch", "archive"} {
			key := "sources." + name + "." + field
			if v, _ := cfg.Get(key); v != "" {
				fmt.Fprintf(w, "%s = %s\n", key, v)
			}
		}
	}
}

func printAvailableKeys(w io.Writer) {
	keys := userconfig.AvailableKeys()
	// Sort keys for consistent output
	var sortedKeys []string
	for k := range keys {
		sortedKeys = append(sortedKeys, k)
	}
	sort.Strings(sortedKeys)

	for _, k := range sortedKeys {
		fmt.Fprintf(w, "  %s - %s\n", k, keys[k])
	}
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
}
