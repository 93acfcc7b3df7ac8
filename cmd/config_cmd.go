package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/salescast/internal/config"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

var flagConfigInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&flagConfigInit, "init", false, "Write the effective configuration to the config file")
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("# Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("# Status: loaded")
	} else {
		fmt.Println("# Status: using defaults (no config file)")
	}
	fmt.Printf("# Cache: %s\n\n", config.CachePath(cfg))

	if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if flagConfigInit {
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("\n# Saved to %s\n", config.ConfigPath())
	}
	return nil
}
