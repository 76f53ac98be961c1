package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tdfn00b/tts-extra/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the settings file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(settings)
		if err != nil {
			return fmt.Errorf("unable to marshal settings: %w", err)
		}

		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [PATH]",
	Short: "Write a default settings file",
	Long:  paragraph("\nWrite the default settings to PATH, or to the user config directory when PATH is omitted. Existing files are not overwritten."),
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("unable to locate home directory: %w", err)
			}
			path = filepath.Join(home, ".config", "tts-extra", "settings.yml")
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("settings file already exists: %s", path)
		}

		if err := config.Save(config.Default(), path); err != nil {
			return err
		}

		fmt.Println("Wrote settings file to:", path)
		return nil
	},
}

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage settings presets",
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored presets",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		store, err := config.NewPresetStore("")
		if err != nil {
			return err
		}

		names, err := store.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No presets stored.")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var presetSaveCmd = &cobra.Command{
	Use:   "save NAME",
	Short: "Store the effective settings as a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		store, err := config.NewPresetStore("")
		if err != nil {
			return err
		}
		return store.Save(args[0], settings)
	},
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a stored preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		store, err := config.NewPresetStore("")
		if err != nil {
			return err
		}
		return store.Delete(args[0])
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print a stored preset as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		store, err := config.NewPresetStore("")
		if err != nil {
			return err
		}

		settings, err := store.Load(args[0])
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(settings)
		if err != nil {
			return fmt.Errorf("unable to marshal preset: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd)
	presetCmd.AddCommand(presetListCmd, presetSaveCmd, presetDeleteCmd, presetShowCmd)
}
