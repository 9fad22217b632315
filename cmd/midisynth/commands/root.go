package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leandrodaf/midisynth/internal/config"
	"github.com/spf13/cobra"
)

const appName = "midisynth"

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Route MIDI inputs into a SoundFont synthesizer",
	Long: `midisynth connects every MIDI input source to one built-in SoundFont
synthesizer and plays the result on the default audio output.

Configuration is read from ~/.config/midisynth/config.yaml when present.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSynth(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/midisynth/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	addRunFlags(rootCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(configCmd)
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", appName+".yaml")
	}
	return filepath.Join(dir, appName, "config.yaml")
}

// loadConfig returns the explicit config file, the default one if it exists,
// or the built-in defaults.
func loadConfig() (config.File, error) {
	path := cfgFile
	if path == "" {
		path = defaultConfigPath()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return withOverrides(config.Default())
		}
	}
	f, err := config.Load(path)
	if err != nil {
		return f, err
	}
	return withOverrides(f)
}

func withOverrides(f config.File) (config.File, error) {
	if logLevel != "" {
		f.LogLevel = logLevel
	}
	if soundFont != "" {
		f.SoundFont = soundFont
	}
	if err := f.Validate(); err != nil {
		return f, fmt.Errorf("flags: %w", err)
	}
	return f, nil
}
