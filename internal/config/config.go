// Package config loads the YAML configuration of the midisynth command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// File is the on-disk configuration.
type File struct {
	ClientName string `yaml:"client_name"`
	SoundFont  string `yaml:"soundfont"`
	SampleRate int    `yaml:"sample_rate"`
	BlockSize  int    `yaml:"block_size"`
	Polyphony  int    `yaml:"polyphony"`
	Reverb     bool   `yaml:"reverb"`
	Buffer     string `yaml:"buffer,omitempty"` // e.g. "20ms"

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file,omitempty"`

	Channel int `yaml:"channel"`
	Program int `yaml:"program"`
	BankMSB int `yaml:"bank_msb"`
	BankLSB int `yaml:"bank_lsb"`

	// Sources restricts connections to endpoints whose name contains one of
	// these substrings. Empty connects everything.
	Sources []string `yaml:"sources,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	return File{
		ClientName: "GO MIDI Synth",
		SampleRate: 44100,
		BlockSize:  512,
		Polyphony:  64,
		LogLevel:   "info",
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (File, error) {
	f := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return f, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Save writes f to path as YAML, creating the parent directory.
func Save(path string, f File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Validate checks ranges.
func (f File) Validate() error {
	if f.Channel < 0 || f.Channel > 15 {
		return fmt.Errorf("%w: channel %d not in 0-15", ErrInvalid, f.Channel)
	}
	for name, v := range map[string]int{"program": f.Program, "bank_msb": f.BankMSB, "bank_lsb": f.BankLSB} {
		if v < 0 || v > 127 {
			return fmt.Errorf("%w: %s %d not in 0-127", ErrInvalid, name, v)
		}
	}
	if f.SampleRate < 0 || f.BlockSize < 0 || f.Polyphony < 0 {
		return fmt.Errorf("%w: negative synth setting", ErrInvalid)
	}
	if _, err := f.bufferSize(); err != nil {
		return err
	}
	if _, err := ParseLogLevel(f.LogLevel); err != nil {
		return err
	}
	return nil
}

func (f File) bufferSize() (time.Duration, error) {
	if f.Buffer == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(f.Buffer)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: buffer %q", ErrInvalid, f.Buffer)
	}
	return d, nil
}

// ParseLogLevel maps a level name to contracts.LogLevel.
func ParseLogLevel(s string) (contracts.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return contracts.InfoLevel, nil
	case "debug":
		return contracts.DebugLevel, nil
	case "warn", "warning":
		return contracts.WarnLevel, nil
	case "error":
		return contracts.ErrorLevel, nil
	case "fatal":
		return contracts.FatalLevel, nil
	}
	return 0, fmt.Errorf("%w: log level %q", ErrInvalid, s)
}

// Options converts f into router options. f must be valid.
func (f File) Options() []contracts.Option {
	level, _ := ParseLogLevel(f.LogLevel)
	buffer, _ := f.bufferSize()

	opts := []contracts.Option{
		contracts.WithLogLevel(level),
		contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: f.ClientName}),
		contracts.WithSynthConfig(contracts.SynthConfig{
			SoundFontPath:         f.SoundFont,
			SampleRate:            f.SampleRate,
			BlockSize:             f.BlockSize,
			MaximumPolyphony:      f.Polyphony,
			EnableReverbAndChorus: f.Reverb,
			BufferSize:            buffer,
		}),
		contracts.WithDefaultProgram(contracts.ProgramConfig{
			Channel: byte(f.Channel),
			Program: byte(f.Program),
			BankMSB: byte(f.BankMSB),
			BankLSB: byte(f.BankLSB),
		}),
	}
	if f.LogFile != "" {
		opts = append(opts, contracts.WithLogFile(f.LogFile))
	}
	return opts
}

// MatchSource reports whether info passes the Sources filter.
func (f File) MatchSource(info contracts.DeviceInfo) bool {
	if len(f.Sources) == 0 {
		return true
	}
	for _, s := range f.Sources {
		if strings.Contains(strings.ToLower(info.Name), strings.ToLower(s)) {
			return true
		}
	}
	return false
}
