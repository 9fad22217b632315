package midi

import (
	"github.com/leandrodaf/midisynth/internal/audio/melty"
	"github.com/leandrodaf/midisynth/internal/logger"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
func applyDefaultOptions(opts ...contracts.Option) contracts.ClientOptions {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}

	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "GO MIDI Synth"}
	}
	if options.SynthConfig == nil {
		options.SynthConfig = &contracts.SynthConfig{}
	}
	if options.Engine == nil {
		options.Engine = melty.New(*options.SynthConfig)
	}
	if options.Program == nil {
		options.Program = &contracts.ProgramConfig{}
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options
}
