package contracts

import "time"

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// SynthConfig configures the built-in sound generator and its output sink.
type SynthConfig struct {
	SoundFontPath         string        // Path to the .sf2 file loaded by the generator.
	SampleRate            int           // Output sample rate in Hz.
	BlockSize             int           // Generator render block size.
	MaximumPolyphony      int           // Maximum simultaneous voices.
	EnableReverbAndChorus bool          // Enable the generator's effects.
	BufferSize            time.Duration // Output buffer latency; zero lets the platform decide.
}

// ProgramConfig is the instrument selected on a channel before live data flows.
type ProgramConfig struct {
	Channel byte // 0-15
	Program byte // 0-127
	BankMSB byte // 0-127
	BankLSB byte // 0-127
}

// ClientOptions defines the configuration options for the MIDI router.
type ClientOptions struct {
	Logger         Logger          // Logger for logging events and errors.
	LogLevel       LogLevel        // Level of logging to use.
	LogFilePath    string          // File path for logging if file logging is enabled.
	CoreMIDIConfig *CoreMIDIConfig // Configuration specific to CoreMIDI.
	SynthConfig    *SynthConfig    // Sound generator configuration.
	Driver         Driver          // Overrides the platform MIDI driver.
	Engine         AudioEngine     // Overrides the default audio engine.
	Program        *ProgramConfig  // Program assigned by Router.Start.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the router.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the router.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile directs log output to a file.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithSynthConfig sets the sound generator configuration.
func WithSynthConfig(config SynthConfig) Option {
	return func(opts *ClientOptions) {
		opts.SynthConfig = &config
	}
}

// WithDriver replaces the platform MIDI driver.
func WithDriver(d Driver) Option {
	return func(opts *ClientOptions) {
		opts.Driver = d
	}
}

// WithEngine replaces the default audio engine.
func WithEngine(e AudioEngine) Option {
	return func(opts *ClientOptions) {
		opts.Engine = e
	}
}

// WithDefaultProgram sets the program assigned when the router starts.
func WithDefaultProgram(p ProgramConfig) Option {
	return func(opts *ClientOptions) {
		opts.Program = &p
	}
}
