package contracts

import "io"

// Generator is a sound-generating node. It receives single MIDI events and
// renders stereo float samples.
type Generator interface {
	ProcessMidiMessage(channel, command, data1, data2 int32)
	Render(left, right []float32)
}

// Output is an output sink node pulling PCM from its source.
type Output interface {
	Play()
	Pause()
	Close() error
}

// AudioEngine allocates the nodes of an audio processing graph.
type AudioEngine interface {
	// NewGenerator instantiates the generator node.
	NewGenerator() (Generator, error)
	// NewOutput instantiates the output node reading interleaved PCM from src.
	NewOutput(src io.Reader) (Output, error)
	// SampleFormat reports how the output node expects samples to be encoded.
	SampleFormat() SampleFormat
}

// SampleFormat describes the interleaved PCM layout expected by an Output.
type SampleFormat struct {
	SampleRate   int
	ChannelCount int
	// BytesPerSample is 4 for float32 little endian, 2 for int16 little endian.
	BytesPerSample int
}
