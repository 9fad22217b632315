// Package audio owns the sound generator → output processing graph.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// Errors recorded by the graph. Start never returns them; see Graph.Err.
var (
	ErrNoEngine        = errors.New("no audio engine")
	ErrGeneratorFailed = errors.New("error creating generator node")
	ErrOutputFailed    = errors.New("error creating output node")
)

// Graph connects one generator node to one output node. Messages sent through
// its receiver reach the generator only while the graph is playing.
type Graph struct {
	logger contracts.Logger
	engine contracts.AudioEngine
	format contracts.SampleFormat

	lifecycle sync.Mutex // serializes Start, Stop and Close
	genMu     sync.Mutex // guards gen; held for every send and every render
	gen       contracts.Generator
	out       contracts.Output
	playing   atomic.Bool
	err       error

	receiver *generatorReceiver
}

// NewGraph allocates an empty, stopped graph on engine.
func NewGraph(engine contracts.AudioEngine, logger contracts.Logger) (*Graph, error) {
	if engine == nil {
		return nil, ErrNoEngine
	}
	g := &Graph{
		logger: logger,
		engine: engine,
		format: engine.SampleFormat(),
	}
	g.receiver = &generatorReceiver{graph: g}
	return g, nil
}

// Receiver returns the receiver bound to the generator. It can be obtained at
// any time; it drops every message while the graph is not playing.
func (g *Graph) Receiver() contracts.MessageReceiver {
	return g.receiver
}

// Start instantiates the nodes, connects generator to output and starts
// playback. Setup failures leave the graph silent and are reported by Err.
func (g *Graph) Start() contracts.MessageReceiver {
	g.lifecycle.Lock()
	defer g.lifecycle.Unlock()

	if g.playing.Load() {
		return g.receiver
	}

	if g.out == nil {
		if err := g.open(); err != nil {
			g.err = err
			g.logger.Error("Audio graph setup failed; output stays silent", g.logger.Field().Error("error", err))
			return g.receiver
		}
	}

	g.err = nil
	g.out.Play()
	g.playing.Store(true)
	g.logger.Info("Audio graph started",
		g.logger.Field().Int("sampleRate", g.format.SampleRate),
		g.logger.Field().Int("channels", g.format.ChannelCount))
	return g.receiver
}

func (g *Graph) open() error {
	gen, err := g.engine.NewGenerator()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGeneratorFailed, err)
	}

	g.genMu.Lock()
	g.gen = gen
	g.genMu.Unlock()

	out, err := g.engine.NewOutput(&renderer{graph: g, format: g.format})
	if err != nil {
		g.genMu.Lock()
		g.gen = nil
		g.genMu.Unlock()
		return fmt.Errorf("%w: %v", ErrOutputFailed, err)
	}
	g.out = out
	return nil
}

// Stop halts playback. It is idempotent and safe before Start. Once Stop
// returns no further message reaches the generator.
func (g *Graph) Stop() {
	g.lifecycle.Lock()
	defer g.lifecycle.Unlock()
	g.stop()
}

func (g *Graph) stop() {
	g.genMu.Lock()
	wasPlaying := g.playing.Swap(false)
	g.genMu.Unlock()

	if wasPlaying && g.out != nil {
		g.out.Pause()
		g.logger.Info("Audio graph stopped")
	}
}

// Close stops the graph and releases the output node.
func (g *Graph) Close() error {
	g.lifecycle.Lock()
	defer g.lifecycle.Unlock()

	g.stop()
	if g.out == nil {
		return nil
	}
	err := g.out.Close()
	g.out = nil
	g.genMu.Lock()
	g.gen = nil
	g.genMu.Unlock()
	return err
}

// Playing reports whether the graph is running.
func (g *Graph) Playing() bool {
	return g.playing.Load()
}

// Err returns the error of the last failed Start, or nil.
func (g *Graph) Err() error {
	g.lifecycle.Lock()
	defer g.lifecycle.Unlock()
	return g.err
}

// generatorReceiver forwards channel messages into the generator node.
type generatorReceiver struct {
	graph *Graph
}

func (r *generatorReceiver) Receive(status, data1, data2 byte) {
	g := r.graph
	if !g.playing.Load() {
		return
	}
	if status < 0x80 || status >= 0xF0 {
		return
	}

	g.genMu.Lock()
	defer g.genMu.Unlock()
	if !g.playing.Load() || g.gen == nil {
		return
	}
	g.gen.ProcessMidiMessage(int32(status&0x0F), int32(status&0xF0), int32(data1), int32(data2))
}

// renderer is the edge generator → output: the output node pulls interleaved
// PCM from it.
type renderer struct {
	graph       *Graph
	format      contracts.SampleFormat
	left, right []float32
}

func (r *renderer) Read(p []byte) (int, error) {
	channels := r.format.ChannelCount
	if channels <= 0 {
		channels = 2
	}
	width := r.format.BytesPerSample
	if width != 2 {
		width = 4
	}
	frameSize := channels * width
	frames := len(p) / frameSize
	if frames == 0 {
		return 0, nil
	}

	if cap(r.left) < frames {
		r.left = make([]float32, frames)
		r.right = make([]float32, frames)
	}
	left, right := r.left[:frames], r.right[:frames]

	g := r.graph
	g.genMu.Lock()
	if g.gen != nil {
		g.gen.Render(left, right)
	} else {
		clear(left)
		clear(right)
	}
	g.genMu.Unlock()

	off := 0
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			var s float32
			switch {
			case channels == 1:
				s = (left[i] + right[i]) / 2
			case c == 0:
				s = left[i]
			case c == 1:
				s = right[i]
			}
			if width == 4 {
				binary.LittleEndian.PutUint32(p[off:], math.Float32bits(s))
			} else {
				binary.LittleEndian.PutUint16(p[off:], uint16(toInt16(s)))
			}
			off += width
		}
	}
	return off, nil
}

func toInt16(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(s * math.MaxInt16)
}
