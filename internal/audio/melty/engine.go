// Package melty is the default audio engine: a SoundFont synthesizer as the
// generator node and the platform's default output device as the sink.
package melty

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

// Defaults applied to a zero SynthConfig.
const (
	DefaultSampleRate       = 44100
	DefaultBlockSize        = 512
	DefaultMaximumPolyphony = 64
)

// ErrNoSoundFont is returned when no SoundFont path is configured.
var ErrNoSoundFont = errors.New("no SoundFont configured")

// Engine creates meltysynth generators and oto players.
type Engine struct {
	cfg contracts.SynthConfig

	loadOnce  sync.Once
	soundFont *meltysynth.SoundFont
	loadErr   error
}

// New returns an engine for cfg with defaults filled in.
func New(cfg contracts.SynthConfig) *Engine {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.MaximumPolyphony <= 0 {
		cfg.MaximumPolyphony = DefaultMaximumPolyphony
	}
	return &Engine{cfg: cfg}
}

// SampleFormat reports stereo float32 at the configured rate.
func (e *Engine) SampleFormat() contracts.SampleFormat {
	return contracts.SampleFormat{SampleRate: e.cfg.SampleRate, ChannelCount: 2, BytesPerSample: 4}
}

func (e *Engine) loadSoundFont() (*meltysynth.SoundFont, error) {
	e.loadOnce.Do(func() {
		if e.cfg.SoundFontPath == "" {
			e.loadErr = ErrNoSoundFont
			return
		}
		f, err := os.Open(e.cfg.SoundFontPath)
		if err != nil {
			e.loadErr = fmt.Errorf("open soundfont %s: %w", e.cfg.SoundFontPath, err)
			return
		}
		defer f.Close()

		sf, err := meltysynth.NewSoundFont(f)
		if err != nil {
			e.loadErr = fmt.Errorf("parse soundfont %s: %w", e.cfg.SoundFontPath, err)
			return
		}
		e.soundFont = sf
	})
	return e.soundFont, e.loadErr
}

// NewGenerator builds a synthesizer over the configured SoundFont.
func (e *Engine) NewGenerator() (contracts.Generator, error) {
	sf, err := e.loadSoundFont()
	if err != nil {
		return nil, err
	}

	settings := meltysynth.NewSynthesizerSettings(int32(e.cfg.SampleRate))
	settings.BlockSize = int32(e.cfg.BlockSize)
	settings.MaximumPolyphony = int32(e.cfg.MaximumPolyphony)
	settings.EnableReverbAndChorus = e.cfg.EnableReverbAndChorus

	synth, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return nil, fmt.Errorf("create synthesizer: %w", err)
	}
	return synth, nil
}

// oto allows a single context per process.
var (
	ctxMu   sync.Mutex
	otoCtx  *oto.Context
	ctxRate int
)

func sharedContext(sampleRate int, bufferSize time.Duration) (*oto.Context, error) {
	ctxMu.Lock()
	defer ctxMu.Unlock()

	if otoCtx != nil {
		if ctxRate != sampleRate {
			return nil, fmt.Errorf("audio context already open at %d Hz", ctxRate)
		}
		return otoCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}
	c, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("create audio context: %w", err)
	}
	<-ready
	otoCtx, ctxRate = c, sampleRate
	return c, nil
}

// NewOutput opens the default output device and returns a player pulling
// from src. The player is created paused.
func (e *Engine) NewOutput(src io.Reader) (contracts.Output, error) {
	c, err := sharedContext(e.cfg.SampleRate, e.cfg.BufferSize)
	if err != nil {
		return nil, err
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("audio context: %w", err)
	}
	return c.NewPlayer(src), nil
}
