package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/leandrodaf/midisynth/internal/logger"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

type event struct{ channel, command, data1, data2 int32 }

// fakeGenerator is deliberately unsynchronized, like the synthesizer it
// stands in for. overlaps counts calls that ran while another was active.
type fakeGenerator struct {
	busy     atomic.Int32
	overlaps atomic.Int32
	events   []event
	level    float32
}

func (g *fakeGenerator) enter() {
	if g.busy.Add(1) > 1 {
		g.overlaps.Add(1)
	}
	runtime.Gosched()
}

func (g *fakeGenerator) leave() { g.busy.Add(-1) }

func (g *fakeGenerator) ProcessMidiMessage(channel, command, data1, data2 int32) {
	g.enter()
	defer g.leave()
	g.events = append(g.events, event{channel, command, data1, data2})
}

func (g *fakeGenerator) Render(left, right []float32) {
	g.enter()
	defer g.leave()
	for i := range left {
		left[i] = g.level
		right[i] = -g.level
	}
}

// snapshot must only be called once every sender has returned.
func (g *fakeGenerator) snapshot() []event {
	return append([]event(nil), g.events...)
}

type fakeOutput struct {
	src     io.Reader
	playing bool
	closed  bool
	pauses  int
}

func (o *fakeOutput) Play()        { o.playing = true }
func (o *fakeOutput) Pause()       { o.playing = false; o.pauses++ }
func (o *fakeOutput) Close() error { o.closed = true; return nil }

type fakeEngine struct {
	gen    *fakeGenerator
	out    *fakeOutput
	genErr error
	outErr error
	format contracts.SampleFormat
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		gen:    &fakeGenerator{},
		format: contracts.SampleFormat{SampleRate: 48000, ChannelCount: 2, BytesPerSample: 4},
	}
}

func (e *fakeEngine) NewGenerator() (contracts.Generator, error) {
	if e.genErr != nil {
		return nil, e.genErr
	}
	return e.gen, nil
}

func (e *fakeEngine) NewOutput(src io.Reader) (contracts.Output, error) {
	if e.outErr != nil {
		return nil, e.outErr
	}
	e.out = &fakeOutput{src: src}
	return e.out, nil
}

func (e *fakeEngine) SampleFormat() contracts.SampleFormat { return e.format }

func newGraph(t *testing.T, e *fakeEngine) *Graph {
	t.Helper()
	g, err := NewGraph(e, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	return g
}

func TestNewGraph_NilEngine(t *testing.T) {
	if _, err := NewGraph(nil, logger.NewNopLogger()); !errors.Is(err, ErrNoEngine) {
		t.Fatalf("err=%v, want ErrNoEngine", err)
	}
}

func TestGraph_StartDispatches(t *testing.T) {
	e := newFakeEngine()
	g := newGraph(t, e)
	if g.Playing() {
		t.Fatal("new graph must not be playing")
	}

	r := g.Start()
	if !g.Playing() || !e.out.playing {
		t.Fatal("graph not playing after Start")
	}
	r.Receive(0x93, 60, 100)

	got := e.gen.snapshot()
	want := []event{{3, 0x90, 60, 100}}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("events=%+v, want %+v", got, want)
	}
}

func TestGraph_ReceiverSilentOutsidePlaying(t *testing.T) {
	e := newFakeEngine()
	g := newGraph(t, e)

	r := g.Receiver()
	r.Receive(0x90, 60, 100) // before Start

	g.Start()
	g.Stop()
	r.Receive(0x90, 61, 100) // after Stop
	g.Start().Receive(0x90, 62, 100)
	g.Stop()
	r.Receive(0x90, 63, 100)

	got := e.gen.snapshot()
	if len(got) != 1 || got[0].data1 != 62 {
		t.Fatalf("events=%+v, want only note 62", got)
	}
}

func TestGraph_SystemMessagesIgnored(t *testing.T) {
	e := newFakeEngine()
	r := newGraph(t, e).Start()
	r.Receive(0xF8, 0, 0)
	r.Receive(0x40, 1, 2)
	if n := len(e.gen.snapshot()); n != 0 {
		t.Fatalf("got %d generator calls", n)
	}
}

func TestGraph_StopIdempotent(t *testing.T) {
	e := newFakeEngine()
	g := newGraph(t, e)
	g.Stop()
	g.Start()
	g.Stop()
	g.Stop()
	if e.out.pauses != 1 {
		t.Fatalf("pauses=%d, want 1", e.out.pauses)
	}
	if err := g.Close(); err != nil {
		t.Fatal(err)
	}
	if !e.out.closed {
		t.Fatal("output not closed")
	}
}

func TestGraph_SetupFailureIsSilent(t *testing.T) {
	tests := []struct {
		name string
		set  func(*fakeEngine)
		want error
	}{
		{"generator", func(e *fakeEngine) { e.genErr = errors.New("boom") }, ErrGeneratorFailed},
		{"output", func(e *fakeEngine) { e.outErr = errors.New("no device") }, ErrOutputFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newFakeEngine()
			tt.set(e)
			g := newGraph(t, e)
			r := g.Start()
			if r == nil {
				t.Fatal("Start returned nil receiver")
			}
			if g.Playing() {
				t.Fatal("graph playing after failed setup")
			}
			if !errors.Is(g.Err(), tt.want) {
				t.Fatalf("Err()=%v, want %v", g.Err(), tt.want)
			}
			r.Receive(0x90, 60, 100)
			if n := len(e.gen.snapshot()); n != 0 {
				t.Fatalf("got %d generator calls", n)
			}
			g.Stop()
		})
	}
}

func TestGraph_RendererEncodesFloat32(t *testing.T) {
	e := newFakeEngine()
	e.gen.level = 0.5
	newGraph(t, e).Start()

	p := make([]byte, 8*4+3)
	n, err := e.out.src.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != 32 {
		t.Fatalf("n=%d, want 32", n)
	}
	l := math.Float32frombits(binary.LittleEndian.Uint32(p[0:]))
	r := math.Float32frombits(binary.LittleEndian.Uint32(p[4:]))
	if l != 0.5 || r != -0.5 {
		t.Fatalf("l=%v r=%v", l, r)
	}
}

func TestGraph_RendererEncodesInt16(t *testing.T) {
	e := newFakeEngine()
	e.gen.level = 2 // clipped
	e.format = contracts.SampleFormat{SampleRate: 44100, ChannelCount: 2, BytesPerSample: 2}
	newGraph(t, e).Start()

	p := make([]byte, 4)
	if _, err := e.out.src.Read(p); err != nil {
		t.Fatal(err)
	}
	if l := int16(binary.LittleEndian.Uint16(p[0:])); l != math.MaxInt16 {
		t.Fatalf("left=%d", l)
	}
	if r := int16(binary.LittleEndian.Uint16(p[2:])); r != -math.MaxInt16 {
		t.Fatalf("right=%d", r)
	}
}

func TestGraph_ConcurrentReceive(t *testing.T) {
	e := newFakeEngine()
	r := newGraph(t, e).Start()

	const perSender = 500
	var wg sync.WaitGroup
	for s := 0; s < 2; s++ {
		wg.Add(1)
		go func(ch byte) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				v := byte(i % 128)
				r.Receive(0x90|ch, v, v)
			}
		}(byte(s))
	}

	done := make(chan struct{})
	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		p := make([]byte, 64*8)
		for {
			select {
			case <-done:
				return
			default:
			}
			if _, err := e.out.src.Read(p); err != nil {
				t.Errorf("Read: %v", err)
				return
			}
		}
	}()

	wg.Wait()
	close(done)
	<-rendered

	if n := e.gen.overlaps.Load(); n != 0 {
		t.Fatalf("generator entered concurrently %d times", n)
	}

	got := e.gen.snapshot()
	if len(got) != 2*perSender {
		t.Fatalf("got %d events, want %d", len(got), 2*perSender)
	}
	next := map[int32]int{}
	for _, ev := range got {
		if ev.command != 0x90 || ev.data1 != ev.data2 {
			t.Fatalf("corrupted event %+v", ev)
		}
		if want := int32(next[ev.channel] % 128); ev.data1 != want {
			t.Fatalf("channel %d out of order: got %d want %d", ev.channel, ev.data1, want)
		}
		next[ev.channel]++
	}
}
