//go:build !darwin && !windows && cgo

// Package midirtmidi delivers MIDI input through RtMidi (ALSA on Linux).
package midirtmidi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midisynth/internal/packet"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// ErrUnknownEndpoint is returned for endpoints this driver never enumerated.
var ErrUnknownEndpoint = errors.New("unknown MIDI endpoint")

type registered struct {
	name string
	seq  int
	ep   contracts.Endpoint
	in   drivers.In
}

// Driver wraps an rtmididrv driver.
type Driver struct {
	logger contracts.Logger
	drv    *rtmididrv.Driver

	mu       sync.Mutex
	registry []registered
	nextEP   contracts.Endpoint
}

// NewDriver opens the RtMidi backend.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv.New: %w", err)
	}
	options.Logger.Info("RtMidi driver created")
	return &Driver{logger: options.Logger, drv: drv, nextEP: 1}, nil
}

// Sources enumerates RtMidi input ports.
func (d *Driver) Sources() ([]contracts.Endpoint, error) {
	ins, err := d.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	seen := make(map[string]int)
	eps := make([]contracts.Endpoint, 0, len(ins))
	for _, in := range ins {
		name := in.String()
		seq := seen[name]
		seen[name]++
		eps = append(eps, d.register(name, seq, in))
	}
	return eps, nil
}

func (d *Driver) register(name string, seq int, in drivers.In) contracts.Endpoint {
	for i := range d.registry {
		if d.registry[i].name == name && d.registry[i].seq == seq {
			d.registry[i].in = in
			return d.registry[i].ep
		}
	}
	ep := d.nextEP
	d.nextEP++
	d.registry = append(d.registry, registered{name: name, seq: seq, ep: ep, in: in})
	return ep
}

func (d *Driver) lookup(ep contracts.Endpoint) (registered, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.registry {
		if r.ep == ep {
			return r, nil
		}
	}
	return registered{}, fmt.Errorf("%w: %d", ErrUnknownEndpoint, ep)
}

// Describe returns the port name.
func (d *Driver) Describe(ep contracts.Endpoint) (contracts.DeviceInfo, error) {
	r, err := d.lookup(ep)
	if err != nil {
		return contracts.DeviceInfo{}, err
	}
	return contracts.DeviceInfo{Name: r.name, EntityName: r.name}, nil
}

// Listen opens the port and frames every incoming message into a packet.
func (d *Driver) Listen(ep contracts.Endpoint, h contracts.PacketHandler) (func() error, error) {
	r, err := d.lookup(ep)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		stopped bool
		framer  packet.Framer
		buf     []byte
	)
	stopListening, err := midi.ListenTo(r.in, func(msg midi.Message, _ int32) {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		var count int
		buf, count = framer.Frame(buf[:0], msg.Bytes())
		if count > 0 {
			h(buf, count)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("listen to %s: %w", r.name, err)
	}

	var once sync.Once
	var closeErr error
	return func() error {
		once.Do(func() {
			mu.Lock()
			stopped = true
			mu.Unlock()
			stopListening()
			closeErr = r.in.Close()
		})
		return closeErr
	}, nil
}

// Close closes the RtMidi backend and every port it opened.
func (d *Driver) Close() error {
	d.mu.Lock()
	d.registry = nil
	d.mu.Unlock()
	return d.drv.Close()
}
