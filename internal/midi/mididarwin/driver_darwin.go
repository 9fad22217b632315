//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midisynth/internal/packet"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for CoreMIDI handling.
var (
	ErrUnknownEndpoint     = errors.New("unknown MIDI endpoint")
	ErrMIDIConnectionError = errors.New("error connecting to MIDI source")
	ErrCreateInputPort     = errors.New("error creating input port")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// sourceKey identifies a CoreMIDI source across enumerations. seq separates
// sources whose display properties are identical.
type sourceKey struct {
	name, manufacturer, entity string
	seq                        int
}

type registered struct {
	key    sourceKey
	ep     contracts.Endpoint
	source coremidi.Source
}

// Driver delivers CoreMIDI source packets. Each Listen creates its own input
// port so every connection owns its callback.
type Driver struct {
	logger contracts.Logger
	client coremidi.Client

	mu       sync.Mutex
	registry []registered
	nextEP   contracts.Endpoint
}

// NewDriver creates the CoreMIDI client named in options.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, fmt.Errorf("create CoreMIDI client: %w", err)
	}
	options.Logger.Info("CoreMIDI client successfully created",
		options.Logger.Field().String("clientName", options.CoreMIDIConfig.ClientName))

	return &Driver{logger: options.Logger, client: client, nextEP: 1}, nil
}

// Sources enumerates CoreMIDI sources present now.
func (d *Driver) Sources() ([]contracts.Endpoint, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	seen := make(map[sourceKey]int)
	eps := make([]contracts.Endpoint, 0, len(sources))
	for _, source := range sources {
		entity := source.Entity()
		key := sourceKey{name: source.Name(), manufacturer: entity.Manufacturer(), entity: entity.Name()}
		key.seq = seen[key]
		seen[key]++

		eps = append(eps, d.register(key, source))
	}
	return eps, nil
}

func (d *Driver) register(key sourceKey, source coremidi.Source) contracts.Endpoint {
	for i := range d.registry {
		if d.registry[i].key == key {
			d.registry[i].source = source
			return d.registry[i].ep
		}
	}
	ep := d.nextEP
	d.nextEP++
	d.registry = append(d.registry, registered{key: key, ep: ep, source: source})
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

// Describe returns the source's display properties. go-coremidi only reads
// string properties, so Offline is never set by this driver.
func (d *Driver) Describe(ep contracts.Endpoint) (contracts.DeviceInfo, error) {
	r, err := d.lookup(ep)
	if err != nil {
		return contracts.DeviceInfo{}, err
	}
	return contracts.DeviceInfo{
		Name:         r.key.name,
		Manufacturer: r.key.manufacturer,
		EntityName:   r.key.entity,
	}, nil
}

// listener serializes one port's callbacks with its stop.
type listener struct {
	mu      sync.Mutex
	stopped bool
	framer  packet.Framer
	buf     []byte
	handler contracts.PacketHandler
}

func (l *listener) handleMIDIMessage(_ coremidi.Source, p coremidi.Packet) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	buf, count := l.framer.Frame(l.buf[:0], p.Data)
	l.buf = buf
	if count == 0 {
		return
	}
	l.handler(buf, count)
}

// Listen creates an input port for ep and connects it to the source.
func (d *Driver) Listen(ep contracts.Endpoint, h contracts.PacketHandler) (func() error, error) {
	r, err := d.lookup(ep)
	if err != nil {
		return nil, err
	}

	l := &listener{handler: h}
	port, err := coremidi.NewInputPort(d.client, fmt.Sprintf("Input Port %d", ep), l.handleMIDIMessage)
	if err != nil {
		d.logger.Error(ErrCreateInputPort.Error(), d.logger.Field().Error("error", err))
		return nil, fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}

	var conn internalPortConnection
	conn, err = port.Connect(r.source)
	if err != nil {
		d.logger.Error(ErrMIDIConnectionError.Error(), d.logger.Field().Error("error", err))
		return nil, fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}

	var once sync.Once
	return func() error {
		once.Do(func() {
			l.mu.Lock()
			l.stopped = true
			l.mu.Unlock()
			conn.Disconnect()
		})
		return nil
	}, nil
}

// Close forgets every registered source. CoreMIDI releases the client at
// process exit.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registry = nil
	return nil
}
