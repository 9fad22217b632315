// Package virtual provides in-process MIDI endpoints. Packets are injected
// with Send and delivered synchronously on the sending goroutine.
package virtual

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midisynth/internal/packet"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// Error definitions for the virtual driver.
var (
	ErrUnknownEndpoint = errors.New("unknown MIDI endpoint")
	ErrClosed          = errors.New("virtual driver closed")
)

type port struct {
	info     contracts.DeviceInfo
	framer   packet.Framer
	handlers map[int]contracts.PacketHandler
}

// Driver is a contracts.Driver whose endpoints live in memory.
type Driver struct {
	mu     sync.RWMutex
	ports  map[contracts.Endpoint]*port
	order  []contracts.Endpoint
	nextEP contracts.Endpoint
	nextID int
	closed bool
}

// New returns an empty driver.
func New() *Driver {
	return &Driver{ports: make(map[contracts.Endpoint]*port), nextEP: 1}
}

// Add creates an endpoint.
func (d *Driver) Add(info contracts.DeviceInfo) contracts.Endpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	ep := d.nextEP
	d.nextEP++
	d.ports[ep] = &port{info: info, handlers: make(map[int]contracts.PacketHandler)}
	d.order = append(d.order, ep)
	return ep
}

// Remove unplugs an endpoint. Its registrations stop receiving packets.
func (d *Driver) Remove(ep contracts.Endpoint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.ports, ep)
	for i, e := range d.order {
		if e == ep {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Sources returns the endpoints in creation order.
func (d *Driver) Sources() ([]contracts.Endpoint, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]contracts.Endpoint{}, d.order...), nil
}

// Describe returns the info the endpoint was added with.
func (d *Driver) Describe(ep contracts.Endpoint) (contracts.DeviceInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.ports[ep]
	if !ok {
		return contracts.DeviceInfo{}, fmt.Errorf("%w: %d", ErrUnknownEndpoint, ep)
	}
	return p.info, nil
}

// Listen registers h on ep.
func (d *Driver) Listen(ep contracts.Endpoint, h contracts.PacketHandler) (func() error, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	p, ok := d.ports[ep]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEndpoint, ep)
	}
	id := d.nextID
	d.nextID++
	p.handlers[id] = h

	var once sync.Once
	return func() error {
		once.Do(func() {
			d.mu.Lock()
			delete(p.handlers, id)
			d.mu.Unlock()
		})
		return nil
	}, nil
}

// Send delivers msgs to ep's listeners as one packet.
func (d *Driver) Send(ep contracts.Endpoint, msgs ...contracts.Message) error {
	buf, count := packet.Pack(msgs...)
	return d.SendPacket(ep, buf, count)
}

// SendPacket delivers a pre-built record buffer to ep's listeners.
func (d *Driver) SendPacket(ep contracts.Endpoint, buf []byte, count int) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.ports[ep]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEndpoint, ep)
	}
	for _, h := range p.handlers {
		h(buf, count)
	}
	return nil
}

// SendRaw frames a raw MIDI byte stream and delivers the resulting messages.
// Running status carries over between calls on the same endpoint.
func (d *Driver) SendRaw(ep contracts.Endpoint, raw []byte) error {
	d.mu.Lock()
	p, ok := d.ports[ep]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownEndpoint, ep)
	}
	buf, count := p.framer.Frame(nil, raw)
	d.mu.Unlock()

	if count == 0 {
		return nil
	}
	return d.SendPacket(ep, buf, count)
}

// Close drops every registration.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for _, p := range d.ports {
		clear(p.handlers)
	}
	return nil
}

var _ contracts.Driver = (*Driver)(nil)
