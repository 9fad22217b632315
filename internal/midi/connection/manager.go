// Package connection binds input endpoints to message receivers.
package connection

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midisynth/internal/packet"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// Error definitions for connection handling.
var (
	ErrAlreadyDisposed = errors.New("connection already disposed")
	ErrRegistration    = errors.New("error registering packet handler")
)

// Manager creates connections on top of a driver.
type Manager struct {
	driver contracts.Driver
	logger contracts.Logger
}

// NewManager returns a Manager delivering packets from driver.
func NewManager(driver contracts.Driver, logger contracts.Logger) *Manager {
	return &Manager{driver: driver, logger: logger}
}

// Connection forwards every message decoded from one endpoint's packets to a
// receiver, in packet order.
type Connection struct {
	endpoint contracts.Endpoint
	receiver contracts.MessageReceiver
	logger   contracts.Logger

	// mu is held for reading by every delivery and for writing while
	// disposing, so Dispose waits for in-flight deliveries.
	mu       sync.RWMutex
	disposed bool
	stop     func() error
	err      error
}

// Connect registers a packet handler on ep that forwards to receiver. It
// returns immediately. A registration failure is logged and recorded on the
// returned connection, which then forwards nothing.
func (m *Manager) Connect(ep contracts.Endpoint, receiver contracts.MessageReceiver) *Connection {
	c := &Connection{endpoint: ep, receiver: receiver, logger: m.logger}

	stop, err := m.driver.Listen(ep, c.deliver)
	if err != nil {
		c.err = fmt.Errorf("%w: endpoint %d: %v", ErrRegistration, ep, err)
		m.logger.Warn("MIDI endpoint will not forward messages",
			m.logger.Field().Uint64("endpoint", uint64(ep)),
			m.logger.Field().Error("error", err))
		return c
	}

	c.mu.Lock()
	c.stop = stop
	c.mu.Unlock()

	m.logger.Info("MIDI endpoint connected", m.logger.Field().Uint64("endpoint", uint64(ep)))
	return c
}

// deliver runs on the driver's delivery goroutine.
func (c *Connection) deliver(buf []byte, count int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.disposed {
		return
	}

	it, err := packet.Demux(buf, count)
	if err != nil {
		c.logger.Warn("Dropping MIDI packet",
			c.logger.Field().Uint64("endpoint", uint64(c.endpoint)),
			c.logger.Field().Error("error", err))
		return
	}
	for {
		msg, ok := it.Next()
		if !ok {
			return
		}
		c.logger.Debug("MIDI message",
			c.logger.Field().Uint64("endpoint", uint64(c.endpoint)),
			c.logger.Field().Uint8("status", msg.Status),
			c.logger.Field().Uint8("data1", msg.Data1),
			c.logger.Field().Uint8("data2", msg.Data2))
		c.receiver.Receive(msg.Status, msg.Data1, msg.Data2)
	}
}

// Endpoint returns the bound endpoint.
func (c *Connection) Endpoint() contracts.Endpoint { return c.endpoint }

// Err returns the registration error, if any.
func (c *Connection) Err() error { return c.err }

// Dispose severs the binding and releases the driver registration. After it
// returns the receiver is not called again. A second call returns
// ErrAlreadyDisposed.
func (c *Connection) Dispose() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrAlreadyDisposed
	}
	c.disposed = true
	stop := c.stop
	c.stop = nil
	c.mu.Unlock()

	if stop == nil {
		return nil
	}
	if err := stop(); err != nil {
		return fmt.Errorf("stop endpoint %d: %w", c.endpoint, err)
	}
	c.logger.Info("MIDI endpoint disconnected", c.logger.Field().Uint64("endpoint", uint64(c.endpoint)))
	return nil
}

var _ contracts.Connection = (*Connection)(nil)
