package midi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midisynth/internal/audio"
	"github.com/leandrodaf/midisynth/internal/midi/connection"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	"go.uber.org/multierr"
)

// ErrRouterStopped is returned by operations on a stopped router.
var ErrRouterStopped = errors.New("router stopped")

// Router fans every connected MIDI input into one sound generator.
type Router struct {
	logger  contracts.Logger
	driver  contracts.Driver
	graph   *audio.Graph
	manager *connection.Manager
	program contracts.ProgramConfig

	mu       sync.Mutex
	conns    []*connection.Connection
	stopped  bool
	stopOnce sync.Once
	stopErr  error
}

// NewRouter allocates the audio graph and opens the MIDI driver. The graph is
// not started.
//
// opts ...contracts.Option: A variadic list of option functions to customize the router.
func NewRouter(opts ...contracts.Option) (*Router, error) {
	options := applyDefaultOptions(opts...)

	graph, err := audio.NewGraph(options.Engine, options.Logger)
	if err != nil {
		return nil, fmt.Errorf("allocate audio graph: %w", err)
	}

	driver := options.Driver
	if driver == nil {
		driver, err = NewDriver(&options)
		if err != nil {
			return nil, err
		}
	}

	return &Router{
		logger:  options.Logger,
		driver:  driver,
		graph:   graph,
		manager: connection.NewManager(driver, options.Logger),
		program: *options.Program,
	}, nil
}

// Start starts the audio graph and assigns the configured program to its
// channel. The returned receiver is silent if the graph could not start; see
// GraphErr.
func (r *Router) Start() contracts.MessageReceiver {
	recv := r.graph.Start()
	p := r.program
	if err := AssignProgram(recv, p.Channel, p.Program, p.BankMSB, p.BankLSB); err != nil {
		r.logger.Warn("Default program not assigned", r.logger.Field().Error("error", err))
	}
	return recv
}

// Receiver returns the generator receiver without starting the graph.
func (r *Router) Receiver() contracts.MessageReceiver {
	return r.graph.Receiver()
}

// Playing reports whether the audio graph is running.
func (r *Router) Playing() bool {
	return r.graph.Playing()
}

// GraphErr reports why the last Start left the graph silent, if it did.
func (r *Router) GraphErr() error {
	return r.graph.Err()
}

// Sources returns a snapshot of the available input endpoints.
func (r *Router) Sources() ([]contracts.Endpoint, error) {
	return r.driver.Sources()
}

// Describe returns display metadata for ep.
func (r *Router) Describe(ep contracts.Endpoint) (contracts.DeviceInfo, error) {
	return r.driver.Describe(ep)
}

// Connect binds ep to receiver. It never fails; a connection whose
// registration failed reports it through Err and forwards nothing.
func (r *Router) Connect(ep contracts.Endpoint, receiver contracts.MessageReceiver) (contracts.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil, ErrRouterStopped
	}
	c := r.manager.Connect(ep, receiver)
	r.conns = append(r.conns, c)
	return c, nil
}

// ConnectAll enumerates the sources and connects each one accepted by filter
// to receiver. With a nil filter every source is connected, even one whose
// metadata cannot be read; a filter never sees a source without metadata.
func (r *Router) ConnectAll(receiver contracts.MessageReceiver, filter func(contracts.DeviceInfo) bool) ([]contracts.Connection, error) {
	eps, err := r.driver.Sources()
	if err != nil {
		return nil, err
	}
	if len(eps) == 0 {
		r.logger.Warn("No MIDI sources found")
	}

	conns := make([]contracts.Connection, 0, len(eps))
	for _, ep := range eps {
		info, err := r.driver.Describe(ep)
		if err != nil {
			r.logger.Warn("MIDI source has no metadata",
				r.logger.Field().Uint64("endpoint", uint64(ep)),
				r.logger.Field().Error("error", err))
			if filter != nil {
				continue
			}
			info = contracts.DeviceInfo{}
		}
		if filter != nil && !filter(info) {
			continue
		}
		r.logger.Info("Connecting MIDI source",
			r.logger.Field().Uint64("endpoint", uint64(ep)),
			r.logger.Field().String("name", info.Name),
			r.logger.Field().Bool("offline", info.Offline))

		c, err := r.Connect(ep, receiver)
		if err != nil {
			return conns, err
		}
		conns = append(conns, c)
	}
	return conns, nil
}

// Stop disposes every connection, stops the audio graph and closes the
// driver. Only the first call has an effect.
func (r *Router) Stop() error {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		conns := r.conns
		r.conns = nil
		r.mu.Unlock()

		var err error
		for _, c := range conns {
			if derr := c.Dispose(); derr != nil && !errors.Is(derr, connection.ErrAlreadyDisposed) {
				err = multierr.Append(err, derr)
			}
		}
		err = multierr.Append(err, r.graph.Close())
		err = multierr.Append(err, r.driver.Close())
		r.stopErr = err
		r.logger.Info("MIDI router stopped")
	})
	return r.stopErr
}
