//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/leandrodaf/midisynth/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type HMIDIIN windows.Handle

// Constants for callback flags
const (
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

// Error definitions for winmm handling.
var (
	ErrUnknownEndpoint = errors.New("unknown MIDI endpoint")
	ErrOpenDevice      = errors.New("error opening MIDI device")
	ErrStartDevice     = errors.New("error starting MIDI device")
)

// Struct representing MIDI device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// Load the winmm.dll library and required functions
var (
	winmm                = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen       = winmm.NewProc("midiInOpen")
	procMidiInStart      = winmm.NewProc("midiInStart")
	procMidiInStop       = winmm.NewProc("midiInStop")
	procMidiInReset      = winmm.NewProc("midiInReset")
	procMidiInClose      = winmm.NewProc("midiInClose")
)

// windows.NewCallback slots are never freed, so a single callback dispatches
// to listeners by the id passed as dwInstance.
var (
	callbackOnce sync.Once
	callback     uintptr

	listenersMu sync.RWMutex
	listeners           = map[uintptr]*listener{}
	nextID      uintptr = 1
)

type deviceKey struct {
	index uint32
	name  string
}

type device struct {
	key  deviceKey
	ep   contracts.Endpoint
	caps midiInCaps
}

// Driver delivers winmm MIDI input.
type Driver struct {
	logger contracts.Logger

	mu       sync.Mutex
	registry []device
	nextEP   contracts.Endpoint
}

// NewDriver creates a winmm driver.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Info("MIDI driver created for Windows")
	return &Driver{logger: options.Logger, nextEP: 1}, nil
}

// Sources lists the winmm input devices present now.
func (d *Driver) Sources() ([]contracts.Endpoint, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	numDevices := uint32(r0)

	d.mu.Lock()
	defer d.mu.Unlock()

	eps := make([]contracts.Endpoint, 0, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			d.logger.Warn("Failed to get information for MIDI device", d.logger.Field().Int("index", int(i)))
			continue
		}
		key := deviceKey{index: i, name: windows.UTF16ToString(caps.szPname[:])}
		eps = append(eps, d.register(key, caps))
	}
	return eps, nil
}

func (d *Driver) register(key deviceKey, caps midiInCaps) contracts.Endpoint {
	for i := range d.registry {
		if d.registry[i].key == key {
			d.registry[i].caps = caps
			return d.registry[i].ep
		}
	}
	ep := d.nextEP
	d.nextEP++
	d.registry = append(d.registry, device{key: key, ep: ep, caps: caps})
	return ep
}

func (d *Driver) lookup(ep contracts.Endpoint) (device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, dev := range d.registry {
		if dev.ep == ep {
			return dev, nil
		}
	}
	return device{}, fmt.Errorf("%w: %d", ErrUnknownEndpoint, ep)
}

// Describe returns the device's product name and ids.
func (d *Driver) Describe(ep contracts.Endpoint) (contracts.DeviceInfo, error) {
	dev, err := d.lookup(ep)
	if err != nil {
		return contracts.DeviceInfo{}, err
	}
	return contracts.DeviceInfo{
		Name:         dev.key.name,
		EntityName:   dev.key.name,
		Manufacturer: fmt.Sprintf("MID: %d PID: %d", dev.caps.wMid, dev.caps.wPid),
	}, nil
}

type listener struct {
	logger  contracts.Logger
	mu      sync.Mutex
	stopped bool
	handler contracts.PacketHandler
	buf     [3]byte
}

// Listen opens the device and starts input. Data arrives on a winmm thread.
func (d *Driver) Listen(ep contracts.Endpoint, h contracts.PacketHandler) (func() error, error) {
	dev, err := d.lookup(ep)
	if err != nil {
		return nil, err
	}

	callbackOnce.Do(func() {
		callback = windows.NewCallback(midiInCallback)
	})

	l := &listener{logger: d.logger, handler: h}
	listenersMu.Lock()
	id := nextID
	nextID++
	listeners[id] = l
	listenersMu.Unlock()

	unregister := func() {
		listenersMu.Lock()
		delete(listeners, id)
		listenersMu.Unlock()
	}

	var handle HMIDIIN
	r1, _, callErr := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&handle)),
		uintptr(dev.key.index),
		callback,
		id,
		uintptr(CALLBACK_FUNCTION|MIDI_IO_STATUS),
	)
	if r1 != 0 {
		unregister()
		return nil, fmt.Errorf("%w %d: %v", ErrOpenDevice, dev.key.index, callErr)
	}

	r1, _, callErr = procMidiInStart.Call(uintptr(handle))
	if r1 != 0 {
		procMidiInClose.Call(uintptr(handle))
		unregister()
		return nil, fmt.Errorf("%w %d: %v", ErrStartDevice, dev.key.index, callErr)
	}

	var once sync.Once
	var stopErr error
	return func() error {
		once.Do(func() {
			l.mu.Lock()
			l.stopped = true
			l.mu.Unlock()

			procMidiInStop.Call(uintptr(handle))
			procMidiInReset.Call(uintptr(handle))
			if r, _, err := procMidiInClose.Call(uintptr(handle)); r != 0 {
				stopErr = fmt.Errorf("close MIDI device %d: %v", dev.key.index, err)
			}
			unregister()
		})
		return stopErr
	}, nil
}

// midiInCallback processes incoming MIDI messages
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	listenersMu.RLock()
	l := listeners[dwInstance]
	listenersMu.RUnlock()
	if l == nil {
		return 0
	}

	switch wMsg {
	case MIM_DATA:
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.stopped {
			return 0
		}
		l.buf[0] = byte(dwParam1 & 0xFF)
		l.buf[1] = byte((dwParam1 >> 8) & 0xFF)
		l.buf[2] = byte((dwParam1 >> 16) & 0xFF)
		if l.buf[0] < 0x80 || l.buf[0] >= 0xF0 {
			return 0
		}
		l.handler(l.buf[:], 1)
	case MIM_OPEN:
		l.logger.Debug("MIDI device opened")
	case MIM_CLOSE:
		l.logger.Debug("MIDI device closed")
	case MIM_ERROR, MIM_LONGERROR:
		l.logger.Error(fmt.Sprintf("MIDI error: msg=0x%X", wMsg))
	case MIM_MOREDATA:
		l.logger.Debug("Received MIM_MOREDATA message; ignored")
	}
	return 0
}

// Close is a no-op; each listener owns its device handle.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registry = nil
	return nil
}
