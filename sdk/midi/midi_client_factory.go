package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/midisynth/internal/midi/mididarwin"
	"github.com/leandrodaf/midisynth/internal/midi/midirtmidi"
	"github.com/leandrodaf/midisynth/internal/midi/midiwindows"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// ErrUnsupportedOS is returned when no MIDI driver exists for the operating system.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// driverInitializers maps OS names to the corresponding MIDI driver.
var driverInitializers = map[string]func(*contracts.ClientOptions) (contracts.Driver, error){
	"darwin":  mididarwin.NewDriver,  // CoreMIDI.
	"windows": midiwindows.NewDriver, // winmm.
	"linux":   midirtmidi.NewDriver,  // RtMidi over ALSA.
}

// NewDriver returns the MIDI driver for the current operating system, or
// ErrUnsupportedOS.
func NewDriver(opts *contracts.ClientOptions) (contracts.Driver, error) {
	if initializer, exists := driverInitializers[runtime.GOOS]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
}
