//go:build darwin || windows || !cgo

package midirtmidi

import (
	"errors"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// NewDriver reports that RtMidi is not compiled into this build.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Warn("RtMidi driver requested but not compiled in")
	return nil, errors.New("RtMidi driver is not available in this build (requires cgo on Linux)")
}
