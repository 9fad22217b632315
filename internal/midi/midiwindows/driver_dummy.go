//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// NewDriver reports that winmm is unavailable on this platform.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Warn("winmm driver requested on a non-Windows system")
	return nil, errors.New("winmm MIDI is not available on this platform")
}
