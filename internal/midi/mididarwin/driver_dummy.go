//go:build !darwin
// +build !darwin

package mididarwin

import (
	"errors"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// NewDriver reports that CoreMIDI is unavailable on this platform.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Warn("CoreMIDI driver requested on a non-macOS system")
	return nil, errors.New("CoreMIDI is not available on this platform")
}
