package midi

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// Bank select controller numbers.
const (
	BankSelectMSB byte = 0x00
	BankSelectLSB byte = 0x20
)

// Argument errors for AssignProgram.
var (
	ErrInvalidChannel  = errors.New("MIDI channel out of range 0-15")
	ErrInvalidDataByte = errors.New("MIDI data byte out of range 0-127")
)

// AssignProgram selects an instrument on channel by sending, in order, a
// program change followed by bank select MSB and LSB control changes.
// Messages from other sources may interleave at the receiver.
func AssignProgram(r contracts.MessageReceiver, channel, program, bankMSB, bankLSB byte) error {
	if channel > 0x0F {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	for _, v := range []byte{program, bankMSB, bankLSB} {
		if v > 0x7F {
			return fmt.Errorf("%w: %d", ErrInvalidDataByte, v)
		}
	}

	r.Receive(byte(contracts.ProgramChange)|channel, program, 0x00)
	r.Receive(byte(contracts.ControlChange)|channel, BankSelectMSB, bankMSB)
	r.Receive(byte(contracts.ControlChange)|channel, BankSelectLSB, bankLSB)
	return nil
}
