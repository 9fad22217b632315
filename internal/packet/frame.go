package packet

import "github.com/leandrodaf/midisynth/sdk/contracts"

// Framer splits a raw MIDI 1.0 byte stream into channel messages. It keeps
// running status between calls, so one Framer must be used per source.
// System exclusive data is skipped; real-time bytes are dropped without
// disturbing the message being assembled.
type Framer struct {
	status  byte
	data    [2]byte
	n       int
	inSysEx bool
}

// Frame appends the complete channel messages found in raw to dst as
// RecordSize records and returns the grown buffer and the number of records
// added.
func (f *Framer) Frame(dst []byte, raw []byte) ([]byte, int) {
	count := 0
	for _, b := range raw {
		switch {
		case b >= 0xF8:
			// Real-time; may appear anywhere.
			continue
		case b == 0xF0:
			f.inSysEx = true
			f.status, f.n = 0, 0
			continue
		case b == 0xF7:
			f.inSysEx = false
			continue
		case b >= 0xF0:
			// System common cancels running status.
			f.inSysEx = false
			f.status, f.n = 0, 0
			continue
		case b >= 0x80:
			f.inSysEx = false
			f.status, f.n = b, 0
			continue
		}

		if f.inSysEx || f.status == 0 {
			continue
		}
		f.data[f.n] = b
		f.n++
		if f.n < dataLen(f.status) {
			continue
		}
		var d2 byte
		if f.n == 2 {
			d2 = f.data[1]
		}
		dst = append(dst, f.status, f.data[0], d2)
		count++
		f.n = 0
	}
	return dst, count
}

func dataLen(status byte) int {
	switch contracts.MIDICommand(status & 0xF0) {
	case contracts.ProgramChange, contracts.ChannelPressure:
		return 1
	default:
		return 2
	}
}
