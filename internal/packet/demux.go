// Package packet decodes batched MIDI packet buffers into single messages.
package packet

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// RecordSize is the width of one record in a packet buffer.
const RecordSize = 3

// ErrIncompletePacket is returned when a buffer holds fewer bytes than its
// record count requires.
var ErrIncompletePacket = errors.New("incomplete MIDI packet")

// Iterator walks the messages of one decoded packet buffer in order. It is
// forward-only and not restartable.
type Iterator struct {
	msgs []contracts.Message
	pos  int
}

// Demux decodes count records from buf. The messages are copied out up front,
// so buf may be reused by the caller as soon as Demux returns. Only count
// decides the length; trailing bytes beyond count records are ignored.
func Demux(buf []byte, count int) (*Iterator, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative count %d", ErrIncompletePacket, count)
	}
	if count > len(buf)/RecordSize {
		return nil, fmt.Errorf("%w: %d records in %d bytes", ErrIncompletePacket, count, len(buf))
	}

	msgs := make([]contracts.Message, count)
	for i := range msgs {
		rec := buf[i*RecordSize : i*RecordSize+RecordSize]
		msgs[i] = contracts.Message{Status: rec[0], Data1: rec[1], Data2: rec[2]}
	}
	return &Iterator{msgs: msgs}, nil
}

// Next returns the next message and advances the cursor. ok is false once the
// sequence is exhausted.
func (it *Iterator) Next() (msg contracts.Message, ok bool) {
	if it.pos >= len(it.msgs) {
		return contracts.Message{}, false
	}
	msg = it.msgs[it.pos]
	it.pos++
	return msg, true
}

// Len reports the total number of messages in the sequence.
func (it *Iterator) Len() int { return len(it.msgs) }

// Pack encodes messages into a record buffer suitable for Demux.
func Pack(msgs ...contracts.Message) (buf []byte, count int) {
	buf = make([]byte, 0, len(msgs)*RecordSize)
	for _, m := range msgs {
		buf = append(buf, m.Status, m.Data1, m.Data2)
	}
	return buf, len(msgs)
}
