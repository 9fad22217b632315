package contracts

// Message is a single MIDI 1.0 channel message of at most three bytes.
// The high nibble of Status is the message type, the low nibble the channel.
type Message struct {
	Status byte
	Data1  byte
	Data2  byte
}

// Command returns the message type (status high nibble).
func (m Message) Command() byte { return m.Status & 0xF0 }

// Channel returns the zero-based channel (status low nibble).
func (m Message) Channel() byte { return m.Status & 0x0F }

// MIDI status commands used by the router.
const (
	NoteOff         MIDICommand = 0x80
	NoteOn          MIDICommand = 0x90
	ControlChange   MIDICommand = 0xB0
	ProgramChange   MIDICommand = 0xC0
	ChannelPressure MIDICommand = 0xD0
	PitchBend       MIDICommand = 0xE0
)

// MIDICommand is the high nibble of a status byte.
type MIDICommand byte

// MessageReceiver accepts decoded MIDI messages. Implementations must be safe
// for concurrent use: every live connection calls Receive from its own
// delivery goroutine.
type MessageReceiver interface {
	Receive(status, data1, data2 byte)
}

// ReceiverFunc adapts an ordinary function to a MessageReceiver.
type ReceiverFunc func(status, data1, data2 byte)

// Receive calls f(status, data1, data2).
func (f ReceiverFunc) Receive(status, data1, data2 byte) { f(status, data1, data2) }

// Endpoint is an opaque handle to one MIDI input port. Only equality is meaningful.
type Endpoint uint64

// DeviceInfo contains display information about a MIDI endpoint.
type DeviceInfo struct {
	Name         string // Endpoint name.
	Manufacturer string // Device manufacturer.
	EntityName   string // Name of the entity to which the endpoint belongs.
	Offline      bool   // Reported offline by the platform; false where the driver cannot tell.
}

// PacketHandler is invoked by a Driver for each arriving packet. buf holds
// count fixed-width records of three bytes and is only valid for the duration
// of the call.
type PacketHandler func(buf []byte, count int)

// Driver enumerates input endpoints and delivers their packets.
type Driver interface {
	// Sources returns a snapshot of the endpoints present now. An empty slice
	// means no devices, not a failure.
	Sources() ([]Endpoint, error)
	// Describe returns display metadata for an endpoint.
	Describe(ep Endpoint) (DeviceInfo, error)
	// Listen registers h for packets arriving on ep. Once stop returns, h is
	// not called again.
	Listen(ep Endpoint, h PacketHandler) (stop func() error, err error)
	// Close releases the driver.
	Close() error
}

// Connection is a live binding of one endpoint to a MessageReceiver.
type Connection interface {
	Endpoint() Endpoint
	// Err reports the registration failure, if any. A failed connection
	// forwards nothing.
	Err() error
	// Dispose severs the binding. A second call returns an error.
	Dispose() error
}
