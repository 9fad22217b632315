package contracts

import "time"

// LogLevel is the minimum severity a Logger emits. The zero value is
// InfoLevel.
type LogLevel int

const (
	InfoLevel LogLevel = iota
	DebugLevel
	ErrorLevel
	WarnLevel
	// FatalLevel messages are written and the process exits.
	FatalLevel
)

// LogDestination selects the sink passed to Logger.SetDestination.
type LogDestination string

const (
	ConsoleLog LogDestination = "console"
	FileLog    LogDestination = "file" // needs a path
)

// Field is a factory for keyed values attached to a log entry. Obtain one
// from Logger.Field; each method returns a new Field holding a single pair.
type Field interface {
	Bool(key string, val bool) Field
	Int(key string, val int) Field
	Float64(key string, val float64) Field
	String(key string, val string) Field
	Time(key string, val time.Time) Field
	Int64(key string, val int64) Field
	Error(key string, val error) Field
	Uint64(key string, val uint64) Field
	Uint8(key string, val uint8) Field
}

// Logger is the structured logger shared by the router, the audio graph
// and the drivers. Implementations must be safe for concurrent use since
// driver callbacks log from their own threads.
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	Field() Field

	SetLevel(level LogLevel)
	// SetDestination redirects output. FileLog takes the file path as its
	// first extra argument; on failure the previous sink stays active.
	SetDestination(dest LogDestination, filePath ...string)
}
