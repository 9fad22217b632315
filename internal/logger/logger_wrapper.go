package logger

import (
	"os"
	"sync"
	"time"

	"github.com/leandrodaf/midisynth/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements contracts.Logger on top of Uber's zap.
type ZapLogger struct {
	mu     sync.RWMutex
	logger *zap.Logger
	level  zap.AtomicLevel
}

// NewZapLogger creates a logger writing JSON lines to stderr.
func NewZapLogger() contracts.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return &ZapLogger{logger: newCore(level, zapcore.Lock(os.Stderr)), level: level}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() contracts.Logger {
	return &ZapLogger{logger: zap.NewNop(), level: zap.NewAtomicLevelAt(zapcore.FatalLevel)}
}

func newCore(level zap.AtomicLevel, ws zapcore.WriteSyncer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), ws, level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.log(zapcore.InfoLevel, msg, fields...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.log(zapcore.ErrorLevel, msg, fields...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.log(zapcore.DebugLevel, msg, fields...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.log(zapcore.WarnLevel, msg, fields...)
}

// Fatal logs a message at the FATAL level and terminates the application
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.log(zapcore.FatalLevel, msg, fields...)
	os.Exit(1)
}

// Field returns a new instance of Field
func (z *ZapLogger) Field() contracts.Field {
	return zapField{}
}

// SetLevel sets the logging level
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.level.SetLevel(toZapLevel(level))
}

// SetDestination switches output between the console and a file. An
// unopenable file leaves the current destination in place.
func (z *ZapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) {
	var ws zapcore.WriteSyncer
	switch dest {
	case contracts.FileLog:
		if len(filePath) == 0 || filePath[0] == "" {
			z.Warn("file log destination requested without a path")
			return
		}
		f, err := os.OpenFile(filePath[0], os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			z.Error("failed to open log file", z.Field().String("path", filePath[0]), z.Field().Error("error", err))
			return
		}
		ws = zapcore.AddSync(f)
	default:
		ws = zapcore.Lock(os.Stderr)
	}

	z.mu.Lock()
	old := z.logger
	z.logger = newCore(z.level, ws)
	z.mu.Unlock()
	_ = old.Sync()
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.logger.Sync()
}

func (z *ZapLogger) log(level zapcore.Level, msg string, fields ...contracts.Field) {
	z.mu.RLock()
	l := z.logger
	z.mu.RUnlock()

	ce := l.Check(level, msg)
	if ce == nil {
		return
	}
	ce.Write(toZapFields(fields)...)
}

func toZapLevel(level contracts.LogLevel) zapcore.Level {
	switch level {
	case contracts.DebugLevel:
		return zapcore.DebugLevel
	case contracts.WarnLevel:
		return zapcore.WarnLevel
	case contracts.ErrorLevel:
		return zapcore.ErrorLevel
	case contracts.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZapFields(fields []contracts.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if f, ok := field.(zapField); ok && f.key != "" {
			out = append(out, f.field)
		}
	}
	return out
}

// zapField implements contracts.Field by carrying a ready zap.Field.
type zapField struct {
	key   string
	field zap.Field
}

func (zapField) Bool(key string, val bool) contracts.Field {
	return zapField{key, zap.Bool(key, val)}
}

func (zapField) Int(key string, val int) contracts.Field {
	return zapField{key, zap.Int(key, val)}
}

func (zapField) Float64(key string, val float64) contracts.Field {
	return zapField{key, zap.Float64(key, val)}
}

func (zapField) String(key string, val string) contracts.Field {
	return zapField{key, zap.String(key, val)}
}

func (zapField) Time(key string, val time.Time) contracts.Field {
	return zapField{key, zap.Time(key, val)}
}

func (zapField) Int64(key string, val int64) contracts.Field {
	return zapField{key, zap.Int64(key, val)}
}

func (zapField) Error(key string, val error) contracts.Field {
	return zapField{key, zap.NamedError(key, val)}
}

func (zapField) Uint64(key string, val uint64) contracts.Field {
	return zapField{key, zap.Uint64(key, val)}
}

func (zapField) Uint8(key string, val uint8) contracts.Field {
	return zapField{key, zap.Uint8(key, val)}
}
