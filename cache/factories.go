package cache

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// NoOpLogger is a logger that does nothing.
type NoOpLogger struct{}

// Debug logs a debug message (no-op).
func (n *NoOpLogger) Debug(msg string, args ...any) {}

// Info logs an info message (no-op).
func (n *NoOpLogger) Info(msg string, args ...any) {}

// Warn logs a warning message (no-op).
func (n *NoOpLogger) Warn(msg string, args ...any) {}

// Error logs an error message (no-op).
func (n *NoOpLogger) Error(msg string, args ...any) {}

// NewNoOpLogger creates a new no-op logger.
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}

// ZapLogger adapts a zap.SugaredLogger to the Logger interface.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps a zap logger. The args of every call are treated as
// alternating key/value pairs, matching zap's sugared API.
func NewZapLogger(logger *zap.Logger) Logger {
	return &ZapLogger{sugar: logger.Sugar()}
}

// Debug logs a debug message.
func (zl *ZapLogger) Debug(msg string, args ...any) {
	zl.sugar.Debugw(msg, args...)
}

// Info logs an info message.
func (zl *ZapLogger) Info(msg string, args ...any) {
	zl.sugar.Infow(msg, args...)
}

// Warn logs a warning message.
func (zl *ZapLogger) Warn(msg string, args ...any) {
	zl.sugar.Warnw(msg, args...)
}

// Error logs an error message.
func (zl *ZapLogger) Error(msg string, args ...any) {
	zl.sugar.Errorw(msg, args...)
}

// JSONMarshaller serializes values with encoding/json.
type JSONMarshaller struct{}

// Marshal serializes a value to JSON.
func (jm *JSONMarshaller) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal deserializes a value from JSON.
func (jm *JSONMarshaller) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// NewJSONMarshaller creates a new JSON marshaller.
func NewJSONMarshaller() Marshaller {
	return &JSONMarshaller{}
}

// MsgpackMarshaller serializes values with msgpack. Smaller payloads
// than JSON; use when the shared tier holds large values.
type MsgpackMarshaller struct{}

// Marshal serializes a value to msgpack.
func (mm *MsgpackMarshaller) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal deserializes a value from msgpack.
func (mm *MsgpackMarshaller) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

// NewMsgpackMarshaller creates a new msgpack marshaller.
func NewMsgpackMarshaller() Marshaller {
	return &MsgpackMarshaller{}
}

// NewMarshaller returns the marshaller for a serialization format name.
func NewMarshaller(format string) (Marshaller, error) {
	switch format {
	case "", "json":
		return NewJSONMarshaller(), nil
	case "msgpack":
		return NewMsgpackMarshaller(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported serialization format %q", ErrInvalidConfig, format)
	}
}

// factoryFor builds the local-tier factory for one namespace's settings.
func factoryFor(nc NamespaceConfig) LocalCacheFactory {
	if nc.Policy == PolicyLFU {
		return NewLFUCacheFactory(nc.MaxEntries, nc.LocalTTL)
	}
	return NewLRUCacheFactory(nc.MaxEntries, nc.LocalTTL)
}
