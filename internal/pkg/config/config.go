// Package config abstracts runtime configuration behind a read-only getter
// interface so packages never depend on the concrete loader.
package config

import (
	"io"
	"time"
)

// Config exposes typed accessors over a key/value configuration tree. Keys
// use dot notation ("modules.ledger.store_driver"). Missing keys yield the
// zero value of the requested type.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint16(key string) uint16
	GetUint64(key string) uint64
	GetFloat64(key string) float64

	// GetSecond, GetMinute and GetHour read an integer value and scale it to
	// a duration, so the file stores plain numbers like read_timeout_seconds.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration

	// GetArray reads a list value. A YAML sequence is returned as-is; a plain
	// string is split on commas.
	GetArray(key string) []string

	// GetBinary reads a base64-encoded string value and returns the decoded
	// bytes, or nil when the value is absent or malformed.
	GetBinary(key string) []byte
}
