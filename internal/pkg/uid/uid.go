// Package uid provides the ID generators used across the service.
package uid

// NumberID generates unique numeric identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
