package tsa

import (
	"context"
	"io"
	"time"
)

// Fake is a Timestamper for tests. It ignores the payload and returns a token
// derived from a fixed time.
type Fake struct {
	T time.Time
}

// Timestamp returns the fixed time formatted as RFC 3339.
func (f Fake) Timestamp(_ context.Context, _ io.Reader) ([]byte, error) {
	return []byte(f.T.Format(time.RFC3339)), nil
}
