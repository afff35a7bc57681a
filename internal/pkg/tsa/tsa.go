// Package tsa integrates RFC 3161 time-stamp authorities.
//
// A Timestamper countersigns a ledger commitment with an external authority,
// producing a token that proves the commitment existed no later than the time
// the authority signed it. The countersignature is advisory: the ledger's own
// contract does not depend on it.
package tsa

import (
	"context"
	"io"
)

// Timestamper obtains a time-stamp token over the contents of a reader.
type Timestamper interface {
	Timestamp(ctx context.Context, r io.Reader) ([]byte, error)
}
