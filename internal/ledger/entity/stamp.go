package entity

import "time"

// TimestampedFile is the public record for a stamped file hash.
//
// A zero value means "never stamped": callers receive Timestamp 0 and an
// empty Commitment instead of an error when the hash is unknown.
type TimestampedFile struct {
	Timestamp   uint64
	Commitment  []byte
	Attestation []byte
}

// DefaultTimestampedFile returns the record handed out for unknown hashes.
func DefaultTimestampedFile() TimestampedFile {
	return TimestampedFile{Timestamp: 0, Commitment: []byte{}}
}

// IsZero reports whether the record is the never-stamped default.
func (t TimestampedFile) IsZero() bool {
	return t.Timestamp == 0 && len(t.Commitment) == 0
}

// StampRecord is the stored row form of a stamp, keyed by file hash.
type StampRecord struct {
	FileHash    string
	Timestamp   uint64
	Commitment  []byte
	Attestation []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TimestampedFile converts the stored row to its public form.
func (r StampRecord) TimestampedFile() TimestampedFile {
	return TimestampedFile{
		Timestamp:   r.Timestamp,
		Commitment:  r.Commitment,
		Attestation: r.Attestation,
	}
}

type StampListFilterData struct {
	OrderDirection string // `asc` or `desc`
	Size           int32
	Offset         int64 // rows to skip, never negative
}
