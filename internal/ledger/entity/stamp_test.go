package entity

import (
	"bytes"
	"testing"
)

func TestDefaultTimestampedFile(t *testing.T) {
	// Act
	def := DefaultTimestampedFile()

	// Assert
	if def.Timestamp != 0 {
		t.Fatalf("timestamp = %d, want 0", def.Timestamp)
	}
	if def.Commitment == nil || len(def.Commitment) != 0 {
		t.Fatalf("commitment = %v, want empty non-nil slice", def.Commitment)
	}
	if !def.IsZero() {
		t.Fatalf("expected default record to be zero")
	}
}

func TestStampRecordTimestampedFile(t *testing.T) {
	// Arrange
	record := StampRecord{
		FileHash:   "abc",
		Timestamp:  42,
		Commitment: []byte{0x01},
	}

	// Act
	got := record.TimestampedFile()

	// Assert
	if got.Timestamp != 42 || !bytes.Equal(got.Commitment, []byte{0x01}) {
		t.Fatalf("TimestampedFile = %+v", got)
	}
	if got.IsZero() {
		t.Fatalf("expected stamped record to not be zero")
	}
}
