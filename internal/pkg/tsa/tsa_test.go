package tsa

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestFakeTimestamp(t *testing.T) {
	// Arrange
	instant := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fake := Fake{T: instant}

	// Act
	token, err := fake.Timestamp(context.Background(), strings.NewReader("payload"))

	// Assert
	if err != nil {
		t.Fatalf("Timestamp returned error: %v", err)
	}
	if string(token) != "2024-05-01T12:00:00Z" {
		t.Fatalf("token = %q", token)
	}
}

func TestNewRFC3161TimestamperDefaultsTimeout(t *testing.T) {
	// Arrange & Act
	ts := NewRFC3161Timestamper("https://tsa.example", 0)

	// Assert
	if ts.client.Timeout != 10*time.Second {
		t.Fatalf("timeout = %v, want 10s default", ts.client.Timeout)
	}
}
