package clock

import (
	"testing"
	"time"
)

func TestFixedNow(t *testing.T) {
	// Arrange
	instant := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clk := NewFixed(instant)

	// Act & Assert
	if got := clk.Now(); !got.Equal(instant) {
		t.Fatalf("Now() = %v, want %v", got, instant)
	}
}

func TestUnixNano(t *testing.T) {
	// Arrange
	instant := time.Unix(0, 100)

	// Act
	got := UnixNano(NewFixed(instant))

	// Assert
	if got != 100 {
		t.Fatalf("UnixNano = %d, want 100", got)
	}
}

func TestUnixNanoClampsPreEpoch(t *testing.T) {
	// Arrange
	instant := time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)

	// Act
	got := UnixNano(NewFixed(instant))

	// Assert
	if got != 0 {
		t.Fatalf("UnixNano = %d, want 0 for pre-epoch time", got)
	}
}

func TestTimeClockerNow(t *testing.T) {
	// Arrange
	clk := New()
	before := time.Now().Add(-time.Second)

	// Act
	got := clk.Now()

	// Assert
	if got.Before(before) {
		t.Fatalf("Now() = %v, want a recent time", got)
	}
}
