package instrument

import (
	"context"
	"testing"
)

func TestNewDisabledReturnsNoop(t *testing.T) {
	// Arrange & Act
	ins, err := New(context.Background(), &Config{Enabled: false})

	// Assert
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if ins.Tracer("t") == nil || ins.Meter("m") == nil {
		t.Fatalf("expected usable noop tracer and meter")
	}
	if err := ins.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
}

func TestNewNilConfigReturnsNoop(t *testing.T) {
	// Arrange & Act
	ins, err := New(context.Background(), nil)

	// Assert
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := ins.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
}

func TestClampRatio(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{in: -0.5, want: 0},
		{in: 0, want: 0},
		{in: 0.25, want: 0.25},
		{in: 1, want: 1},
		{in: 7, want: 1},
	}

	for _, tc := range cases {
		if got := clampRatio(tc.in); got != tc.want {
			t.Fatalf("clampRatio(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
