package hash

import (
	"encoding/hex"
	"errors"
	"testing"
)

func TestKeccak256Sum(t *testing.T) {
	// Arrange
	h := NewKeccak256()
	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{in: "abc", want: "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"},
	}

	for _, tc := range cases {
		// Act
		got := hex.EncodeToString(h.Sum(tc.in))

		// Assert
		if got != tc.want {
			t.Fatalf("Sum(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestKeccak256Verify(t *testing.T) {
	// Arrange
	h := NewKeccak256()
	digest := h.Sum("abc")

	// Act & Assert
	if !h.Verify(digest, "abc") {
		t.Fatalf("expected digest to verify for same input")
	}
	if h.Verify(digest, "abd") {
		t.Fatalf("expected digest to fail verification for different input")
	}
}

func TestSHA256Sum(t *testing.T) {
	// Arrange
	h := NewSHA256()
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

	// Act
	got := hex.EncodeToString(h.Sum("abc"))

	// Assert
	if got != want {
		t.Fatalf("Sum(%q) = %s, want %s", "abc", got, want)
	}
}

func TestNewFromAlgorithm(t *testing.T) {
	// Empty name defaults to keccak256.
	h, err := NewFromAlgorithm("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := h.(*Keccak256); !ok {
		t.Fatalf("expected *Keccak256, got %T", h)
	}

	h, err = NewFromAlgorithm(" SHA256 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := h.(*SHA256); !ok {
		t.Fatalf("expected *SHA256, got %T", h)
	}

	if _, err = NewFromAlgorithm("md5"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("expected ErrUnknownAlgorithm, got %v", err)
	}
}
