package uid

import "testing"

func TestUUIDGenerate(t *testing.T) {
	// Arrange
	gen := NewUUID()

	// Act
	first := gen.Generate()
	second := gen.Generate()

	// Assert
	if len(first) != 36 {
		t.Fatalf("len(id) = %d, want 36", len(first))
	}
	if first == second {
		t.Fatalf("expected unique ids, got %q twice", first)
	}
}

func TestSnowflakeGenerate(t *testing.T) {
	// Arrange
	gen, err := NewSnowflake()
	if err != nil {
		t.Fatalf("NewSnowflake returned error: %v", err)
	}

	// Act
	first := gen.Generate()
	second := gen.Generate()

	// Assert
	if first <= 0 || second <= 0 {
		t.Fatalf("expected positive ids, got %d and %d", first, second)
	}
	if first == second {
		t.Fatalf("expected unique ids, got %d twice", first)
	}
}

func TestObjectIDGenerate(t *testing.T) {
	// Arrange
	gen, err := NewObjectIDGenerator()
	if err != nil {
		t.Fatalf("NewObjectIDGenerator returned error: %v", err)
	}

	// Act
	first := gen.Generate()
	second := gen.Generate()

	// Assert
	if len(first) != 64 {
		t.Fatalf("len(id) = %d, want 64", len(first))
	}
	if first == second {
		t.Fatalf("expected unique ids, got %q twice", first)
	}
}
