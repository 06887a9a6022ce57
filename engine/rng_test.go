package engine

import "testing"

func TestRNG_Deterministic(t *testing.T) {
	rng1 := NewRNG(42)
	rng2 := NewRNG(42)

	for i := 0; i < 20; i++ {
		a := rng1.Next()
		b := rng2.Next()
		if a != b {
			t.Fatalf("draw %d: got %v and %v from same seed", i, a, b)
		}
	}
}

func TestRNG_Next_Range(t *testing.T) {
	rng := NewRNG(99)

	for i := 0; i < 1000; i++ {
		v := rng.Next()
		if v < 0 || v >= 1 {
			t.Fatalf("value out of range [0,1): got %v", v)
		}
	}
}

func TestRNG_Int_Range(t *testing.T) {
	rng := NewRNG(99)

	for i := 0; i < 1000; i++ {
		r := rng.Int(1, 6)
		if r < 1 || r > 6 {
			t.Fatalf("value out of range [1,6]: got %d", r)
		}
	}
}

func TestRNG_Int_ReversedBounds(t *testing.T) {
	rng := NewRNG(7)

	for i := 0; i < 100; i++ {
		r := rng.Int(6, 1)
		if r < 1 || r > 6 {
			t.Fatalf("reversed bounds should behave like [1,6]: got %d", r)
		}
	}
}

func TestRNG_Int_Degenerate(t *testing.T) {
	rng := NewRNG(1)

	for i := 0; i < 10; i++ {
		if r := rng.Int(3, 3); r != 3 {
			t.Fatalf("degenerate range should always be 3, got %d", r)
		}
	}
}

func TestRNG_Roll(t *testing.T) {
	tests := []struct {
		name     string
		notation string
		min, max int
	}{
		{"bare die", "d20", 1, 20},
		{"implicit count", "D6", 1, 6},
		{"multiple dice", "2d6", 2, 12},
		{"positive modifier", "3d8+2", 5, 26},
		{"negative modifier", "2d4-1", 1, 7},
		{"surrounding whitespace", "  1d10 ", 1, 10},
	}

	rng := NewRNG(12345)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				got, err := rng.Roll(tt.notation)
				if err != nil {
					t.Fatalf("Roll(%q) returned error: %v", tt.notation, err)
				}
				if got < tt.min || got > tt.max {
					t.Fatalf("Roll(%q) = %d, want within [%d,%d]", tt.notation, got, tt.min, tt.max)
				}
			}
		})
	}
}

func TestRNG_Roll_Invalid(t *testing.T) {
	invalid := []string{"", "d", "2d", "x3d6", "2d6+", "d0", "0d6"}

	rng := NewRNG(1)
	for _, notation := range invalid {
		if _, err := rng.Roll(notation); err == nil {
			t.Errorf("Roll(%q) should reject invalid notation", notation)
		}
	}
}

func TestRNG_Position_Tracks(t *testing.T) {
	rng := NewRNG(42)

	if rng.Position() != 0 {
		t.Fatalf("expected position 0, got %d", rng.Position())
	}

	rng.Next()
	if rng.Position() != 1 {
		t.Fatalf("expected position 1, got %d", rng.Position())
	}

	rng.Int(1, 6)
	if rng.Position() != 2 {
		t.Fatalf("expected position 2, got %d", rng.Position())
	}

	// 2d6 draws twice.
	if _, err := rng.Roll("2d6"); err != nil {
		t.Fatal(err)
	}
	if rng.Position() != 4 {
		t.Fatalf("expected position 4, got %d", rng.Position())
	}
}

func TestRNG_Restore_MatchesPosition(t *testing.T) {
	// Advance an RNG to position 10 and record the next 5 draws.
	rng := NewRNG(42)
	for i := 0; i < 10; i++ {
		rng.Next()
	}

	var expected [5]int
	for i := range expected {
		expected[i] = rng.Int(1, 6)
	}

	// Restore to position 10 and verify same draws.
	restored := RestoreRNG(42, 10)
	if restored.Position() != 10 {
		t.Fatalf("expected position 10, got %d", restored.Position())
	}

	for i, want := range expected {
		got := restored.Int(1, 6)
		if got != want {
			t.Fatalf("draw %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestRNG_DifferentSeeds_DifferentResults(t *testing.T) {
	rng1 := NewRNG(1)
	rng2 := NewRNG(2)

	// With different seeds, at least some draws should differ.
	differs := false
	for i := 0; i < 20; i++ {
		if rng1.Int(1, 100) != rng2.Int(1, 100) {
			differs = true
			break
		}
	}
	if !differs {
		t.Error("expected different seeds to produce different results")
	}
}
