package id

import "testing"

func TestDegradationLevel_IsValid(t *testing.T) {
	if !L0FullPerception.IsValid() || !L5LatentPresence.IsValid() {
		t.Fatal("expected defined ladder levels to be valid")
	}
	if DegradationLevel(6).IsValid() {
		t.Fatal("expected level 6 to be invalid")
	}
}

func TestDegradationLevel_Max(t *testing.T) {
	if got := L0FullPerception.Max(L2FragmentedPerception); got != L2FragmentedPerception {
		t.Fatalf("Max = %v, want L2FragmentedPerception", got)
	}
	if got := L3SymbolicPresence.Max(L1DistortedPerception); got != L3SymbolicPresence {
		t.Fatalf("Max = %v, want L3SymbolicPresence", got)
	}
}

func TestDegradationLevel_String(t *testing.T) {
	if L0FullPerception.String() != "L0FullPerception" {
		t.Fatalf("String() = %q", L0FullPerception.String())
	}
	if DegradationLevel(99).String() != "Unknown" {
		t.Fatal("expected Unknown for out-of-range level")
	}
}
