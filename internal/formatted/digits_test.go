package formatted

import "testing"

func TestSignPrefix(t *testing.T) {
	tests := []struct {
		negative, alwaysSign bool
		want                 string
	}{
		{true, true, "-"},
		{true, false, "-"},
		{false, true, "+"},
		{false, false, ""},
	}
	for _, tt := range tests {
		if got := SignPrefix(tt.negative, tt.alwaysSign); got != tt.want {
			t.Errorf("SignPrefix(%v, %v) = %q, want %q", tt.negative, tt.alwaysSign, got, tt.want)
		}
	}
}

func TestWhole(t *testing.T) {
	if got, ok := Whole(42, 5, false); !ok || got != "   42" {
		t.Errorf("Whole(42, 5, false) = %q, %v, want %q, true", got, ok, "   42")
	}
	if got, ok := Whole(42, 5, true); !ok || got != "00042" {
		t.Errorf("Whole(42, 5, true) = %q, %v, want %q, true", got, ok, "00042")
	}
	if _, ok := Whole(123456, 3, false); ok {
		t.Errorf("Whole(123456, 3, false): want overflow to report false")
	}
}

func TestFixed(t *testing.T) {
	if got, ok := Fixed(3.14159, 8, 3); !ok || got != "   3.142" {
		t.Errorf("Fixed(3.14159, 8, 3) = %q, %v, want %q, true", got, ok, "   3.142")
	}
	if got, ok := Fixed(-1.5, 6, 1); !ok || got != "  -1.5" {
		t.Errorf("Fixed(-1.5, 6, 1) = %q, %v, want %q, true", got, ok, "  -1.5")
	}
	if _, ok := Fixed(314.159, 3, 3); ok {
		t.Errorf("Fixed(314.159, 3, 3): want overflow to report false")
	}
}

func TestFloat(t *testing.T) {
	got, ok := Float(6.022e23, 10, 4, 2)
	if !ok || got != "6.0220e+23" {
		t.Errorf("Float(6.022e23, 10, 4, 2) = %q, %v, want %q, true", got, ok, "6.0220e+23")
	}
	if _, ok := Float(6.022e23, 9, 4, 2); ok {
		t.Errorf("Float(6.022e23, 9, 4, 2): want overflow to report false")
	}
}

func TestBits(t *testing.T) {
	if got, ok := Bits(5, 2, 8); !ok || got != "00000101" {
		t.Errorf("Bits(5, 2, 8) = %q, %v, want %q, true", got, ok, "00000101")
	}
	if got, ok := Bits(255, 16, 4); !ok || got != "00ff" {
		t.Errorf("Bits(255, 16, 4) = %q, %v, want %q, true", got, ok, "00ff")
	}
}
