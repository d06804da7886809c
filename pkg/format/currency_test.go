package format

import "testing"

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected string
	}{
		{"Small positive", 35, "$35.00"},
		{"Thousands", 1234.5, "$1,234.50"},
		{"Millions", 1234567.891, "$1,234,567.89"},
		{"Negative", -1234.56, "-$1,234.56"},
		{"Zero", 0, "$0.00"},
		{"Rounds to zero", -0.001, "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Currency(tt.amount); got != tt.expected {
				t.Errorf("Currency(%v) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestSignedCurrency(t *testing.T) {
	if got := SignedCurrency(12); got != "+$12.00" {
		t.Errorf("SignedCurrency(12) = %q", got)
	}
	if got := SignedCurrency(-3.5); got != "-$3.50" {
		t.Errorf("SignedCurrency(-3.5) = %q", got)
	}
	if got := SignedCurrency(0); got != "$0.00" {
		t.Errorf("SignedCurrency(0) = %q", got)
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(50.0 / 115.0 * 100); got != "43.5%" {
		t.Errorf("Percent() = %q, expected 43.5%%", got)
	}
	if got := Percent(0); got != "0.0%" {
		t.Errorf("Percent(0) = %q", got)
	}
}

func TestLocalAmount(t *testing.T) {
	if got := LocalAmount(688.4, "INR", "en-IN"); got != "INR 688" {
		t.Errorf("LocalAmount() = %q, expected INR 688", got)
	}
	if got := LocalAmount(6880, "EUR", "not a locale!"); got != "EUR 6,880" {
		t.Errorf("LocalAmount() with bad locale = %q, expected EUR 6,880", got)
	}
}
