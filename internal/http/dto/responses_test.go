package dto

import "testing"

func TestFormatMinorUnits(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1234, "12.34"},
		{100000, "1000.00"},
		{-250, "-2.50"},
	}
	for _, tt := range tests {
		if got := FormatMinorUnits(tt.in); got != tt.want {
			t.Errorf("FormatMinorUnits(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
