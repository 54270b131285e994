package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain decimal", input: "12.34", want: 1234},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "integer only", input: "7", want: 700},
		{name: "one fraction digit", input: "3.5", want: 350},
		{name: "third digit rounds down", input: "12.344", want: 1234},
		{name: "third digit rounds up", input: "12.346", want: 1235},
		{name: "leading dot", input: ".99", want: 99},
		{name: "whitespace trimmed", input: "  4.20  ", want: 420},
		{name: "empty", input: "", wantErr: true},
		{name: "negative rejected", input: "-5.00", wantErr: true},
		{name: "explicit plus rejected", input: "+5.00", wantErr: true},
		{name: "zero rejected", input: "0.00", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
		{name: "letters", input: "12a.30", wantErr: true},
		{name: "overflow", input: "99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDecimalToCents(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	// Round-tripping major-unit input through cents must not drift beyond
	// cent rounding.
	inputs := []string{"0.01", "1.00", "19.99", "150.00", "12345.67"}
	for _, in := range inputs {
		cents, err := ParseDecimalToCents(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if out := FormatCents(cents); out != in {
			t.Errorf("round trip %q -> %d -> %q", in, cents, out)
		}
	}
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{5, "0.05"},
		{100, "1.00"},
		{-250, "-2.50"},
		{0, "0.00"},
	}
	for _, tt := range tests {
		if got := FormatCents(tt.cents); got != tt.want {
			t.Errorf("FormatCents(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 100}).Validate(); err != nil {
		t.Errorf("positive amount should validate: %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Error("zero amount should not validate")
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Error("negative amount should not validate")
	}
}
