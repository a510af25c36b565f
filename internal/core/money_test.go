package core

import (
	"encoding/json"
	"testing"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"integer", "150", 15000, false},
		{"dot separator", "12.34", 1234, false},
		{"comma separator", "12,34", 1234, false},
		{"single fractional digit", "10.5", 1050, false},
		{"third decimal rounds down", "12.345", 1234, false},
		{"third decimal rounds up", "12.346", 1235, false},
		{"leading dot", ".50", 50, false},
		{"negative", "-5", -500, false},
		{"zero", "0", 0, false},
		{"whitespace trimmed", "  7.25  ", 725, false},
		{"empty", "", 0, true},
		{"letters", "abc", 0, true},
		{"two separators", "1.2.3", 0, true},
		{"mixed digits", "12a.50", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCents(%q) expected error, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCents(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyDecimal(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{15000, "150"},
		{1050, "10.5"},
		{1234, "12.34"},
		{5, "0.05"},
		{-1234, "-12.34"},
		{0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := (Money{Cents: tt.cents}).Decimal(); got != tt.want {
				t.Errorf("Decimal() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	in := Money{Cents: 1050}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(data) != "10.5" {
		t.Errorf("Marshal = %s, want 10.5", data)
	}

	var out Money
	if err := json.Unmarshal([]byte("150"), &out); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if out.Cents != 15000 {
		t.Errorf("Unmarshal(150) = %d cents, want 15000", out.Cents)
	}

	if err := json.Unmarshal([]byte(`"12.34"`), &out); err != nil {
		t.Fatalf("Unmarshal string error = %v", err)
	}
	if out.Cents != 1234 {
		t.Errorf("Unmarshal(\"12.34\") = %d cents, want 1234", out.Cents)
	}
}
