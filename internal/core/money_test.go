package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCents int64
		wantErr   bool
	}{
		{name: "dot separator", input: "12.34", wantCents: 1234},
		{name: "comma separator", input: "12,34", wantCents: 1234},
		{name: "integer", input: "5", wantCents: 500},
		{name: "surrounding spaces", input: "  7.50  ", wantCents: 750},
		{name: "zero", input: "0", wantCents: 0},
		{name: "rounds to cent", input: "1.239", wantCents: 124},
		{name: "empty", input: "", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "negative rejected", input: "-1.00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) = %v, want error", tt.input, got)
				}
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("ParseAmount(%q) error = %v, want ErrInvalidAmount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q): %v", tt.input, err)
			}
			if got.Cents != tt.wantCents {
				t.Errorf("ParseAmount(%q) = %d cents, want %d", tt.input, got.Cents, tt.wantCents)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{-50, "-0.50"},
		{0, "0.00"},
		{100000, "1000.00"},
	}
	for _, tt := range tests {
		if got := Cents(tt.cents).String(); got != tt.want {
			t.Errorf("Cents(%d).String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Cents(1234))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "12.34" {
		t.Errorf("marshal = %s, want 12.34", b)
	}

	tests := []struct {
		name      string
		input     string
		wantCents int64
		wantErr   bool
	}{
		{name: "bare number", input: "12.34", wantCents: 1234},
		{name: "quoted string", input: `"7.50"`, wantCents: 750},
		{name: "null", input: "null", wantCents: 0},
		{name: "garbage", input: `"abc"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Money
			err := json.Unmarshal([]byte(tt.input), &m)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("unmarshal %s = %d cents, want error", tt.input, m.Cents)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal %s: %v", tt.input, err)
			}
			if m.Cents != tt.wantCents {
				t.Errorf("unmarshal %s = %d cents, want %d", tt.input, m.Cents, tt.wantCents)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	if got := Cents(1000).Add(Cents(-250)); got.Cents != 750 {
		t.Errorf("Add = %d, want 750", got.Cents)
	}
	if got := Cents(1000).Sub(Cents(250)); got.Cents != 750 {
		t.Errorf("Sub = %d, want 750", got.Cents)
	}
	if !Cents(0).IsZero() || Cents(1).IsZero() {
		t.Error("IsZero misreports")
	}
}
