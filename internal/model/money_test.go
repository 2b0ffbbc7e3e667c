package model

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("Failed to parse decimal %q: %v", s, err)
	}
	return d
}

func TestCents(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{name: "whole amount", in: "100", want: 10000},
		{name: "two decimals", in: "42.37", want: 4237},
		{name: "one decimal", in: "9.5", want: 950},
		{name: "zero", in: "0.00", want: 0},
		{name: "negative", in: "-12.50", want: -1250},
		{name: "large", in: "99999999.99", want: 9999999999},
		{name: "sub-cent", in: "1.005", wantErr: true},
		{name: "many decimals", in: "0.12345", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cents(mustDec(t, tt.in))
			if tt.wantErr {
				if !errors.Is(err, ErrSubCentPrecision) {
					t.Errorf("Expected ErrSubCentPrecision, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Cents(%s) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Cents(%s) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromCentsRoundTrip(t *testing.T) {
	for _, s := range []string{"0.00", "0.01", "42.37", "15000.00", "-3.99"} {
		d := mustDec(t, s)
		cents, err := Cents(d)
		if err != nil {
			t.Fatalf("Cents(%s) failed: %v", s, err)
		}
		if back := FromCents(cents); !back.Equal(d) {
			t.Errorf("FromCents(Cents(%s)) = %s", s, back)
		}
	}
}

func TestNullCents(t *testing.T) {
	cents, err := NullCents(decimal.NullDecimal{})
	if err != nil {
		t.Fatalf("NullCents on null failed: %v", err)
	}
	if cents.Valid {
		t.Error("Expected invalid cents for null decimal")
	}

	cents, err = NullCents(decimal.NullDecimal{Decimal: mustDec(t, "5000.00"), Valid: true})
	if err != nil {
		t.Fatalf("NullCents failed: %v", err)
	}
	if !cents.Valid || cents.Int64 != 500000 {
		t.Errorf("Expected valid 500000 cents, got %+v", cents)
	}

	if _, err := NullCents(decimal.NullDecimal{Decimal: mustDec(t, "1.001"), Valid: true}); !errors.Is(err, ErrSubCentPrecision) {
		t.Errorf("Expected ErrSubCentPrecision, got %v", err)
	}
}

func TestLimitsEqual(t *testing.T) {
	val := func(s string) decimal.NullDecimal {
		return decimal.NullDecimal{Decimal: mustDec(t, s), Valid: true}
	}

	tests := []struct {
		name string
		a    decimal.NullDecimal
		b    decimal.NullDecimal
		want bool
	}{
		{name: "both null", a: decimal.NullDecimal{}, b: decimal.NullDecimal{}, want: true},
		{name: "null vs value", a: decimal.NullDecimal{}, b: val("100.00"), want: false},
		{name: "value vs null", a: val("100.00"), b: decimal.NullDecimal{}, want: false},
		{name: "equal values", a: val("100.00"), b: val("100.00"), want: true},
		{name: "equal different scale", a: val("100"), b: val("100.00"), want: true},
		{name: "different values", a: val("100.00"), b: val("100.01"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LimitsEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("LimitsEqual = %v, want %v", got, tt.want)
			}
		})
	}
}
