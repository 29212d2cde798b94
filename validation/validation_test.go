package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestViolations(t *testing.T) {
	v := Violations{}
	Required("name", "  ", v)
	PositiveDecimal("amount", decimal.Zero, v)
	NonNegativeDecimal("stamp", decimal.NewFromInt(-1), v)
	RangeDecimal("vat", decimal.NewFromInt(120), decimal.Zero, decimal.NewFromInt(100), v)
	RangeInt("fuel", 101, 0, 100, v)
	OneOf("category", "food", []string{"fixed", "vehicle", "misc"}, v)
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	NotBefore("end_date", start, start.Add(-time.Hour), v)

	want := map[string]string{
		"name":     "required",
		"amount":   "must_be_positive",
		"stamp":    "must_not_be_negative",
		"vat":      "out_of_range",
		"fuel":     "out_of_range",
		"category": "invalid_choice",
		"end_date": "before_start",
	}
	for f, code := range want {
		if v[f] != code {
			t.Errorf("%s = %q, want %q", f, v[f], code)
		}
	}
	if len(v) != len(want) {
		t.Errorf("got %d violations, want %d", len(v), len(want))
	}

	var target Violations
	if err := v.Err(); !errors.As(err, &target) {
		t.Fatalf("Err() = %v, want Violations", err)
	}
}

func TestViolations_EmptyIsNil(t *testing.T) {
	v := Violations{}
	Required("name", "Clio", v)
	OneOf("category", "misc", []string{"fixed", "misc"}, v)
	RequiredTime("date", time.Now(), v)
	if err := v.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestViolations_ErrorSorted(t *testing.T) {
	v := Violations{"b": "required", "a": "out_of_range"}
	if got, want := v.Error(), "validation failed: a: out_of_range, b: required"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
