package models

import (
	"errors"
	"math"
	"testing"
)

func TestValuationInputValidate(t *testing.T) {
	ok := ValuationInput{Address: "Москва, улица Усиевича, 1", RoomNumber: "27", RoomsCount: 2, Area: 52.7}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	bad := []ValuationInput{
		{Address: "  ", RoomsCount: 2, Area: 50},
		{Address: "Москва", RoomsCount: 6, Area: 50},
		{Address: "Москва", RoomsCount: -1, Area: 50},
		{Address: "Москва", RoomsCount: 1, Area: 0},
		{Address: "Москва", RoomsCount: 1, Area: math.NaN()},
	}
	for i, in := range bad {
		err := in.Validate()
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestPassiveInputDefaults(t *testing.T) {
	in := PassiveInput{Address: "Москва", TotalArea: "52.7"}.WithDefaults()
	if in.ValuationType != "sale" {
		t.Fatalf("expected default valuation type sale, got %q", in.ValuationType)
	}
	if err := (PassiveInput{Address: "Москва"}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing totalArea should be rejected, got %v", err)
	}
}

func TestMapRoomsToCount(t *testing.T) {
	cases := map[string]string{
		"Студия": "9",
		"5+":     "5",
		"3":      "3",
		" 1 ":    "1",
		"много":  "",
	}
	for in, want := range cases {
		if got := MapRoomsToCount(in); got != want {
			t.Errorf("MapRoomsToCount(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewMillionRubRangeSwapsReversedBounds(t *testing.T) {
	lo, hi := 45.3, 37.1
	r := NewMillionRubRange(&lo, &hi)
	if *r.Min != 37.1 || *r.Max != 45.3 {
		t.Fatalf("expected swapped bounds, got %v..%v", *r.Min, *r.Max)
	}
	if r.Currency != "RUB" || r.Unit != "million" {
		t.Fatalf("unexpected currency/unit %s/%s", r.Currency, r.Unit)
	}
}
