package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrInvalidInput = errors.New("invalid valuation input")

const (
	MaxRoomsCount        = 5
	DefaultValuationType = "sale"
)

// ValuationInput drives the browser flow.
type ValuationInput struct {
	Address    string  `json:"address" yaml:"address"`
	RoomNumber string  `json:"roomNumber" yaml:"room_number"`
	RoomsCount int     `json:"roomsCount" yaml:"rooms_count"`
	Area       float64 `json:"area" yaml:"area"`
}

func (in ValuationInput) Validate() error {
	if strings.TrimSpace(in.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	if in.RoomsCount < 0 || in.RoomsCount > MaxRoomsCount {
		return fmt.Errorf("%w: roomsCount %d out of range 0..%d", ErrInvalidInput, in.RoomsCount, MaxRoomsCount)
	}
	if math.IsNaN(in.Area) || math.IsInf(in.Area, 0) || in.Area <= 0 {
		return fmt.Errorf("%w: area must be positive, got %v", ErrInvalidInput, in.Area)
	}
	return nil
}

// PassiveInput is the query for the pre-rendered calculator page.
type PassiveInput struct {
	Address       string `json:"address" yaml:"address"`
	TotalArea     string `json:"totalArea" yaml:"total_area"`
	RoomsCount    string `json:"roomsCount,omitempty" yaml:"rooms_count"`
	ValuationType string `json:"valuationType" yaml:"valuation_type"`
}

func (in PassiveInput) Validate() error {
	if strings.TrimSpace(in.Address) == "" || strings.TrimSpace(in.TotalArea) == "" {
		return fmt.Errorf("%w: address and totalArea are required", ErrInvalidInput)
	}
	return nil
}

// WithDefaults fills the valuation type when the caller left it empty.
func (in PassiveInput) WithDefaults() PassiveInput {
	if in.ValuationType == "" {
		in.ValuationType = DefaultValuationType
	}
	return in
}

// MapRoomsToCount converts a rooms label from a form into the calculator's
// roomsCount code. Unknown labels map to "".
func MapRoomsToCount(rooms string) string {
	v := strings.ToLower(strings.TrimSpace(rooms))
	switch v {
	case "студия", "studio":
		return "9"
	case "5+", "5plus", "5":
		return "5"
	case "1", "2", "3", "4":
		return v
	}
	return ""
}
