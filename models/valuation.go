package models

import "time"

type Meta struct {
	FetchedAt time.Time `json:"fetchedAt"`
}

// Range is a min/max pair sharing currency and unit. Either bound may be nil.
type Range struct {
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Currency string   `json:"currency"`
	Unit     string   `json:"unit"`
}

func NewMillionRubRange(min, max *float64) Range {
	if min != nil && max != nil && *min > *max {
		min, max = max, min
	}
	return Range{Min: min, Max: max, Currency: "RUB", Unit: "million"}
}

type ObjectFacts struct {
	Title      string   `json:"title"`
	Address    string   `json:"address"`
	RoomsLabel string   `json:"roomsLabel"`
	AreaLabel  string   `json:"areaLabel"`
	AreaSqm    *float64 `json:"areaSqm"`
}

type MarketPrice struct {
	AverageRangeText       string   `json:"averageRangeText"`
	AverageRange           Range    `json:"averageRange"`
	AverageDescription     string   `json:"averageDescription"`
	AverageValueMillionRub *float64 `json:"averageValueMillionRub"`
	ChangePercentText      string   `json:"changePercentText"`
	ChangePercent          *float64 `json:"changePercent"`
	ChangeDescription      string   `json:"changeDescription"`
}

type UIState struct {
	HasPreciseFilters bool `json:"hasPreciseFilters"`
}

type SummaryRecord struct {
	Object      ObjectFacts   `json:"object"`
	MarketPrice MarketPrice   `json:"marketPrice"`
	UI          UIState       `json:"ui"`
	AllTestIDs  *AttributeMap `json:"allTestIds"`
	Meta        Meta          `json:"meta"`
}

type HouseRow struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HouseFacts is the typed projection of the "about the house" rows. Each field
// is nil when its row is missing or does not parse.
type HouseFacts struct {
	YearBuilt           *float64 `json:"yearBuilt"`
	HouseType           *string  `json:"houseType"`
	Series              *string  `json:"series"`
	CeilingHeightMeters *float64 `json:"ceilingHeightMeters"`
	GasSupply           *bool    `json:"gasSupply"`
	Heating             *string  `json:"heating"`
	SlabType            *string  `json:"slabType"`
	EntrancesCount      *float64 `json:"entrancesCount"`
	ElevatorsPassenger  *float64 `json:"elevatorsPassenger"`
	ElevatorsFreight    *float64 `json:"elevatorsFreight"`
	ApartmentsCount     *float64 `json:"apartmentsCount"`
	Renovation          *bool    `json:"renovation"`
	Emergency           *bool    `json:"emergency"`
	Playground          *bool    `json:"playground"`
	SportsGround        *bool    `json:"sportsGround"`
}

type HouseRecord struct {
	Title  string     `json:"title"`
	Rows   []HouseRow `json:"rows"`
	Parsed HouseFacts `json:"parsed"`
	Meta   Meta       `json:"meta"`
}

type NearestListingItem struct {
	ID                *string       `json:"id"`
	Title             string        `json:"title"`
	PriceText         string        `json:"priceText"`
	PricePerSqmText   string        `json:"pricePerSqmText"`
	OnCianDaysText    string        `json:"onCianDaysText"`
	PublishedDateText string        `json:"publishedDateText"`
	StatusText        string        `json:"statusText"`
	ImageURL          string        `json:"imageUrl,omitempty"`
	URL               *string       `json:"url"`
	Extra             *AttributeMap `json:"extra"`
}

type NearestListings struct {
	Items []NearestListingItem `json:"items"`
	Meta  struct {
		Total int `json:"total"`
	} `json:"meta"`
}

// RealEstateInfo is the object card read off the report page in the browser flow.
type RealEstateInfo struct {
	Address        string        `json:"address"`
	TotalArea      *float64      `json:"totalArea"`
	RoomsCount     *int          `json:"roomsCount"`
	Price          string        `json:"price,omitempty"`
	PricePerMeter  string        `json:"pricePerMeter,omitempty"`
	EstimatedValue string        `json:"estimatedValue,omitempty"`
	Category       string        `json:"category"`
	Extra          *AttributeMap `json:"extra"`
}

type OfferHistoryItem struct {
	Date          string        `json:"date,omitempty"`
	Price         string        `json:"price,omitempty"`
	PricePerMeter string        `json:"pricePerMeter,omitempty"`
	Source        string        `json:"source,omitempty"`
	Status        string        `json:"status,omitempty"`
	RawText       string        `json:"rawText,omitempty"`
	Index         *int          `json:"index,omitempty"`
	Extra         *AttributeMap `json:"extra"`
}

// ActiveResult is returned by the browser sequencer.
type ActiveResult struct {
	RealEstateInfo RealEstateInfo     `json:"realEstateInfo"`
	OffersHistory  []OfferHistoryItem `json:"offersHistory"`
}

// PassiveResult is returned by the HTTP fetch variant.
type PassiveResult struct {
	URL     string           `json:"url"`
	Summary *SummaryRecord   `json:"summary"`
	House   *HouseRecord     `json:"house"`
	Nearest *NearestListings `json:"nearest"`
}
