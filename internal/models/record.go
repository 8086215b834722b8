package models

import "time"

const StatusCompleted = "Completed"

type AgeGroup string

const (
	AgeUnclassified AgeGroup = ""
	Age18To24       AgeGroup = "18-24"
	Age25To34       AgeGroup = "25-34"
	Age35To44       AgeGroup = "35-44"
	Age45To54       AgeGroup = "45-54"
	Age55Plus       AgeGroup = "55+"
)

type Season string

const (
	SeasonUnclassified Season = ""
	Winter             Season = "Winter"
	Spring             Season = "Spring"
	Summer             Season = "Summer"
	Fall               Season = "Fall"
)

// Seasons lists seasons in canonical display order.
var Seasons = []Season{Winter, Spring, Summer, Fall}

type ValueSegment string

const (
	SegmentUnclassified ValueSegment = ""
	SegmentLow          ValueSegment = "Low (<$500)"
	SegmentRegular      ValueSegment = "Regular ($500-2K)"
	SegmentMedium       ValueSegment = "Medium ($2K-5K)"
	SegmentHigh         ValueSegment = "High ($5K+)"
)

// Record is one transaction line as it arrives from a source, typed but not enriched.
type Record struct {
	CustomerID      string
	SKU             string
	ProductType     string
	Quantity        int
	UnitPrice       NullFloat
	TotalPrice      float64
	Rating          NullFloat
	AddOnsPurchased string
	AddOnTotal      float64
	PurchaseDate    time.Time
	PaymentMethod   string
	OrderStatus     string
	ShippingType    string
	Gender          string
	Age             NullFloat
	LoyaltyMember   bool
}

func (r Record) Completed() bool {
	return r.OrderStatus == StatusCompleted
}

// EnrichedRecord carries the derived classification fields. They are assigned
// once against the full dataset and copied verbatim by every filter.
type EnrichedRecord struct {
	Record

	Year      int
	Month     int
	MonthName string
	DayName   string
	Quarter   int

	AgeGroup     AgeGroup
	Season       Season
	ValueSegment ValueSegment
}
