package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DestinationKey string

const (
	DestinationParis      DestinationKey = "paris"
	DestinationFlorence   DestinationKey = "florence"
	DestinationCretaceous DestinationKey = "cretaceous"
)

type Destination struct {
	Key         DestinationKey  `json:"key"`
	Label       string          `json:"label"`
	PricePerDay decimal.Decimal `json:"pricePerDay"`
}

// Booking is a reservation request as recorded in the ledger.
type Booking struct {
	ID              int64           `json:"id,omitempty"`
	Reference       string          `json:"reference"`
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	Destination     DestinationKey  `json:"destination"`
	StartDate       time.Time       `json:"startDate"`
	EndDate         time.Time       `json:"endDate"`
	DurationDays    int             `json:"durationDays"`
	NumTravelers    int             `json:"numTravelers"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	SpecialRequests string          `json:"specialRequests"`
	Submitted       bool            `json:"submitted"`
	CreatedAt       time.Time       `json:"createdAt"`
}
