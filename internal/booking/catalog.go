package booking

import (
	"github.com/set-night/timetravel/internal/domain"
	"github.com/shopspring/decimal"
)

const MaxTravelers = 4

var destinations = []domain.Destination{
	{Key: domain.DestinationParis, Label: "Paris 1889 - Belle Epoque", PricePerDay: decimal.NewFromInt(2000)},
	{Key: domain.DestinationFlorence, Label: "Florence 1504 - Renaissance", PricePerDay: decimal.NewFromInt(2500)},
	{Key: domain.DestinationCretaceous, Label: "Cretaceous Period - 65M Years", PricePerDay: decimal.NewFromInt(7000)},
}

// Destinations returns the catalog in display order.
func Destinations() []domain.Destination {
	return append([]domain.Destination(nil), destinations...)
}

func Lookup(key domain.DestinationKey) (domain.Destination, error) {
	for _, d := range destinations {
		if d.Key == key {
			return d, nil
		}
	}
	return domain.Destination{}, domain.ErrUnknownDestination
}
