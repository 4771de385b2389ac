package booking

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

var dateLayouts = []string{"2006-01-02", time.RFC3339}

type Quote struct {
	Days  int             `json:"durationDays"`
	Total decimal.Decimal `json:"totalPrice"`
}

// ParseDate accepts a calendar date or an RFC 3339 instant. Calendar dates
// are midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Days counts started days between start and end, never negative. A missing
// or malformed date yields zero.
func Days(start, end string) int {
	s, ok := ParseDate(start)
	if !ok {
		return 0
	}
	e, ok := ParseDate(end)
	if !ok {
		return 0
	}
	diff := e.Sub(s)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(float64(diff) / float64(day)))
}

// Calculate prices a trip: rate per day per traveler times days times
// travelers.
func Calculate(rate decimal.Decimal, start, end string, travelers int) Quote {
	days := Days(start, end)
	if days == 0 || travelers <= 0 {
		return Quote{Days: days, Total: decimal.Zero}
	}
	total := rate.Mul(decimal.NewFromInt(int64(days))).Mul(decimal.NewFromInt(int64(travelers)))
	return Quote{Days: days, Total: total}
}
