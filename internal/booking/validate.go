package booking

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/set-night/timetravel/internal/domain"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Form is the reservation form as entered by the customer.
type Form struct {
	FullName    string                `json:"fullName"`
	Email       string                `json:"email"`
	Destination domain.DestinationKey `json:"destination"`
	StartDate   string                `json:"startDate"`
	EndDate     string                `json:"endDate"`
	Travelers   int                   `json:"travelers"`
	Notes       string                `json:"notes"`
}

// Validate returns field name to error message. An empty map means the form
// can be submitted.
func Validate(f Form) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(f.FullName) == "" {
		errs["fullName"] = "Name required"
	}
	if msg := validateEmail(f.Email); msg != "" {
		errs["email"] = msg
	}
	if msg := validateDestination(f.Destination); msg != "" {
		errs["destination"] = msg
	}

	start, startOK := ParseDate(f.StartDate)
	end, endOK := ParseDate(f.EndDate)
	switch {
	case strings.TrimSpace(f.StartDate) == "":
		errs["startDate"] = "Departure date required"
	case !startOK:
		errs["startDate"] = "Invalid departure date"
	}
	switch {
	case strings.TrimSpace(f.EndDate) == "":
		errs["endDate"] = "Return date required"
	case !endOK:
		errs["endDate"] = "Invalid return date"
	case startOK && !end.After(start):
		errs["endDate"] = "Return date must be after departure"
	}

	// Zero travelers is an unset field and counts as one.
	if f.Travelers != 0 {
		if msg := validateTravelers(f.Travelers); msg != "" {
			errs["travelers"] = msg
		}
	}
	return errs
}

func validateEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" || !emailPattern.MatchString(email) {
		return "Invalid email"
	}
	return ""
}

func validateDestination(key domain.DestinationKey) string {
	if key == "" {
		return "Choose a destination"
	}
	if _, err := Lookup(key); err != nil {
		return "Choose a destination"
	}
	return ""
}

func validateTravelers(n int) string {
	if n < 1 || n > MaxTravelers {
		return fmt.Sprintf("Choose between 1 and %d travelers", MaxTravelers)
	}
	return ""
}
