package booking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/set-night/timetravel/internal/domain"
)

type Step int

const (
	StepName Step = iota
	StepEmail
	StepDestination
	StepStartDate
	StepEndDate
	StepTravelers
	StepNotes
	StepConfirm
	StepDone
)

var stepNames = map[Step]string{
	StepName:        "fullName",
	StepEmail:       "email",
	StepDestination: "destination",
	StepStartDate:   "startDate",
	StepEndDate:     "endDate",
	StepTravelers:   "travelers",
	StepNotes:       "notes",
	StepConfirm:     "confirm",
	StepDone:        "done",
}

func (s Step) String() string {
	return stepNames[s]
}

var ErrNotConfirmable = errors.New("reservation is not ready for confirmation")

// FieldError rejects the answer given for one step.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Dialog walks a customer through the reservation form one field at a time.
// A destination preselected when the dialog opens skips its step.
type Dialog struct {
	step Step
	form Form
	now  func() time.Time
}

func NewDialog(preselected domain.DestinationKey, now func() time.Time) *Dialog {
	if now == nil {
		now = time.Now
	}
	d := &Dialog{step: StepName, now: now}
	if _, err := Lookup(preselected); err == nil {
		d.form.Destination = preselected
	}
	return d
}

func (d *Dialog) Step() Step {
	return d.step
}

func (d *Dialog) Form() Form {
	return d.form
}

// Quote prices the form as filled so far.
func (d *Dialog) Quote() Quote {
	dest, err := Lookup(d.form.Destination)
	if err != nil {
		return Quote{Days: Days(d.form.StartDate, d.form.EndDate)}
	}
	return Calculate(dest.PricePerDay, d.form.StartDate, d.form.EndDate, d.form.Travelers)
}

func (d *Dialog) Prompt() string {
	switch d.step {
	case StepName:
		return "What is your full name?"
	case StepEmail:
		return "Which email address should our advisors use?"
	case StepDestination:
		return "Choose your destination."
	case StepStartDate:
		return "Departure date? (YYYY-MM-DD)"
	case StepEndDate:
		return "Return date? (YYYY-MM-DD)"
	case StepTravelers:
		return fmt.Sprintf("How many travelers? (1-%d)", MaxTravelers)
	case StepNotes:
		return "Any special requests? Send \"-\" for none."
	case StepConfirm:
		return "Please confirm your reservation."
	default:
		return ""
	}
}

// Answer records input for the current step and advances. A *FieldError
// leaves the dialog on the same step.
func (d *Dialog) Answer(input string) error {
	input = strings.TrimSpace(input)

	switch d.step {
	case StepName:
		if input == "" {
			return &FieldError{Field: "fullName", Message: "Name required"}
		}
		d.form.FullName = input
	case StepEmail:
		if msg := validateEmail(input); msg != "" {
			return &FieldError{Field: "email", Message: msg}
		}
		d.form.Email = input
	case StepDestination:
		key := matchDestination(input)
		if msg := validateDestination(key); msg != "" {
			return &FieldError{Field: "destination", Message: msg}
		}
		d.form.Destination = key
	case StepStartDate:
		start, ok := ParseDate(input)
		if !ok {
			return &FieldError{Field: "startDate", Message: "Invalid departure date"}
		}
		today := d.now().UTC().Truncate(day)
		if start.Before(today) {
			return &FieldError{Field: "startDate", Message: "Departure date cannot be in the past"}
		}
		d.form.StartDate = input
	case StepEndDate:
		end, ok := ParseDate(input)
		if !ok {
			return &FieldError{Field: "endDate", Message: "Invalid return date"}
		}
		start, _ := ParseDate(d.form.StartDate)
		if !end.After(start) {
			return &FieldError{Field: "endDate", Message: "Return date must be after departure"}
		}
		d.form.EndDate = input
	case StepTravelers:
		n, err := strconv.Atoi(input)
		if err != nil {
			n = 0
		}
		if msg := validateTravelers(n); msg != "" {
			return &FieldError{Field: "travelers", Message: msg}
		}
		d.form.Travelers = n
	case StepNotes:
		if input == "-" {
			input = ""
		}
		d.form.Notes = input
	default:
		return ErrNotConfirmable
	}

	d.advance()
	return nil
}

func (d *Dialog) advance() {
	d.step++
	if d.step == StepDestination && d.form.Destination != "" {
		d.step++
	}
}

// Confirm validates the whole form and finishes the dialog.
func (d *Dialog) Confirm() (Form, error) {
	if d.step != StepConfirm {
		return Form{}, ErrNotConfirmable
	}
	if errs := Validate(d.form); len(errs) > 0 {
		return Form{}, fmt.Errorf("%w: %v", ErrNotConfirmable, errs)
	}
	d.step = StepDone
	return d.form, nil
}

func matchDestination(input string) domain.DestinationKey {
	in := strings.ToLower(input)
	for _, dest := range destinations {
		if in == string(dest.Key) || in == strings.ToLower(dest.Label) {
			return dest.Key
		}
	}
	return domain.DestinationKey(in)
}
