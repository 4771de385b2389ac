package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/timetravel/internal/booking"
	"github.com/set-night/timetravel/internal/domain"
)

// BookingStore records reservations. A nil store disables the ledger.
type BookingStore interface {
	Create(ctx context.Context, b *domain.Booking) error
	MarkSubmitted(ctx context.Context, id int64) error
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
}

type Submitter interface {
	Submit(ctx context.Context, s booking.Submission) error
}

// ValidationError carries the field errors of a rejected form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid booking form: %d field(s)", len(e.Fields))
}

type BookingService struct {
	store     BookingStore
	submitter Submitter
}

func NewBookingService(store BookingStore, submitter Submitter) *BookingService {
	return &BookingService{store: store, submitter: submitter}
}

// Quote prices a possibly incomplete form.
func (s *BookingService) Quote(key domain.DestinationKey, start, end string, travelers int) (booking.Quote, error) {
	dest, err := booking.Lookup(key)
	if err != nil {
		return booking.Quote{}, err
	}
	return booking.Calculate(dest.PricePerDay, start, end, travelers), nil
}

// Get looks a booking up by its public reference.
func (s *BookingService) Get(ctx context.Context, reference string) (*domain.Booking, error) {
	if s.store == nil {
		return nil, domain.ErrBookingNotFound
	}
	if _, err := uuid.Parse(reference); err != nil {
		return nil, domain.ErrBookingNotFound
	}
	return s.store.GetByReference(ctx, reference)
}

// Submit validates the form, records it and forwards it to the webhook. A
// webhook failure returns domain.ErrSubmission together with the recorded
// booking so the customer can retry.
func (s *BookingService) Submit(ctx context.Context, f booking.Form) (*domain.Booking, error) {
	if errs := booking.Validate(f); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	if f.Travelers == 0 {
		f.Travelers = 1
	}

	quote, err := s.Quote(f.Destination, f.StartDate, f.EndDate, f.Travelers)
	if err != nil {
		return nil, fmt.Errorf("quote booking: %w", err)
	}

	start, _ := booking.ParseDate(f.StartDate)
	end, _ := booking.ParseDate(f.EndDate)
	b := &domain.Booking{
		Reference:       uuid.NewString(),
		CustomerName:    f.FullName,
		CustomerEmail:   f.Email,
		Destination:     f.Destination,
		StartDate:       start,
		EndDate:         end,
		DurationDays:    quote.Days,
		NumTravelers:    f.Travelers,
		TotalPrice:      quote.Total,
		SpecialRequests: f.Notes,
		CreatedAt:       time.Now().UTC(),
	}

	if s.store != nil {
		if err := s.store.Create(ctx, b); err != nil {
			return nil, fmt.Errorf("record booking: %w", err)
		}
	}

	if s.submitter != nil {
		if err := s.submitter.Submit(ctx, booking.NewSubmission(f, quote)); err != nil {
			slog.Error("booking webhook failed", "reference", b.Reference, "error", err)
			return b, err
		}
		b.Submitted = true

		if s.store != nil && b.ID != 0 {
			if err := s.store.MarkSubmitted(ctx, b.ID); err != nil {
				slog.Error("mark booking submitted", "reference", b.Reference, "error", err)
			}
		}
	}

	slog.Info("booking accepted",
		"reference", b.Reference,
		"submitted", b.Submitted,
		"destination", b.Destination,
		"days", b.DurationDays,
		"travelers", b.NumTravelers,
		"total", b.TotalPrice.String(),
	)
	return b, nil
}
