package service

import (
	"context"
	"errors"
	"testing"

	"github.com/set-night/timetravel/internal/booking"
	"github.com/set-night/timetravel/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookingStore struct {
	created   []*domain.Booking
	submitted []int64
	err       error
}

func (f *fakeBookingStore) Create(ctx context.Context, b *domain.Booking) error {
	if f.err != nil {
		return f.err
	}
	b.ID = int64(len(f.created) + 1)
	f.created = append(f.created, b)
	return nil
}

func (f *fakeBookingStore) MarkSubmitted(ctx context.Context, id int64) error {
	f.submitted = append(f.submitted, id)
	return nil
}

type fakeSubmitter struct {
	got []booking.Submission
	err error
}

func (f *fakeSubmitter) Submit(ctx context.Context, s booking.Submission) error {
	f.got = append(f.got, s)
	return f.err
}

func (f *fakeBookingStore) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	for _, b := range f.created {
		if b.Reference == reference {
			return b, nil
		}
	}
	return nil, domain.ErrBookingNotFound
}

func testForm() booking.Form {
	return booking.Form{
		FullName:    "Ada Lovelace",
		Email:       "ada@example.com",
		Destination: domain.DestinationParis,
		StartDate:   "2030-01-01",
		EndDate:     "2030-01-06",
		Travelers:   2,
	}
}

func TestBookingService_Submit(t *testing.T) {
	store := &fakeBookingStore{}
	sub := &fakeSubmitter{}
	svc := NewBookingService(store, sub)

	b, err := svc.Submit(context.Background(), testForm())
	require.NoError(t, err)

	assert.True(t, b.Submitted)
	assert.NotEmpty(t, b.Reference)
	assert.Equal(t, 5, b.DurationDays)
	assert.True(t, decimal.NewFromInt(20000).Equal(b.TotalPrice))
	assert.Equal(t, []int64{1}, store.submitted)

	require.Len(t, sub.got, 1)
	assert.Equal(t, "Paris 1889 - Belle Epoque", sub.got[0].Destination)
	assert.Equal(t, "20000", sub.got[0].TotalPrice.String())
}

func TestBookingService_SubmitInvalid(t *testing.T) {
	store := &fakeBookingStore{}
	sub := &fakeSubmitter{}
	svc := NewBookingService(store, sub)

	f := testForm()
	f.Email = "nope"
	_, err := svc.Submit(context.Background(), f)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "email")
	assert.Empty(t, store.created)
	assert.Empty(t, sub.got)
}

func TestBookingService_WebhookFailure(t *testing.T) {
	store := &fakeBookingStore{}
	sub := &fakeSubmitter{err: domain.ErrSubmission}
	svc := NewBookingService(store, sub)

	b, err := svc.Submit(context.Background(), testForm())
	assert.ErrorIs(t, err, domain.ErrSubmission)
	require.NotNil(t, b)
	assert.False(t, b.Submitted)
	assert.Len(t, store.created, 1)
	assert.Empty(t, store.submitted)
}

func TestBookingService_WithoutLedgerOrWebhook(t *testing.T) {
	b, err := NewBookingService(nil, nil).Submit(context.Background(), testForm())
	require.NoError(t, err)
	assert.False(t, b.Submitted)
	assert.NotEmpty(t, b.Reference)
}

func TestBookingService_LedgerWithoutWebhook(t *testing.T) {
	store := &fakeBookingStore{}
	b, err := NewBookingService(store, nil).Submit(context.Background(), testForm())
	require.NoError(t, err)
	assert.False(t, b.Submitted)
	assert.Len(t, store.created, 1)
	assert.Empty(t, store.submitted)
}

func TestBookingService_UnsetTravelersCountsAsOne(t *testing.T) {
	sub := &fakeSubmitter{}
	f := testForm()
	f.Travelers = 0

	b, err := NewBookingService(nil, sub).Submit(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 1, b.NumTravelers)
	assert.True(t, decimal.NewFromInt(10000).Equal(b.TotalPrice))
	require.Len(t, sub.got, 1)
	assert.Equal(t, 1, sub.got[0].NumTravelers)
}

func TestBookingService_Quote(t *testing.T) {
	svc := NewBookingService(nil, nil)

	q, err := svc.Quote(domain.DestinationCretaceous, "2030-01-01", "2030-01-04", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, q.Days)
	assert.True(t, decimal.NewFromInt(21000).Equal(q.Total))

	_, err = svc.Quote("atlantis", "2030-01-01", "2030-01-04", 1)
	assert.ErrorIs(t, err, domain.ErrUnknownDestination)
}

func TestBookingService_Get(t *testing.T) {
	store := &fakeBookingStore{}
	svc := NewBookingService(store, &fakeSubmitter{})

	b, err := svc.Submit(context.Background(), testForm())
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), b.Reference)
	require.NoError(t, err)
	assert.Same(t, b, got)

	_, err = svc.Get(context.Background(), "not-a-reference")
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	_, err = NewBookingService(nil, nil).Get(context.Background(), b.Reference)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}
