package repository

import (
	"context"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	timetravel "github.com/set-night/timetravel"
	"github.com/set-night/timetravel/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestLedger connects to TEST_DATABASE_URL or skips.
func openTestLedger(t *testing.T) *BookingRepository {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	migrations, err := fs.Sub(timetravel.MigrationsFS, "migrations")
	require.NoError(t, err)
	pool, err := Open(context.Background(), url, migrations)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewBookingRepository(pool)
}

func TestBookingRepository_RoundTrip(t *testing.T) {
	repo := openTestLedger(t)
	ctx := context.Background()

	b := &domain.Booking{
		Reference:       uuid.NewString(),
		CustomerName:    "Ada Lovelace",
		CustomerEmail:   "ada@example.com",
		Destination:     domain.DestinationFlorence,
		StartDate:       time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2030, 1, 12, 0, 0, 0, 0, time.UTC),
		DurationDays:    2,
		NumTravelers:    3,
		TotalPrice:      decimal.NewFromInt(15000),
		SpecialRequests: "Rencontrer Léonard",
	}
	require.NoError(t, repo.Create(ctx, b))
	assert.NotZero(t, b.ID)
	assert.False(t, b.CreatedAt.IsZero())

	require.NoError(t, repo.MarkSubmitted(ctx, b.ID))

	got, err := repo.GetByReference(ctx, b.Reference)
	require.NoError(t, err)
	assert.Equal(t, b.CustomerName, got.CustomerName)
	assert.Equal(t, b.Destination, got.Destination)
	assert.True(t, b.StartDate.Equal(got.StartDate))
	assert.True(t, b.TotalPrice.Equal(got.TotalPrice))
	assert.True(t, got.Submitted)
}

func TestBookingRepository_NotFound(t *testing.T) {
	repo := openTestLedger(t)
	ctx := context.Background()

	_, err := repo.GetByReference(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	assert.ErrorIs(t, repo.MarkSubmitted(ctx, -1), domain.ErrBookingNotFound)
}
