package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/timetravel/internal/domain"
)

type BookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, reference, customer_name, customer_email, destination, start_date, end_date,
	duration_days, num_travelers, total_price, special_requests, submitted, created_at`

// Create inserts b and fills in its ID and CreatedAt.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	var createdAt pgtype.Timestamptz
	err := r.db.QueryRow(ctx, `
		INSERT INTO bookings (reference, customer_name, customer_email, destination, start_date, end_date,
			duration_days, num_travelers, total_price, special_requests, submitted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`,
		b.Reference,
		b.CustomerName,
		b.CustomerEmail,
		string(b.Destination),
		timeToPgDate(b.StartDate),
		timeToPgDate(b.EndDate),
		int32(b.DurationDays),
		int32(b.NumTravelers),
		b.TotalPrice,
		b.SpecialRequests,
		b.Submitted,
	).Scan(&b.ID, &createdAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	b.CreatedAt = pgTimestamptzToTime(createdAt)
	return nil
}

func (r *BookingRepository) MarkSubmitted(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE bookings SET submitted = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark booking submitted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

// GetByReference returns domain.ErrBookingNotFound when no row matches.
func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference = $1`, reference)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b           domain.Booking
		reference   pgtype.UUID
		destination string
		start, end  pgtype.Date
		days, n     int32
		createdAt   pgtype.Timestamptz
	)
	err := row.Scan(
		&b.ID,
		&reference,
		&b.CustomerName,
		&b.CustomerEmail,
		&destination,
		&start,
		&end,
		&days,
		&n,
		&b.TotalPrice,
		&b.SpecialRequests,
		&b.Submitted,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	b.Reference = uuidToString(reference)
	b.Destination = domain.DestinationKey(destination)
	b.StartDate = pgDateToTime(start)
	b.EndDate = pgDateToTime(end)
	b.DurationDays = int(days)
	b.NumTravelers = int(n)
	b.CreatedAt = pgTimestamptzToTime(createdAt)
	return &b, nil
}
