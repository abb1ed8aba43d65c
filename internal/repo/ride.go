package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/EgonMoreau/VivesBike/internal/domain"
)

// RideRepo defines the persistence operations for Rides.
//
// The store enforces at most one open ride per bike and per member: Create
// returns domain.ErrConflict when either would be violated, even under
// concurrent callers.
type RideRepo interface {
	// Create inserts a new ride and returns it with its generated ID.
	Create(ctx context.Context, ride domain.Ride) (domain.Ride, error)

	// GetByID retrieves a single ride. Returns domain.ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (domain.Ride, error)

	// Update writes end time and price of a ride that is still open, in a
	// single statement. Both must be set; otherwise domain.ErrValidation.
	// Returns domain.ErrConflict if the ride is not open (or does not exist).
	Update(ctx context.Context, ride domain.Ride) (domain.Ride, error)

	// List returns all rides ordered by ID ascending.
	List(ctx context.Context) ([]domain.Ride, error)

	// FirstByMember returns the member's chronologically earliest ride.
	// Returns domain.ErrNotFound if the member has no rides.
	FirstByMember(ctx context.Context, memberID string) (domain.Ride, error)

	// OpenByMember returns the member's rides without an end time.
	OpenByMember(ctx context.Context, memberID string) ([]domain.Ride, error)

	// OpenByBike returns the bike's rides without an end time.
	OpenByBike(ctx context.Context, bikeID int64) ([]domain.Ride, error)
}

// pgRideRepo is the Postgres implementation of RideRepo.
// Uniqueness of open rides is backed by the ride_open_per_bike and
// ride_open_per_member partial unique indexes.
type pgRideRepo struct {
	db db
}

// NewRideRepo constructs a RideRepo backed by the provided db connection.
func NewRideRepo(db db) RideRepo {
	return &pgRideRepo{db: db}
}

// Prices are NUMERIC(10,2) in the table and integer cents in Go.
const rideColumns = `id, lid_rijksregisternummer, fiets_registratienummer,
	starttijd, eindtijd, (prijs * 100)::bigint`

// Create inserts a new open ride row.
func (r *pgRideRepo) Create(ctx context.Context, ride domain.Ride) (domain.Ride, error) {
	const q = `
		INSERT INTO ride (lid_rijksregisternummer, fiets_registratienummer, starttijd)
		VALUES (@member_id, @bike_id, @started_at)
		RETURNING ` + rideColumns

	args := pgx.NamedArgs{
		"member_id":  ride.MemberID,
		"bike_id":    ride.BikeID,
		"started_at": ride.StartedAt,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanRide(row)
	if err != nil {
		return domain.Ride{}, fmt.Errorf("repo.RideRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a ride by primary key.
func (r *pgRideRepo) GetByID(ctx context.Context, id int64) (domain.Ride, error) {
	const q = `
		SELECT ` + rideColumns + `
		FROM ride
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanRide(row)
	if err != nil {
		return domain.Ride{}, fmt.Errorf("repo.RideRepo.GetByID: %w", err)
	}
	return result, nil
}

// Update closes an open ride. The eindtijd IS NULL guard makes a second
// close fail instead of re-pricing the ride.
func (r *pgRideRepo) Update(ctx context.Context, ride domain.Ride) (domain.Ride, error) {
	const q = `
		UPDATE ride
		SET eindtijd = @ended_at,
		    prijs    = @price::numeric / 100
		WHERE id = @id
		  AND eindtijd IS NULL
		RETURNING ` + rideColumns

	// Both NULL would satisfy ride_price_when_closed and leave the ride open.
	if ride.EndedAt == nil || ride.Price == nil {
		return domain.Ride{}, fmt.Errorf("repo.RideRepo.Update: %w: ride_price_when_closed", domain.ErrValidation)
	}
	args := pgx.NamedArgs{
		"id":       ride.ID,
		"ended_at": *ride.EndedAt,
		"price":    int64(*ride.Price),
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanRide(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Ride{}, fmt.Errorf("repo.RideRepo.Update: %w: ride %d is not open", domain.ErrConflict, ride.ID)
		}
		return domain.Ride{}, fmt.Errorf("repo.RideRepo.Update: %w", err)
	}
	return result, nil
}

// List returns all rides ordered by ID.
func (r *pgRideRepo) List(ctx context.Context) ([]domain.Ride, error) {
	const q = `
		SELECT ` + rideColumns + `
		FROM ride
		ORDER BY id`

	return r.query(ctx, "List", q, nil)
}

// FirstByMember returns the earliest ride of a member by start time.
func (r *pgRideRepo) FirstByMember(ctx context.Context, memberID string) (domain.Ride, error) {
	const q = `
		SELECT ` + rideColumns + `
		FROM ride
		WHERE lid_rijksregisternummer = @member_id
		ORDER BY starttijd, id
		LIMIT 1`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"member_id": memberID})
	result, err := scanRide(row)
	if err != nil {
		return domain.Ride{}, fmt.Errorf("repo.RideRepo.FirstByMember: %w", err)
	}
	return result, nil
}

// OpenByMember returns the open rides of a member ordered by ID.
func (r *pgRideRepo) OpenByMember(ctx context.Context, memberID string) ([]domain.Ride, error) {
	const q = `
		SELECT ` + rideColumns + `
		FROM ride
		WHERE eindtijd IS NULL
		  AND lid_rijksregisternummer = @member_id
		ORDER BY id`

	return r.query(ctx, "OpenByMember", q, pgx.NamedArgs{"member_id": memberID})
}

// OpenByBike returns the open rides of a bike ordered by ID.
func (r *pgRideRepo) OpenByBike(ctx context.Context, bikeID int64) ([]domain.Ride, error) {
	const q = `
		SELECT ` + rideColumns + `
		FROM ride
		WHERE eindtijd IS NULL
		  AND fiets_registratienummer = @bike_id
		ORDER BY id`

	return r.query(ctx, "OpenByBike", q, pgx.NamedArgs{"bike_id": bikeID})
}

func (r *pgRideRepo) query(ctx context.Context, op, q string, args pgx.NamedArgs) ([]domain.Ride, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if args == nil {
		rows, err = r.db.Query(ctx, q)
	} else {
		rows, err = r.db.Query(ctx, q, args)
	}
	if err != nil {
		return nil, fmt.Errorf("repo.RideRepo.%s: %w", op, classify(err))
	}
	rides, err := collect(rows, scanRide)
	if err != nil {
		return nil, fmt.Errorf("repo.RideRepo.%s: %w", op, err)
	}
	return rides, nil
}

// scanRide maps a single database row into a domain.Ride.
// It handles the nullable end time and price.
func scanRide(s scanner) (domain.Ride, error) {
	var (
		ride    domain.Ride
		endedAt pgtype.Timestamptz
		price   pgtype.Int8
	)

	err := s.Scan(&ride.ID, &ride.MemberID, &ride.BikeID, &ride.StartedAt, &endedAt, &price)
	if err != nil {
		return domain.Ride{}, classify(err)
	}

	ride.StartedAt = ride.StartedAt.UTC()
	if endedAt.Valid {
		ea := endedAt.Time.UTC()
		ride.EndedAt = &ea
	}
	if price.Valid {
		p := domain.Money(price.Int64)
		ride.Price = &p
	}
	return ride, nil
}
