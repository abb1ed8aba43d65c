package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/EgonMoreau/VivesBike/internal/domain"
)

// BikeRepo defines the persistence operations for Bikes.
type BikeRepo interface {
	// Create inserts a new bike and returns the persisted record with its
	// store-generated ID populated.
	Create(ctx context.Context, b domain.Bike) (domain.Bike, error)

	// GetByID retrieves a single bike by registration number.
	// Returns domain.ErrNotFound if no bike with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.Bike, error)

	// SetStatus changes only the status column of a bike, so it never
	// overwrites a concurrent note change. Returns domain.ErrNotFound if no
	// bike with that ID exists.
	SetStatus(ctx context.Context, id int64, status domain.BikeStatus) error

	// SetNote changes only the note of a bike.
	// Returns domain.ErrNotFound if no bike with that ID exists.
	SetNote(ctx context.Context, id int64, note string) error

	// List returns all bikes ordered by ID ascending.
	List(ctx context.Context) ([]domain.Bike, error)

	// ListAvailable returns active bikes that have no open ride, ordered by ID.
	ListAvailable(ctx context.Context) ([]domain.Bike, error)
}

// pgBikeRepo is the Postgres implementation of BikeRepo.
type pgBikeRepo struct {
	db db
}

// NewBikeRepo constructs a BikeRepo backed by the provided db connection.
func NewBikeRepo(db db) BikeRepo {
	return &pgBikeRepo{db: db}
}

// Create inserts a new bike row. The registration number is generated by the DB.
func (r *pgBikeRepo) Create(ctx context.Context, b domain.Bike) (domain.Bike, error) {
	const q = `
		INSERT INTO bike (status, standplaats, opmerkingen)
		VALUES (@status, @location, @note)
		RETURNING registratienummer, status, standplaats, opmerkingen`

	args := pgx.NamedArgs{
		"status":   string(b.Status),
		"location": string(b.Location),
		"note":     b.Note,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanBike(row)
	if err != nil {
		return domain.Bike{}, fmt.Errorf("repo.BikeRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a bike by primary key.
func (r *pgBikeRepo) GetByID(ctx context.Context, id int64) (domain.Bike, error) {
	const q = `
		SELECT registratienummer, status, standplaats, opmerkingen
		FROM bike
		WHERE registratienummer = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanBike(row)
	if err != nil {
		return domain.Bike{}, fmt.Errorf("repo.BikeRepo.GetByID: %w", err)
	}
	return result, nil
}

// SetStatus updates the status of one bike.
func (r *pgBikeRepo) SetStatus(ctx context.Context, id int64, status domain.BikeStatus) error {
	const q = `
		UPDATE bike
		SET status = @status
		WHERE registratienummer = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "status": string(status)})
	if err != nil {
		return fmt.Errorf("repo.BikeRepo.SetStatus: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.BikeRepo.SetStatus: %w", domain.ErrNotFound)
	}
	return nil
}

// SetNote updates the note of one bike.
func (r *pgBikeRepo) SetNote(ctx context.Context, id int64, note string) error {
	const q = `
		UPDATE bike
		SET opmerkingen = @note
		WHERE registratienummer = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "note": note})
	if err != nil {
		return fmt.Errorf("repo.BikeRepo.SetNote: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.BikeRepo.SetNote: %w", domain.ErrNotFound)
	}
	return nil
}

// List returns all bikes ordered by registration number.
func (r *pgBikeRepo) List(ctx context.Context) ([]domain.Bike, error) {
	const q = `
		SELECT registratienummer, status, standplaats, opmerkingen
		FROM bike
		ORDER BY registratienummer`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.BikeRepo.List: %w", classify(err))
	}
	bikes, err := collect(rows, scanBike)
	if err != nil {
		return nil, fmt.Errorf("repo.BikeRepo.List: %w", err)
	}
	return bikes, nil
}

// ListAvailable returns bikes that are active and not currently rented.
// A bike with only closed rides, or no rides at all, qualifies.
func (r *pgBikeRepo) ListAvailable(ctx context.Context) ([]domain.Bike, error) {
	const q = `
		SELECT b.registratienummer, b.status, b.standplaats, b.opmerkingen
		FROM bike b
		WHERE b.status = 'active'
		  AND NOT EXISTS (
		      SELECT 1 FROM ride r
		      WHERE r.fiets_registratienummer = b.registratienummer
		        AND r.eindtijd IS NULL)
		ORDER BY b.registratienummer`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.BikeRepo.ListAvailable: %w", classify(err))
	}
	bikes, err := collect(rows, scanBike)
	if err != nil {
		return nil, fmt.Errorf("repo.BikeRepo.ListAvailable: %w", err)
	}
	return bikes, nil
}

// scanBike maps a single database row into a domain.Bike.
func scanBike(s scanner) (domain.Bike, error) {
	var (
		b        domain.Bike
		status   string
		location string
	)
	if err := s.Scan(&b.ID, &status, &location, &b.Note); err != nil {
		return domain.Bike{}, classify(err)
	}
	b.Status = domain.BikeStatus(status)
	b.Location = domain.Station(location)
	return b, nil
}
