package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/EgonMoreau/VivesBike/internal/domain"
	"github.com/EgonMoreau/VivesBike/internal/repo"
)

// BikeService implements the bike lifecycle rules.
type BikeService struct {
	bikes repo.BikeRepo
}

// NewBikeService constructs a BikeService backed by the provided BikeRepo.
func NewBikeService(r repo.BikeRepo) *BikeService {
	return &BikeService{bikes: r}
}

// Register validates and persists a new bike and returns its generated
// registration number. The status must be a recognized value, but new bikes
// always start out active whatever was supplied.
func (s *BikeService) Register(ctx context.Context, b domain.Bike) (int64, error) {
	if !b.Location.Valid() {
		return 0, fmt.Errorf("%w: unknown station %q", domain.ErrValidation, b.Location)
	}
	if !b.Status.Valid() {
		return 0, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, b.Status)
	}

	b.ID = 0
	b.Status = domain.BikeActive
	created, err := s.bikes.Create(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("service.BikeService.Register: %w", err)
	}
	return created.ID, nil
}

// ChangeStatus sets the status of an existing bike. Any valid status may
// follow any other.
func (s *BikeService) ChangeStatus(ctx context.Context, id int64, status domain.BikeStatus) error {
	if _, err := s.get(ctx, id); err != nil {
		return fmt.Errorf("service.BikeService.ChangeStatus: %w", err)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	if err := s.bikes.SetStatus(ctx, id, status); err != nil {
		return fmt.Errorf("service.BikeService.ChangeStatus: %w", err)
	}
	return nil
}

// MarkInRepair takes a bike out of rental for maintenance.
func (s *BikeService) MarkInRepair(ctx context.Context, id int64) error {
	return s.ChangeStatus(ctx, id, domain.BikeInRepair)
}

// MarkRetired takes a bike out of circulation.
func (s *BikeService) MarkRetired(ctx context.Context, id int64) error {
	return s.ChangeStatus(ctx, id, domain.BikeRetired)
}

// MarkActive makes a bike rentable again.
func (s *BikeService) MarkActive(ctx context.Context, id int64) error {
	return s.ChangeStatus(ctx, id, domain.BikeActive)
}

// ChangeNote replaces the note of an existing bike. A nil note is rejected;
// an empty one clears the note.
func (s *BikeService) ChangeNote(ctx context.Context, id int64, note *string) error {
	if _, err := s.get(ctx, id); err != nil {
		return fmt.Errorf("service.BikeService.ChangeNote: %w", err)
	}
	if note == nil {
		return fmt.Errorf("%w: note is required", domain.ErrValidation)
	}

	if err := s.bikes.SetNote(ctx, id, *note); err != nil {
		return fmt.Errorf("service.BikeService.ChangeNote: %w", err)
	}
	return nil
}

// Find returns the bike with the given registration number, or nil if there
// is none. Zero is not a valid registration number.
func (s *BikeService) Find(ctx context.Context, id int64) (*domain.Bike, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: bike id is required", domain.ErrValidation)
	}
	b, err := s.bikes.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service.BikeService.Find: %w", err)
	}
	return &b, nil
}

// ListAvailable returns active bikes without an open ride, ordered by
// registration number.
func (s *BikeService) ListAvailable(ctx context.Context) ([]domain.Bike, error) {
	bikes, err := s.bikes.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.BikeService.ListAvailable: %w", err)
	}
	if bikes == nil {
		return []domain.Bike{}, nil
	}
	return bikes, nil
}

// List returns all bikes ordered by registration number.
func (s *BikeService) List(ctx context.Context) ([]domain.Bike, error) {
	bikes, err := s.bikes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.BikeService.List: %w", err)
	}
	if bikes == nil {
		return []domain.Bike{}, nil
	}
	return bikes, nil
}

// get loads a bike, turning a missing one into a descriptive ErrNotFound.
func (s *BikeService) get(ctx context.Context, id int64) (domain.Bike, error) {
	b, err := s.bikes.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Bike{}, fmt.Errorf("%w: bike %d does not exist", domain.ErrNotFound, id)
	}
	return b, err
}
