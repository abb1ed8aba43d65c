package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/EgonMoreau/VivesBike/internal/clock"
	"github.com/EgonMoreau/VivesBike/internal/domain"
	"github.com/EgonMoreau/VivesBike/internal/repo"
)

// RideService implements the ride lifecycle rules: a ride is opened once and
// closed once, and closing it sets the end time and price together.
type RideService struct {
	rides   repo.RideRepo
	members MemberLookup
	bikes   BikeLookup
	clock   clock.Clock
	rate    domain.Money
}

// NewRideService constructs a RideService. rate is charged per started day.
func NewRideService(rides repo.RideRepo, members MemberLookup, bikes BikeLookup, clk clock.Clock, rate domain.Money) *RideService {
	return &RideService{rides: rides, members: members, bikes: bikes, clock: clk, rate: rate}
}

// Open starts a ride for req.MemberID on req.BikeID and returns its id.
// The start time is assigned here; a request that carries one is rejected.
//
// The checks run in a fixed order and the first failure wins: bike exists,
// bike not rented, bike active, member exists, member not already riding.
// Two concurrent opens that both pass the checks are still separated by the
// store, which rejects the second with domain.ErrConflict.
func (s *RideService) Open(ctx context.Context, req domain.Ride) (int64, error) {
	if !req.StartedAt.IsZero() {
		return 0, fmt.Errorf("%w: start time is assigned automatically", domain.ErrValidation)
	}

	bike, err := s.bikes.Find(ctx, req.BikeID)
	if err != nil {
		return 0, fmt.Errorf("service.RideService.Open: %w", err)
	}
	if bike == nil {
		return 0, fmt.Errorf("%w: bike %d does not exist", domain.ErrNotFound, req.BikeID)
	}
	open, err := s.rides.OpenByBike(ctx, bike.ID)
	if err != nil {
		return 0, fmt.Errorf("service.RideService.Open: %w", err)
	}
	if len(open) > 0 {
		return 0, fmt.Errorf("%w: bike %d already rented", domain.ErrConflict, bike.ID)
	}
	if bike.Status != domain.BikeActive {
		return 0, fmt.Errorf("%w: bike status must be active, is %s", domain.ErrConflict, bike.Status)
	}

	member, err := s.members.Find(ctx, req.MemberID)
	if err != nil {
		return 0, fmt.Errorf("service.RideService.Open: %w", err)
	}
	if member == nil {
		return 0, fmt.Errorf("%w: member %s does not exist", domain.ErrNotFound, req.MemberID)
	}
	open, err = s.rides.OpenByMember(ctx, member.ID)
	if err != nil {
		return 0, fmt.Errorf("service.RideService.Open: %w", err)
	}
	if len(open) > 0 {
		return 0, fmt.Errorf("%w: member %s already renting", domain.ErrConflict, member.ID)
	}

	created, err := s.rides.Create(ctx, domain.Ride{
		MemberID:  member.ID,
		BikeID:    bike.ID,
		StartedAt: s.now(),
	})
	if err != nil {
		return 0, fmt.Errorf("service.RideService.Open: %w", err)
	}
	return created.ID, nil
}

// Close ends an open ride now and prices it. Closing a ride twice fails with
// domain.ErrConflict; the first price stands.
func (s *RideService) Close(ctx context.Context, id int64) (domain.Ride, error) {
	if id == 0 {
		return domain.Ride{}, fmt.Errorf("%w: ride id is required", domain.ErrValidation)
	}

	ride, err := s.rides.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Ride{}, fmt.Errorf("%w: ride %d does not exist", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Ride{}, fmt.Errorf("service.RideService.Close: %w", err)
	}
	if !ride.Open() {
		return domain.Ride{}, fmt.Errorf("%w: ride %d already closed", domain.ErrConflict, id)
	}

	end := s.now()
	price := Price(ride.StartedAt, end, s.rate)
	ride.EndedAt = &end
	ride.Price = &price

	closed, err := s.rides.Update(ctx, ride)
	if err != nil {
		return domain.Ride{}, fmt.Errorf("service.RideService.Close: %w", err)
	}
	return closed, nil
}

// Find returns the ride with the given id, or nil if there is none.
func (s *RideService) Find(ctx context.Context, id int64) (*domain.Ride, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: ride id is required", domain.ErrValidation)
	}
	ride, err := s.rides.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service.RideService.Find: %w", err)
	}
	return &ride, nil
}

// FirstOfMember returns the member's earliest ride by start time, or nil if
// the member never rode.
func (s *RideService) FirstOfMember(ctx context.Context, memberID string) (*domain.Ride, error) {
	if err := s.requireMember(ctx, memberID); err != nil {
		return nil, fmt.Errorf("service.RideService.FirstOfMember: %w", err)
	}
	ride, err := s.rides.FirstByMember(ctx, memberID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service.RideService.FirstOfMember: %w", err)
	}
	return &ride, nil
}

// OpenOfMember returns the member's rides that have not been closed.
func (s *RideService) OpenOfMember(ctx context.Context, memberID string) ([]domain.Ride, error) {
	if err := s.requireMember(ctx, memberID); err != nil {
		return nil, fmt.Errorf("service.RideService.OpenOfMember: %w", err)
	}
	rides, err := s.rides.OpenByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("service.RideService.OpenOfMember: %w", err)
	}
	return nonNil(rides), nil
}

// OpenOfBike returns the bike's rides that have not been closed.
// Unlike OpenOfMember it does not check that the bike exists: an unknown bike
// simply has no open rides.
func (s *RideService) OpenOfBike(ctx context.Context, bikeID int64) ([]domain.Ride, error) {
	if bikeID == 0 {
		return nil, fmt.Errorf("%w: bike id is required", domain.ErrValidation)
	}
	rides, err := s.rides.OpenByBike(ctx, bikeID)
	if err != nil {
		return nil, fmt.Errorf("service.RideService.OpenOfBike: %w", err)
	}
	return nonNil(rides), nil
}

// List returns all rides ordered by id.
func (s *RideService) List(ctx context.Context) ([]domain.Ride, error) {
	rides, err := s.rides.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.RideService.List: %w", err)
	}
	return nonNil(rides), nil
}

func (s *RideService) requireMember(ctx context.Context, memberID string) error {
	if strings.TrimSpace(memberID) == "" {
		return fmt.Errorf("%w: member id is required", domain.ErrValidation)
	}
	m, err := s.members.Find(ctx, memberID)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("%w: member %s does not exist", domain.ErrNotFound, memberID)
	}
	return nil
}

// now is truncated to the precision Postgres keeps for timestamptz, so a ride
// reads back with the same start time it was priced with.
func (s *RideService) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

func nonNil(rides []domain.Ride) []domain.Ride {
	if rides == nil {
		return []domain.Ride{}
	}
	return rides
}
