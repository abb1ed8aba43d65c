// Package memory is an in-memory implementation of the repo interfaces.
// All three stores share one Store so that cross-entity queries (available
// bikes) and the open-ride uniqueness rules see a consistent view.
// It is safe for concurrent use.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/EgonMoreau/VivesBike/internal/domain"
	"github.com/EgonMoreau/VivesBike/internal/repo"
)

// Store holds members, bikes and rides.
type Store struct {
	mu sync.RWMutex

	members map[string]domain.Member
	bikes   map[int64]domain.Bike
	rides   map[int64]domain.Ride

	nextBikeID int64
	nextRideID int64
}

// NewStore returns an empty Store. Generated IDs start at 1.
func NewStore() *Store {
	return &Store{
		members: make(map[string]domain.Member),
		bikes:   make(map[int64]domain.Bike),
		rides:   make(map[int64]domain.Ride),
	}
}

// Members returns the member store view.
func (s *Store) Members() repo.MemberRepo { return memberRepo{s} }

// Bikes returns the bike store view.
func (s *Store) Bikes() repo.BikeRepo { return bikeRepo{s} }

// Rides returns the ride store view.
func (s *Store) Rides() repo.RideRepo { return rideRepo{s} }

// ---- members ---------------------------------------------------------------

type memberRepo struct{ s *Store }

func (r memberRepo) Create(_ context.Context, m domain.Member) (domain.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.members[m.ID]; ok {
		return domain.Member{}, fmt.Errorf("memory.MemberRepo.Create: %w: member %s exists", domain.ErrConflict, m.ID)
	}
	m = cloneMember(m)
	r.s.members[m.ID] = m
	return cloneMember(m), nil
}

func (r memberRepo) GetByID(_ context.Context, id string) (domain.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.members[id]
	if !ok {
		return domain.Member{}, fmt.Errorf("memory.MemberRepo.GetByID: %w", domain.ErrNotFound)
	}
	return cloneMember(m), nil
}

func (r memberRepo) Update(_ context.Context, m domain.Member) (domain.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.members[m.ID]
	if !ok {
		return domain.Member{}, fmt.Errorf("memory.MemberRepo.Update: %w", domain.ErrNotFound)
	}
	m = cloneMember(m)
	m.EndDate = cloneTime(existing.EndDate)
	r.s.members[m.ID] = m
	return cloneMember(m), nil
}

func (r memberRepo) End(_ context.Context, id string, end time.Time) (domain.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.members[id]
	if !ok || !m.Active() {
		return domain.Member{}, fmt.Errorf("memory.MemberRepo.End: %w: member %s is not active", domain.ErrConflict, id)
	}
	m.EndDate = &end
	r.s.members[id] = m
	return cloneMember(m), nil
}

func (r memberRepo) List(_ context.Context) ([]domain.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Member, 0, len(r.s.members))
	for _, m := range r.s.members {
		out = append(out, cloneMember(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ---- bikes -----------------------------------------------------------------

type bikeRepo struct{ s *Store }

func (r bikeRepo) Create(_ context.Context, b domain.Bike) (domain.Bike, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextBikeID++
	b.ID = r.s.nextBikeID
	r.s.bikes[b.ID] = b
	return b, nil
}

func (r bikeRepo) GetByID(_ context.Context, id int64) (domain.Bike, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bikes[id]
	if !ok {
		return domain.Bike{}, fmt.Errorf("memory.BikeRepo.GetByID: %w", domain.ErrNotFound)
	}
	return b, nil
}

func (r bikeRepo) SetStatus(_ context.Context, id int64, status domain.BikeStatus) error {
	return r.modify(id, "SetStatus", func(b *domain.Bike) { b.Status = status })
}

func (r bikeRepo) SetNote(_ context.Context, id int64, note string) error {
	return r.modify(id, "SetNote", func(b *domain.Bike) { b.Note = note })
}

// modify applies change to the stored bike under the write lock.
func (r bikeRepo) modify(id int64, op string, change func(*domain.Bike)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bikes[id]
	if !ok {
		return fmt.Errorf("memory.BikeRepo.%s: %w", op, domain.ErrNotFound)
	}
	change(&b)
	r.s.bikes[id] = b
	return nil
}

func (r bikeRepo) List(_ context.Context) ([]domain.Bike, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.sortedBikes(func(domain.Bike) bool { return true }), nil
}

func (r bikeRepo) ListAvailable(_ context.Context) ([]domain.Bike, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rented := make(map[int64]bool)
	for _, ride := range r.s.rides {
		if ride.Open() {
			rented[ride.BikeID] = true
		}
	}
	return r.s.sortedBikes(func(b domain.Bike) bool {
		return b.Status == domain.BikeActive && !rented[b.ID]
	}), nil
}

// sortedBikes must be called with mu held.
func (s *Store) sortedBikes(keep func(domain.Bike) bool) []domain.Bike {
	out := []domain.Bike{}
	for _, b := range s.bikes {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---- rides -----------------------------------------------------------------

type rideRepo struct{ s *Store }

// Create checks both open-ride uniqueness rules and inserts under one lock,
// the in-memory counterpart of the partial unique indexes.
func (r rideRepo) Create(_ context.Context, ride domain.Ride) (domain.Ride, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.members[ride.MemberID]; !ok {
		return domain.Ride{}, fmt.Errorf("memory.RideRepo.Create: %w: member %s", domain.ErrNotFound, ride.MemberID)
	}
	if _, ok := r.s.bikes[ride.BikeID]; !ok {
		return domain.Ride{}, fmt.Errorf("memory.RideRepo.Create: %w: bike %d", domain.ErrNotFound, ride.BikeID)
	}
	for _, existing := range r.s.rides {
		if !existing.Open() {
			continue
		}
		if existing.BikeID == ride.BikeID {
			return domain.Ride{}, fmt.Errorf("memory.RideRepo.Create: %w: ride_open_per_bike", domain.ErrConflict)
		}
		if existing.MemberID == ride.MemberID {
			return domain.Ride{}, fmt.Errorf("memory.RideRepo.Create: %w: ride_open_per_member", domain.ErrConflict)
		}
	}

	r.s.nextRideID++
	ride.ID = r.s.nextRideID
	ride.EndedAt = nil
	ride.Price = nil
	r.s.rides[ride.ID] = ride
	return cloneRide(ride), nil
}

func (r rideRepo) GetByID(_ context.Context, id int64) (domain.Ride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ride, ok := r.s.rides[id]
	if !ok {
		return domain.Ride{}, fmt.Errorf("memory.RideRepo.GetByID: %w", domain.ErrNotFound)
	}
	return cloneRide(ride), nil
}

func (r rideRepo) Update(_ context.Context, ride domain.Ride) (domain.Ride, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if ride.EndedAt == nil || ride.Price == nil {
		return domain.Ride{}, fmt.Errorf("memory.RideRepo.Update: %w: ride_price_when_closed", domain.ErrValidation)
	}
	existing, ok := r.s.rides[ride.ID]
	if !ok || !existing.Open() {
		return domain.Ride{}, fmt.Errorf("memory.RideRepo.Update: %w: ride %d is not open", domain.ErrConflict, ride.ID)
	}
	if ride.EndedAt.Before(existing.StartedAt) {
		return domain.Ride{}, fmt.Errorf("memory.RideRepo.Update: %w: ride_end_after_start", domain.ErrValidation)
	}
	price := *ride.Price
	existing.EndedAt = cloneTime(ride.EndedAt)
	existing.Price = &price
	r.s.rides[ride.ID] = existing
	return cloneRide(existing), nil
}

func (r rideRepo) List(_ context.Context) ([]domain.Ride, error) {
	return r.filter(func(domain.Ride) bool { return true }), nil
}

func (r rideRepo) FirstByMember(_ context.Context, memberID string) (domain.Ride, error) {
	rides := r.filter(func(ride domain.Ride) bool { return ride.MemberID == memberID })
	if len(rides) == 0 {
		return domain.Ride{}, fmt.Errorf("memory.RideRepo.FirstByMember: %w", domain.ErrNotFound)
	}
	first := rides[0]
	for _, ride := range rides[1:] {
		if ride.StartedAt.Before(first.StartedAt) {
			first = ride
		}
	}
	return first, nil
}

func (r rideRepo) OpenByMember(_ context.Context, memberID string) ([]domain.Ride, error) {
	return r.filter(func(ride domain.Ride) bool {
		return ride.Open() && ride.MemberID == memberID
	}), nil
}

func (r rideRepo) OpenByBike(_ context.Context, bikeID int64) ([]domain.Ride, error) {
	return r.filter(func(ride domain.Ride) bool {
		return ride.Open() && ride.BikeID == bikeID
	}), nil
}

// filter returns clones of the matching rides ordered by ID.
func (r rideRepo) filter(keep func(domain.Ride) bool) []domain.Ride {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Ride{}
	for _, ride := range r.s.rides {
		if keep(ride) {
			out = append(out, cloneRide(ride))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---- cloning ---------------------------------------------------------------

func cloneMember(m domain.Member) domain.Member {
	m.StartDate = cloneTime(m.StartDate)
	m.EndDate = cloneTime(m.EndDate)
	return m
}

func cloneRide(r domain.Ride) domain.Ride {
	r.EndedAt = cloneTime(r.EndedAt)
	if r.Price != nil {
		p := *r.Price
		r.Price = &p
	}
	return r
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
