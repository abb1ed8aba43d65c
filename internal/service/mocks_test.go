package service_test

import (
	"context"
	"time"

	"github.com/EgonMoreau/VivesBike/internal/domain"
	"github.com/EgonMoreau/VivesBike/internal/repo"
	"github.com/EgonMoreau/VivesBike/internal/service"
)

// ---- mock repos ------------------------------------------------------------

// mockMemberRepo is a hand-written test double for repo.MemberRepo.
// Unset functions report the member as missing.
type mockMemberRepo struct {
	create  func(ctx context.Context, m domain.Member) (domain.Member, error)
	getByID func(ctx context.Context, id string) (domain.Member, error)
	update  func(ctx context.Context, m domain.Member) (domain.Member, error)
	end     func(ctx context.Context, id string, end time.Time) (domain.Member, error)
	list    func(ctx context.Context) ([]domain.Member, error)
}

func (m *mockMemberRepo) Create(ctx context.Context, mem domain.Member) (domain.Member, error) {
	return m.create(ctx, mem)
}
func (m *mockMemberRepo) GetByID(ctx context.Context, id string) (domain.Member, error) {
	if m.getByID == nil {
		return domain.Member{}, domain.ErrNotFound
	}
	return m.getByID(ctx, id)
}
func (m *mockMemberRepo) Update(ctx context.Context, mem domain.Member) (domain.Member, error) {
	return m.update(ctx, mem)
}
func (m *mockMemberRepo) End(ctx context.Context, id string, end time.Time) (domain.Member, error) {
	return m.end(ctx, id, end)
}
func (m *mockMemberRepo) List(ctx context.Context) ([]domain.Member, error) {
	return m.list(ctx)
}

// compile-time check: mockMemberRepo must satisfy repo.MemberRepo.
var _ repo.MemberRepo = (*mockMemberRepo)(nil)

// mockBikeRepo is a hand-written test double for repo.BikeRepo.
type mockBikeRepo struct {
	create        func(ctx context.Context, b domain.Bike) (domain.Bike, error)
	getByID       func(ctx context.Context, id int64) (domain.Bike, error)
	setStatus     func(ctx context.Context, id int64, status domain.BikeStatus) error
	setNote       func(ctx context.Context, id int64, note string) error
	list          func(ctx context.Context) ([]domain.Bike, error)
	listAvailable func(ctx context.Context) ([]domain.Bike, error)
}

func (m *mockBikeRepo) Create(ctx context.Context, b domain.Bike) (domain.Bike, error) {
	return m.create(ctx, b)
}
func (m *mockBikeRepo) GetByID(ctx context.Context, id int64) (domain.Bike, error) {
	if m.getByID == nil {
		return domain.Bike{}, domain.ErrNotFound
	}
	return m.getByID(ctx, id)
}
func (m *mockBikeRepo) SetStatus(ctx context.Context, id int64, status domain.BikeStatus) error {
	return m.setStatus(ctx, id, status)
}
func (m *mockBikeRepo) SetNote(ctx context.Context, id int64, note string) error {
	return m.setNote(ctx, id, note)
}
func (m *mockBikeRepo) List(ctx context.Context) ([]domain.Bike, error) {
	return m.list(ctx)
}
func (m *mockBikeRepo) ListAvailable(ctx context.Context) ([]domain.Bike, error) {
	return m.listAvailable(ctx)
}

var _ repo.BikeRepo = (*mockBikeRepo)(nil)

// mockRideRepo is a hand-written test double for repo.RideRepo.
// Unset open-ride queries return no rides.
type mockRideRepo struct {
	create        func(ctx context.Context, r domain.Ride) (domain.Ride, error)
	getByID       func(ctx context.Context, id int64) (domain.Ride, error)
	update        func(ctx context.Context, r domain.Ride) (domain.Ride, error)
	list          func(ctx context.Context) ([]domain.Ride, error)
	firstByMember func(ctx context.Context, memberID string) (domain.Ride, error)
	openByMember  func(ctx context.Context, memberID string) ([]domain.Ride, error)
	openByBike    func(ctx context.Context, bikeID int64) ([]domain.Ride, error)
}

func (m *mockRideRepo) Create(ctx context.Context, r domain.Ride) (domain.Ride, error) {
	return m.create(ctx, r)
}
func (m *mockRideRepo) GetByID(ctx context.Context, id int64) (domain.Ride, error) {
	if m.getByID == nil {
		return domain.Ride{}, domain.ErrNotFound
	}
	return m.getByID(ctx, id)
}
func (m *mockRideRepo) Update(ctx context.Context, r domain.Ride) (domain.Ride, error) {
	return m.update(ctx, r)
}
func (m *mockRideRepo) List(ctx context.Context) ([]domain.Ride, error) {
	return m.list(ctx)
}
func (m *mockRideRepo) FirstByMember(ctx context.Context, memberID string) (domain.Ride, error) {
	if m.firstByMember == nil {
		return domain.Ride{}, domain.ErrNotFound
	}
	return m.firstByMember(ctx, memberID)
}
func (m *mockRideRepo) OpenByMember(ctx context.Context, memberID string) ([]domain.Ride, error) {
	if m.openByMember == nil {
		return nil, nil
	}
	return m.openByMember(ctx, memberID)
}
func (m *mockRideRepo) OpenByBike(ctx context.Context, bikeID int64) ([]domain.Ride, error) {
	if m.openByBike == nil {
		return nil, nil
	}
	return m.openByBike(ctx, bikeID)
}

var _ repo.RideRepo = (*mockRideRepo)(nil)

// ---- mock lookups ----------------------------------------------------------

// mockRideQuery is a test double for service.RideQuery.
// Unset functions report no rides.
type mockRideQuery struct {
	firstOfMember func(ctx context.Context, memberID string) (*domain.Ride, error)
	openOfMember  func(ctx context.Context, memberID string) ([]domain.Ride, error)
}

func (m *mockRideQuery) FirstOfMember(ctx context.Context, memberID string) (*domain.Ride, error) {
	if m.firstOfMember == nil {
		return nil, nil
	}
	return m.firstOfMember(ctx, memberID)
}
func (m *mockRideQuery) OpenOfMember(ctx context.Context, memberID string) ([]domain.Ride, error) {
	if m.openOfMember == nil {
		return []domain.Ride{}, nil
	}
	return m.openOfMember(ctx, memberID)
}

var _ service.RideQuery = (*mockRideQuery)(nil)

// memberLookupFunc adapts a function to service.MemberLookup.
type memberLookupFunc func(ctx context.Context, id string) (*domain.Member, error)

func (f memberLookupFunc) Find(ctx context.Context, id string) (*domain.Member, error) {
	return f(ctx, id)
}

// bikeLookupFunc adapts a function to service.BikeLookup.
type bikeLookupFunc func(ctx context.Context, id int64) (*domain.Bike, error)

func (f bikeLookupFunc) Find(ctx context.Context, id int64) (*domain.Bike, error) {
	return f(ctx, id)
}

var (
	_ service.MemberLookup = memberLookupFunc(nil)
	_ service.BikeLookup   = bikeLookupFunc(nil)
)
