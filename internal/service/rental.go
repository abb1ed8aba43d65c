// Package service contains the business rules of the bike rental scheme.
// Services validate inputs, enforce lifecycle rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
//
// The three rule sets depend on each other only through the narrow lookup
// interfaces below. NewRental wires them together.
package service

import (
	"context"
	"time"

	"github.com/EgonMoreau/VivesBike/internal/clock"
	"github.com/EgonMoreau/VivesBike/internal/domain"
	"github.com/EgonMoreau/VivesBike/internal/repo"
)

// MemberLookup resolves a member by national identification number.
// A nil member with a nil error means the member does not exist.
type MemberLookup interface {
	Find(ctx context.Context, id string) (*domain.Member, error)
}

// BikeLookup resolves a bike by registration number.
// A nil bike with a nil error means the bike does not exist.
type BikeLookup interface {
	Find(ctx context.Context, id int64) (*domain.Bike, error)
}

// RideQuery answers the ride questions the member rules need.
type RideQuery interface {
	FirstOfMember(ctx context.Context, memberID string) (*domain.Ride, error)
	OpenOfMember(ctx context.Context, memberID string) ([]domain.Ride, error)
}

// Rental bundles the three rule sets.
type Rental struct {
	Bikes   *BikeService
	Members *MemberService
	Rides   *RideService
}

// NewRental builds the bike, member and ride rules on top of the given
// stores. rate is the price of one started day.
func NewRental(members repo.MemberRepo, bikes repo.BikeRepo, rides repo.RideRepo, clk clock.Clock, rate domain.Money) *Rental {
	bs := NewBikeService(bikes)
	ms := NewMemberService(members, nil, clk)
	rs := NewRideService(rides, ms, bs, clk, rate)
	ms.rides = rs
	return &Rental{Bikes: bs, Members: ms, Rides: rs}
}

const secondsPerDay = 24 * 60 * 60

// Price charges rate for every started day between start and end, counted in
// whole elapsed seconds. A ride of exactly 24h costs one day, 24h0m1s costs
// two. A ride that did not last a full second is free.
func Price(start, end time.Time, rate domain.Money) domain.Money {
	secs := int64(end.Sub(start) / time.Second)
	if secs <= 0 {
		return 0
	}
	days := (secs + secondsPerDay - 1) / secondsPerDay
	return domain.Money(days) * rate
}
