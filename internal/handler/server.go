// Package handler implements the HTTP handlers for the bike rental API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (bike.go, member.go, ride.go, ...) but share the Server struct so they
// can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/EgonMoreau/VivesBike/internal/domain"
)

// BikeServicer defines the bike operations the handlers depend on.
// Defining the interface here, in the consumer package, lets handler tests
// inject a mock without touching the store or service layer.
type BikeServicer interface {
	Register(ctx context.Context, b domain.Bike) (int64, error)
	ChangeStatus(ctx context.Context, id int64, status domain.BikeStatus) error
	MarkInRepair(ctx context.Context, id int64) error
	MarkRetired(ctx context.Context, id int64) error
	MarkActive(ctx context.Context, id int64) error
	ChangeNote(ctx context.Context, id int64, note *string) error
	Find(ctx context.Context, id int64) (*domain.Bike, error)
	ListAvailable(ctx context.Context) ([]domain.Bike, error)
	List(ctx context.Context) ([]domain.Bike, error)
}

// MemberServicer defines the member operations the handlers depend on.
type MemberServicer interface {
	Enroll(ctx context.Context, m *domain.Member) (domain.Member, error)
	Edit(ctx context.Context, m *domain.Member) error
	CorrectStart(ctx context.Context, id string, start *time.Time) error
	Unsubscribe(ctx context.Context, id string) error
	Find(ctx context.Context, id string) (*domain.Member, error)
	List(ctx context.Context) ([]domain.Member, error)
}

// RideServicer defines the ride operations the handlers depend on.
type RideServicer interface {
	Open(ctx context.Context, req domain.Ride) (int64, error)
	Close(ctx context.Context, id int64) (domain.Ride, error)
	Find(ctx context.Context, id int64) (*domain.Ride, error)
	FirstOfMember(ctx context.Context, memberID string) (*domain.Ride, error)
	OpenOfMember(ctx context.Context, memberID string) ([]domain.Ride, error)
	OpenOfBike(ctx context.Context, bikeID int64) ([]domain.Ride, error)
	List(ctx context.Context) ([]domain.Ride, error)
}

// Exporter produces the flat ride overview.
type Exporter interface {
	Export(ctx context.Context) ([]domain.RideExportRow, error)
}

// Server holds the dependencies of all HTTP handlers.
type Server struct {
	bikes   BikeServicer
	members MemberServicer
	rides   RideServicer
	export  Exporter
	log     *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger falls back to slog.Default().
func NewServer(bikes BikeServicer, members MemberServicer, rides RideServicer, export Exporter, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{bikes: bikes, members: members, rides: rides, export: export, log: log}
}

// Routes registers every endpoint on r.
// Middleware is the caller's concern; see cmd/api.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/bikes", func(r chi.Router) {
		r.Post("/", s.RegisterBike)
		r.Get("/", s.ListBikes)
		r.Get("/available", s.ListAvailableBikes)
		r.Route("/{bikeId}", func(r chi.Router) {
			r.Get("/", s.GetBike)
			r.Put("/status", s.ChangeBikeStatus)
			r.Put("/note", s.ChangeBikeNote)
			r.Post("/repair", s.MarkBikeInRepair)
			r.Post("/retire", s.MarkBikeRetired)
			r.Post("/activate", s.MarkBikeActive)
			r.Get("/rides/open", s.ListOpenRidesOfBike)
		})
	})

	r.Route("/members", func(r chi.Router) {
		r.Post("/", s.EnrollMember)
		r.Get("/", s.ListMembers)
		r.Route("/{memberId}", func(r chi.Router) {
			r.Get("/", s.GetMember)
			r.Put("/", s.EditMember)
			r.Put("/start", s.CorrectMembershipStart)
			r.Post("/unsubscribe", s.UnsubscribeMember)
			r.Get("/rides/first", s.GetFirstRideOfMember)
			r.Get("/rides/open", s.ListOpenRidesOfMember)
		})
	})

	r.Route("/rides", func(r chi.Router) {
		r.Post("/", s.OpenRide)
		r.Get("/", s.ListRides)
		r.Get("/export", s.GetExport)
		r.Route("/{rideId}", func(r chi.Router) {
			r.Get("/", s.GetRide)
			r.Post("/close", s.CloseRide)
		})
	})
}
