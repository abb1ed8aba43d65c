package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/EgonMoreau/VivesBike/internal/domain"
)

// OpenRideRequest is the body of POST /rides.
// started_at exists only to be rejected: the server assigns the start time.
type OpenRideRequest struct {
	MemberID  string     `json:"member_id"`
	BikeID    int64      `json:"bike_id"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// OpenRide handles POST /rides.
func (s *Server) OpenRide(w http.ResponseWriter, r *http.Request) {
	var body OpenRideRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	// Any value counts, including the zero time.
	if body.StartedAt != nil {
		s.writeError(w, r, fmt.Errorf("%w: start time is assigned automatically", domain.ErrValidation))
		return
	}

	id, err := s.rides.Open(r.Context(), domain.Ride{MemberID: body.MemberID, BikeID: body.BikeID})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

// ListRides handles GET /rides, ordered by id.
// Supports ?page= and ?limit= query parameters.
func (s *Server) ListRides(w http.ResponseWriter, r *http.Request) {
	p, err := paginationParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rides, err := s.rides.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(rides, p))
}

// GetRide handles GET /rides/{rideId}.
func (s *Server) GetRide(w http.ResponseWriter, r *http.Request) {
	id, err := rideIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ride, err := s.rides.Find(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ride == nil {
		s.notFound(w, r, "ride not found")
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

// CloseRide handles POST /rides/{rideId}/close and returns the priced ride.
func (s *Server) CloseRide(w http.ResponseWriter, r *http.Request) {
	id, err := rideIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	closed, err := s.rides.Close(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, closed)
}
