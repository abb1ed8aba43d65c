package handler

import (
	"context"
	"net/http"

	"github.com/EgonMoreau/VivesBike/internal/domain"
)

// RegisterBikeRequest is the body of POST /bikes.
// Status is required and checked for validity; new bikes still start active.
type RegisterBikeRequest struct {
	Status   domain.BikeStatus `json:"status"`
	Location domain.Station    `json:"location"`
	Note     string            `json:"note,omitempty"`
}

// ChangeStatusRequest is the body of PUT /bikes/{bikeId}/status.
type ChangeStatusRequest struct {
	Status domain.BikeStatus `json:"status"`
}

// ChangeNoteRequest is the body of PUT /bikes/{bikeId}/note.
// A missing note is rejected; an empty string clears it.
type ChangeNoteRequest struct {
	Note *string `json:"note"`
}

// CreatedResponse returns the generated key of a new bike or ride.
type CreatedResponse struct {
	ID int64 `json:"id"`
}

// RegisterBike handles POST /bikes.
func (s *Server) RegisterBike(w http.ResponseWriter, r *http.Request) {
	var body RegisterBikeRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.bikes.Register(r.Context(), domain.Bike{
		Status:   body.Status,
		Location: body.Location,
		Note:     body.Note,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

// ListBikes handles GET /bikes.
// Supports ?page= and ?limit= query parameters.
func (s *Server) ListBikes(w http.ResponseWriter, r *http.Request) {
	s.listBikes(w, r, s.bikes.List)
}

// ListAvailableBikes handles GET /bikes/available.
func (s *Server) ListAvailableBikes(w http.ResponseWriter, r *http.Request) {
	s.listBikes(w, r, s.bikes.ListAvailable)
}

func (s *Server) listBikes(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]domain.Bike, error)) {
	p, err := paginationParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bikes, err := list(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(bikes, p))
}

// GetBike handles GET /bikes/{bikeId}.
func (s *Server) GetBike(w http.ResponseWriter, r *http.Request) {
	id, err := bikeIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bike, err := s.bikes.Find(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if bike == nil {
		s.notFound(w, r, "bike not found")
		return
	}
	writeJSON(w, http.StatusOK, bike)
}

// ChangeBikeStatus handles PUT /bikes/{bikeId}/status.
func (s *Server) ChangeBikeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := bikeIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body ChangeStatusRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.bikes.ChangeStatus(r.Context(), id, body.Status); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangeBikeNote handles PUT /bikes/{bikeId}/note.
func (s *Server) ChangeBikeNote(w http.ResponseWriter, r *http.Request) {
	id, err := bikeIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body ChangeNoteRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.bikes.ChangeNote(r.Context(), id, body.Note); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkBikeInRepair handles POST /bikes/{bikeId}/repair.
func (s *Server) MarkBikeInRepair(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.bikes.MarkInRepair)
}

// MarkBikeRetired handles POST /bikes/{bikeId}/retire.
func (s *Server) MarkBikeRetired(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.bikes.MarkRetired)
}

// MarkBikeActive handles POST /bikes/{bikeId}/activate.
func (s *Server) MarkBikeActive(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.bikes.MarkActive)
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request, mark func(context.Context, int64) error) {
	id, err := bikeIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := mark(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOpenRidesOfBike handles GET /bikes/{bikeId}/rides/open.
// An unknown bike yields an empty list, not a 404.
func (s *Server) ListOpenRidesOfBike(w http.ResponseWriter, r *http.Request) {
	id, err := bikeIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rides, err := s.rides.OpenOfBike(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rides)
}
