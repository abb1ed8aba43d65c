package handler

import (
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/EgonMoreau/VivesBike/internal/domain"
)

// MemberRequest is the body of POST /members and PUT /members/{memberId}.
// On enrollment start_date must be absent; it is assigned by the server.
type MemberRequest struct {
	ID        string              `json:"id"`
	FirstName string              `json:"first_name"`
	LastName  string              `json:"last_name"`
	Email     string              `json:"email"`
	StartDate *openapi_types.Date `json:"start_date,omitempty"`
	EndDate   *openapi_types.Date `json:"end_date,omitempty"`
	Note      string              `json:"note,omitempty"`
}

// MemberResponse is the JSON form of a member. Membership dates carry no
// time of day.
type MemberResponse struct {
	ID        string              `json:"id"`
	FirstName string              `json:"first_name"`
	LastName  string              `json:"last_name"`
	Email     string              `json:"email"`
	StartDate *openapi_types.Date `json:"start_date,omitempty"`
	EndDate   *openapi_types.Date `json:"end_date,omitempty"`
	Note      string              `json:"note,omitempty"`
	Active    bool                `json:"active"`
}

// CorrectStartRequest is the body of PUT /members/{memberId}/start.
type CorrectStartRequest struct {
	StartDate *openapi_types.Date `json:"start_date"`
}

// EnrollMember handles POST /members.
func (s *Server) EnrollMember(w http.ResponseWriter, r *http.Request) {
	var body MemberRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	m := requestToMember(body)
	created, err := s.members.Enroll(r.Context(), &m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, memberToResponse(created))
}

// ListMembers handles GET /members, ordered by last name then first name.
// Supports ?page= and ?limit= query parameters.
func (s *Server) ListMembers(w http.ResponseWriter, r *http.Request) {
	p, err := paginationParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	members, err := s.members.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]MemberResponse, len(members))
	for i, m := range members {
		out[i] = memberToResponse(m)
	}
	writeJSON(w, http.StatusOK, newPage(out, p))
}

// GetMember handles GET /members/{memberId}.
func (s *Server) GetMember(w http.ResponseWriter, r *http.Request) {
	id, err := memberIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.members.Find(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if m == nil {
		s.notFound(w, r, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, memberToResponse(*m))
}

// EditMember handles PUT /members/{memberId}. The id in the path wins over
// any id in the body.
func (s *Server) EditMember(w http.ResponseWriter, r *http.Request) {
	id, err := memberIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body MemberRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	m := requestToMember(body)
	m.ID = id
	if err := s.members.Edit(r.Context(), &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CorrectMembershipStart handles PUT /members/{memberId}/start.
func (s *Server) CorrectMembershipStart(w http.ResponseWriter, r *http.Request) {
	id, err := memberIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body CorrectStartRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.members.CorrectStart(r.Context(), id, fromDate(body.StartDate)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnsubscribeMember handles POST /members/{memberId}/unsubscribe.
func (s *Server) UnsubscribeMember(w http.ResponseWriter, r *http.Request) {
	id, err := memberIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.members.Unsubscribe(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFirstRideOfMember handles GET /members/{memberId}/rides/first.
// A member who never rode gets 204 No Content.
func (s *Server) GetFirstRideOfMember(w http.ResponseWriter, r *http.Request) {
	id, err := memberIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ride, err := s.rides.FirstOfMember(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ride == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

// ListOpenRidesOfMember handles GET /members/{memberId}/rides/open.
func (s *Server) ListOpenRidesOfMember(w http.ResponseWriter, r *http.Request) {
	id, err := memberIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rides, err := s.rides.OpenOfMember(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rides)
}

// --- mapping helpers --------------------------------------------------------

func requestToMember(body MemberRequest) domain.Member {
	return domain.Member{
		ID:        body.ID,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
		StartDate: fromDate(body.StartDate),
		EndDate:   fromDate(body.EndDate),
		Note:      body.Note,
	}
}

func memberToResponse(m domain.Member) MemberResponse {
	return MemberResponse{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		StartDate: toDate(m.StartDate),
		EndDate:   toDate(m.EndDate),
		Note:      m.Note,
		Active:    m.Active(),
	}
}

func fromDate(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func toDate(t *time.Time) *openapi_types.Date {
	if t == nil {
		return nil
	}
	return &openapi_types.Date{Time: t.UTC()}
}
