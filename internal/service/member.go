package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/EgonMoreau/VivesBike/internal/clock"
	"github.com/EgonMoreau/VivesBike/internal/domain"
	"github.com/EgonMoreau/VivesBike/internal/repo"
)

// emailPattern accepts local@label.label.tld: the local part is word
// characters, hyphens and dots and may not end in a dot.
var emailPattern = regexp.MustCompile(`^[\w\-.]*[\w\-]@(\w+\.)+\w+$`)

// ValidEmail reports whether s is an acceptable member email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// MemberService implements the member lifecycle rules.
// It holds a RideQuery because unsubscribing and correcting the start date
// depend on the member's rides.
type MemberService struct {
	members repo.MemberRepo
	rides   RideQuery
	clock   clock.Clock
}

// NewMemberService constructs a MemberService. Membership dates are taken
// from clk.
func NewMemberService(members repo.MemberRepo, rides RideQuery, clk clock.Clock) *MemberService {
	return &MemberService{members: members, rides: rides, clock: clk}
}

// Enroll validates and persists a new member. The start date is set to
// today and may not be supplied by the caller.
// Returns domain.ErrConflict if the member already exists.
func (s *MemberService) Enroll(ctx context.Context, m *domain.Member) (domain.Member, error) {
	if m == nil {
		return domain.Member{}, fmt.Errorf("%w: member is missing", domain.ErrValidation)
	}
	if err := validateMember(*m); err != nil {
		return domain.Member{}, err
	}
	if m.StartDate != nil {
		return domain.Member{}, fmt.Errorf("%w: start date is assigned automatically", domain.ErrValidation)
	}

	existing, err := s.Find(ctx, m.ID)
	if err != nil {
		return domain.Member{}, fmt.Errorf("service.MemberService.Enroll: %w", err)
	}
	if existing != nil {
		return domain.Member{}, fmt.Errorf("%w: member %s already exists", domain.ErrConflict, m.ID)
	}

	in := *m
	today := s.today()
	in.StartDate = &today
	in.EndDate = nil

	created, err := s.members.Create(ctx, in)
	if err != nil {
		return domain.Member{}, fmt.Errorf("service.MemberService.Enroll: %w", err)
	}
	return created, nil
}

// Edit overwrites names, email, dates and note of an active member.
// A member whose membership has ended can no longer be edited. A nil start
// date keeps the stored one.
func (s *MemberService) Edit(ctx context.Context, m *domain.Member) error {
	if m == nil {
		return fmt.Errorf("%w: member is missing", domain.ErrValidation)
	}
	if m.EndDate != nil {
		return errUnsubscribedEdit
	}
	if err := validateMember(*m); err != nil {
		return err
	}

	stored, err := s.members.GetByID(ctx, m.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: member %s does not exist", domain.ErrNotFound, m.ID)
	}
	if err != nil {
		return fmt.Errorf("service.MemberService.Edit: %w", err)
	}
	if !stored.Active() {
		return errUnsubscribedEdit
	}

	in := *m
	if in.StartDate == nil {
		in.StartDate = stored.StartDate
	}
	if _, err := s.members.Update(ctx, in); err != nil {
		return fmt.Errorf("service.MemberService.Edit: %w", err)
	}
	return nil
}

var errUnsubscribedEdit = fmt.Errorf("%w: member is unsubscribed and cannot be modified", domain.ErrValidation)

// CorrectStart moves the membership start date of an active member. The new
// start must lie strictly before the member's first ride, if there is one.
func (s *MemberService) CorrectStart(ctx context.Context, id string, start *time.Time) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: member id is required", domain.ErrValidation)
	}
	if start == nil {
		return fmt.Errorf("%w: start date missing", domain.ErrValidation)
	}

	m, err := s.mustFind(ctx, id)
	if err != nil {
		return fmt.Errorf("service.MemberService.CorrectStart: %w", err)
	}
	if !m.Active() {
		return fmt.Errorf("%w: member %s already unsubscribed", domain.ErrConflict, id)
	}

	newStart := dateOf(*start)
	first, err := s.rides.FirstOfMember(ctx, id)
	if err != nil {
		return fmt.Errorf("service.MemberService.CorrectStart: %w", err)
	}
	if first != nil && !first.StartedAt.After(newStart) {
		return fmt.Errorf("%w: start date later than first ride", domain.ErrValidation)
	}

	m.StartDate = &newStart
	return s.Edit(ctx, m)
}

// Unsubscribe ends the membership today. A member with an open ride has to
// return the bike first.
func (s *MemberService) Unsubscribe(ctx context.Context, id string) error {
	m, err := s.mustFind(ctx, id)
	if err != nil {
		return fmt.Errorf("service.MemberService.Unsubscribe: %w", err)
	}
	if !m.Active() {
		return fmt.Errorf("%w: member %s already unsubscribed", domain.ErrConflict, id)
	}

	open, err := s.rides.OpenOfMember(ctx, id)
	if err != nil {
		return fmt.Errorf("service.MemberService.Unsubscribe: %w", err)
	}
	if len(open) > 0 {
		return fmt.Errorf("%w: member %s has open rides", domain.ErrConflict, id)
	}

	if _, err := s.members.End(ctx, id, s.today()); err != nil {
		return fmt.Errorf("service.MemberService.Unsubscribe: %w", err)
	}
	return nil
}

// Find returns the member with the given id, or nil if there is none.
func (s *MemberService) Find(ctx context.Context, id string) (*domain.Member, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: member id is required", domain.ErrValidation)
	}
	m, err := s.members.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service.MemberService.Find: %w", err)
	}
	return &m, nil
}

// List returns all members ordered by last name, then first name.
func (s *MemberService) List(ctx context.Context) ([]domain.Member, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.MemberService.List: %w", err)
	}
	if members == nil {
		return []domain.Member{}, nil
	}
	return members, nil
}

// mustFind is Find with a missing member reported as ErrNotFound.
func (s *MemberService) mustFind(ctx context.Context, id string) (*domain.Member, error) {
	m, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: member %s does not exist", domain.ErrNotFound, id)
	}
	return m, nil
}

func (s *MemberService) today() time.Time {
	return dateOf(s.clock.Now())
}

// dateOf truncates t to midnight UTC of its calendar day. Membership dates
// carry no time of day.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// validateMember enforces the field rules shared by Enroll and Edit.
// The first failing rule wins.
func validateMember(m domain.Member) error {
	switch {
	case strings.TrimSpace(m.LastName) == "":
		return fmt.Errorf("%w: last name is required", domain.ErrValidation)
	case strings.TrimSpace(m.FirstName) == "":
		return fmt.Errorf("%w: first name is required", domain.ErrValidation)
	case strings.TrimSpace(m.ID) == "":
		return fmt.Errorf("%w: member id is required", domain.ErrValidation)
	case strings.TrimSpace(m.Email) == "":
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	case !ValidEmail(m.Email):
		return fmt.Errorf("%w: email %q is invalid", domain.ErrValidation, m.Email)
	}
	return nil
}
