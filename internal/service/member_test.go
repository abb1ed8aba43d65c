package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgonMoreau/VivesBike/internal/clock"
	"github.com/EgonMoreau/VivesBike/internal/domain"
	"github.com/EgonMoreau/VivesBike/internal/service"
)

var enrollTime = time.Date(2025, time.March, 14, 15, 4, 5, 0, time.UTC)

func validMember() *domain.Member {
	return &domain.Member{
		ID:        "64101612335",
		FirstName: "Andres",
		LastName:  "Sabbe",
		Email:     "andres.sabbe@vives.be",
	}
}

func newMemberService(members *mockMemberRepo, rides *mockRideQuery) *service.MemberService {
	if rides == nil {
		rides = &mockRideQuery{}
	}
	return service.NewMemberService(members, rides, clock.NewManual(enrollTime))
}

// activeStored returns a getByID func that finds an active member enrolled
// on 2025-01-01.
func activeStored() func(context.Context, string) (domain.Member, error) {
	return func(_ context.Context, id string) (domain.Member, error) {
		m := *validMember()
		m.ID = id
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		m.StartDate = &start
		return m, nil
	}
}

// ---- Email -----------------------------------------------------------------

func TestValidEmail(t *testing.T) {
	valid := []string{
		"a@b.be",
		"andres.sabbe@vives.be",
		"first-last_1@mail.example.com",
		"x@y.z",
	}
	invalid := []string{
		"",
		"plain",
		"@vives.be",
		"a@vives",
		"a.@vives.be",
		"a@vives.",
		"a b@vives.be",
		"a@@vives.be",
	}
	for _, e := range valid {
		assert.True(t, service.ValidEmail(e), "expected %q to be valid", e)
	}
	for _, e := range invalid {
		assert.False(t, service.ValidEmail(e), "expected %q to be invalid", e)
	}
}

// ---- Enroll ----------------------------------------------------------------

func TestMemberService_Enroll_OK(t *testing.T) {
	var saved domain.Member
	svc := newMemberService(&mockMemberRepo{
		create: func(_ context.Context, m domain.Member) (domain.Member, error) {
			saved = m
			return m, nil
		},
	}, nil)

	got, err := svc.Enroll(context.Background(), validMember())

	require.NoError(t, err)
	require.NotNil(t, saved.StartDate)
	assert.Equal(t, time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC), *saved.StartDate, "start is the enrollment day")
	assert.Nil(t, saved.EndDate)
	assert.Equal(t, "64101612335", got.ID)
}

func TestMemberService_Enroll_ValidationOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.Member)
		reason string
	}{
		{"blank last name", func(m *domain.Member) { m.LastName = " "; m.FirstName = "" }, "last name is required"},
		{"blank first name", func(m *domain.Member) { m.FirstName = ""; m.ID = "" }, "first name is required"},
		{"blank id", func(m *domain.Member) { m.ID = ""; m.Email = "" }, "member id is required"},
		{"blank email", func(m *domain.Member) { m.Email = "" }, "email is required"},
		{"malformed email", func(m *domain.Member) {
			m.Email = "not-an-email"
			now := time.Now()
			m.StartDate = &now
		}, "is invalid"},
		{"start date supplied", func(m *domain.Member) {
			now := time.Now()
			m.StartDate = &now
		}, "start date is assigned automatically"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newMemberService(&mockMemberRepo{}, nil)
			m := validMember()
			tc.mutate(m)

			_, err := svc.Enroll(context.Background(), m)

			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tc.reason)
		})
	}
}

func TestMemberService_Enroll_Nil(t *testing.T) {
	svc := newMemberService(&mockMemberRepo{}, nil)

	_, err := svc.Enroll(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMemberService_Enroll_Duplicate(t *testing.T) {
	svc := newMemberService(&mockMemberRepo{getByID: activeStored()}, nil)

	_, err := svc.Enroll(context.Background(), validMember())

	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ---- Edit ------------------------------------------------------------------

func TestMemberService_Edit_OK_KeepsStoredStart(t *testing.T) {
	var saved domain.Member
	svc := newMemberService(&mockMemberRepo{
		getByID: activeStored(),
		update: func(_ context.Context, m domain.Member) (domain.Member, error) {
			saved = m
			return m, nil
		},
	}, nil)

	m := validMember()
	m.Email = "new@vives.be"
	m.Note = "moved"

	require.NoError(t, svc.Edit(context.Background(), m))
	assert.Equal(t, "new@vives.be", saved.Email)
	assert.Equal(t, "moved", saved.Note)
	require.NotNil(t, saved.StartDate)
	assert.Equal(t, 2025, saved.StartDate.Year())
}

func TestMemberService_Edit_Rejections(t *testing.T) {
	ended := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("nil", func(t *testing.T) {
		err := newMemberService(&mockMemberRepo{}, nil).Edit(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
	t.Run("end date on request", func(t *testing.T) {
		m := validMember()
		m.EndDate = &ended
		err := newMemberService(&mockMemberRepo{getByID: activeStored()}, nil).Edit(context.Background(), m)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
	t.Run("stored member unsubscribed", func(t *testing.T) {
		svc := newMemberService(&mockMemberRepo{
			getByID: func(_ context.Context, id string) (domain.Member, error) {
				m := *validMember()
				m.EndDate = &ended
				return m, nil
			},
		}, nil)
		err := svc.Edit(context.Background(), validMember())
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
	t.Run("bad email", func(t *testing.T) {
		m := validMember()
		m.Email = "nope"
		err := newMemberService(&mockMemberRepo{getByID: activeStored()}, nil).Edit(context.Background(), m)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
	t.Run("missing", func(t *testing.T) {
		err := newMemberService(&mockMemberRepo{}, nil).Edit(context.Background(), validMember())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

// ---- CorrectStart ----------------------------------------------------------

func TestMemberService_CorrectStart_NoRides(t *testing.T) {
	var saved domain.Member
	svc := newMemberService(&mockMemberRepo{
		getByID: activeStored(),
		update: func(_ context.Context, m domain.Member) (domain.Member, error) {
			saved = m
			return m, nil
		},
	}, nil)

	newStart := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.CorrectStart(context.Background(), "64101612335", &newStart))
	require.NotNil(t, saved.StartDate)
	assert.True(t, newStart.Equal(*saved.StartDate))
}

func TestMemberService_CorrectStart_AgainstFirstRide(t *testing.T) {
	firstRide := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	rides := &mockRideQuery{
		firstOfMember: func(_ context.Context, _ string) (*domain.Ride, error) {
			return &domain.Ride{ID: 1, StartedAt: firstRide}, nil
		},
	}
	update := func(_ context.Context, m domain.Member) (domain.Member, error) { return m, nil }

	t.Run("before first ride", func(t *testing.T) {
		svc := newMemberService(&mockMemberRepo{getByID: activeStored(), update: update}, rides)
		newStart := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
		assert.NoError(t, svc.CorrectStart(context.Background(), "64101612335", &newStart))
	})
	t.Run("after first ride", func(t *testing.T) {
		svc := newMemberService(&mockMemberRepo{getByID: activeStored(), update: update}, rides)
		newStart := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)
		err := svc.CorrectStart(context.Background(), "64101612335", &newStart)
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.Contains(t, err.Error(), "later than first ride")
	})
	t.Run("same instant as first ride", func(t *testing.T) {
		midnight := &mockRideQuery{
			firstOfMember: func(_ context.Context, _ string) (*domain.Ride, error) {
				return &domain.Ride{ID: 1, StartedAt: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)}, nil
			},
		}
		svc := newMemberService(&mockMemberRepo{getByID: activeStored(), update: update}, midnight)
		newStart := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
		err := svc.CorrectStart(context.Background(), "64101612335", &newStart)
		assert.ErrorIs(t, err, domain.ErrValidation, "first ride must be strictly after the new start")
	})
}

func TestMemberService_CorrectStart_Rejections(t *testing.T) {
	start := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	ended := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	err := newMemberService(&mockMemberRepo{}, nil).CorrectStart(context.Background(), "", &start)
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = newMemberService(&mockMemberRepo{getByID: activeStored()}, nil).CorrectStart(context.Background(), "1", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = newMemberService(&mockMemberRepo{}, nil).CorrectStart(context.Background(), "1", &start)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	svc := newMemberService(&mockMemberRepo{
		getByID: func(_ context.Context, id string) (domain.Member, error) {
			return domain.Member{ID: id, EndDate: &ended}, nil
		},
	}, nil)
	err = svc.CorrectStart(context.Background(), "1", &start)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ---- Unsubscribe -----------------------------------------------------------

func TestMemberService_Unsubscribe_OK(t *testing.T) {
	var (
		savedID  string
		savedEnd time.Time
	)
	svc := newMemberService(&mockMemberRepo{
		getByID: activeStored(),
		end: func(_ context.Context, id string, end time.Time) (domain.Member, error) {
			savedID, savedEnd = id, end
			return domain.Member{ID: id, EndDate: &end}, nil
		},
	}, nil)

	require.NoError(t, svc.Unsubscribe(context.Background(), "64101612335"))
	assert.Equal(t, "64101612335", savedID)
	assert.Equal(t, time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC), savedEnd)
}

func TestMemberService_Unsubscribe_LostRaceIsConflict(t *testing.T) {
	svc := newMemberService(&mockMemberRepo{
		getByID: activeStored(),
		end: func(_ context.Context, id string, _ time.Time) (domain.Member, error) {
			return domain.Member{}, fmt.Errorf("repo.MemberRepo.End: %w: member %s is not active", domain.ErrConflict, id)
		},
	}, nil)

	err := svc.Unsubscribe(context.Background(), "64101612335")

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestMemberService_Unsubscribe_OpenRide(t *testing.T) {
	svc := newMemberService(&mockMemberRepo{getByID: activeStored()}, &mockRideQuery{
		openOfMember: func(_ context.Context, id string) ([]domain.Ride, error) {
			return []domain.Ride{{ID: 9, MemberID: id}}, nil
		},
	})

	err := svc.Unsubscribe(context.Background(), "64101612335")

	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "open rides")
}

func TestMemberService_Unsubscribe_Twice(t *testing.T) {
	ended := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	svc := newMemberService(&mockMemberRepo{
		getByID: func(_ context.Context, id string) (domain.Member, error) {
			return domain.Member{ID: id, EndDate: &ended}, nil
		},
	}, nil)

	err := svc.Unsubscribe(context.Background(), "64101612335")

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestMemberService_Unsubscribe_Missing(t *testing.T) {
	err := newMemberService(&mockMemberRepo{}, nil).Unsubscribe(context.Background(), "64101612335")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- Find ------------------------------------------------------------------

func TestMemberService_Find(t *testing.T) {
	svc := newMemberService(&mockMemberRepo{}, nil)

	got, err := svc.Find(context.Background(), "64101612335")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = svc.Find(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
