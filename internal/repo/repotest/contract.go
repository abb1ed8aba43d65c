// Package repotest holds a behavioural contract that every implementation of
// the repo interfaces must satisfy. The Postgres stores and the in-memory
// stores both run it, so the service layer can rely on identical semantics.
//
// Assertions only look at rows the contract itself created, so the suite also
// runs against a shared database that already holds data.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgonMoreau/VivesBike/internal/domain"
	"github.com/EgonMoreau/VivesBike/internal/repo"
)

// Stores groups one implementation of each repository. All three must share
// the same underlying state.
type Stores struct {
	Members repo.MemberRepo
	Bikes   repo.BikeRepo
	Rides   repo.RideRepo
}

// Factory returns a fresh set of stores for a single subtest.
type Factory func(t *testing.T) Stores

// Run executes the full contract against stores produced by newStores.
func Run(t *testing.T, newStores Factory) {
	t.Helper()

	t.Run("Member", func(t *testing.T) { runMember(t, newStores) })
	t.Run("Bike", func(t *testing.T) { runBike(t, newStores) })
	t.Run("Ride", func(t *testing.T) { runRide(t, newStores) })
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sampleMember(id, first, last string) domain.Member {
	return domain.Member{
		ID:        id,
		FirstName: first,
		LastName:  last,
		Email:     first + "." + last + "@example.be",
		StartDate: day(2024, time.March, 1),
	}
}

func sampleBike(location domain.Station) domain.Bike {
	return domain.Bike{Status: domain.BikeActive, Location: location, Note: "new"}
}

func runMember(t *testing.T, newStores Factory) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		s := newStores(t)

		in := sampleMember("64101612335", "Andres", "Sabbe")
		in.Note = "founding member"
		created, err := s.Members.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, in.ID, created.ID)

		got, err := s.Members.GetByID(ctx, in.ID)
		require.NoError(t, err)
		assert.Equal(t, "Andres", got.FirstName)
		assert.Equal(t, "Sabbe", got.LastName)
		assert.Equal(t, in.Email, got.Email)
		assert.Equal(t, "founding member", got.Note)
		require.NotNil(t, got.StartDate)
		assert.True(t, in.StartDate.Equal(*got.StartDate), "start date round-trips")
		assert.Nil(t, got.EndDate)
	})

	t.Run("CreateDuplicateIsConflict", func(t *testing.T) {
		s := newStores(t)

		_, err := s.Members.Create(ctx, sampleMember("90010100123", "An", "Peeters"))
		require.NoError(t, err)

		_, err = s.Members.Create(ctx, sampleMember("90010100123", "Bart", "Peeters"))
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("GetMissingIsNotFound", func(t *testing.T) {
		s := newStores(t)

		_, err := s.Members.GetByID(ctx, "00000000000")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		s := newStores(t)

		m, err := s.Members.Create(ctx, sampleMember("85020200456", "Els", "Janssens"))
		require.NoError(t, err)

		m.Email = "els@vives.be"
		m.Note = "moved to Brugge"
		_, err = s.Members.Update(ctx, m)
		require.NoError(t, err)

		got, err := s.Members.GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, "els@vives.be", got.Email)
		assert.Equal(t, "moved to Brugge", got.Note)
		assert.Nil(t, got.EndDate)
	})

	t.Run("EndOnce", func(t *testing.T) {
		s := newStores(t)

		m, err := s.Members.Create(ctx, sampleMember("85020200457", "Jan", "Janssens"))
		require.NoError(t, err)

		end := day(2025, time.January, 31)
		ended, err := s.Members.End(ctx, m.ID, *end)
		require.NoError(t, err)
		require.NotNil(t, ended.EndDate)
		assert.True(t, end.Equal(*ended.EndDate))

		_, err = s.Members.End(ctx, m.ID, *day(2025, time.February, 28))
		assert.ErrorIs(t, err, domain.ErrConflict, "already unsubscribed")

		got, err := s.Members.GetByID(ctx, m.ID)
		require.NoError(t, err)
		require.NotNil(t, got.EndDate)
		assert.True(t, end.Equal(*got.EndDate), "first end date stands")
	})

	t.Run("UpdateKeepsEndDate", func(t *testing.T) {
		s := newStores(t)

		m, err := s.Members.Create(ctx, sampleMember("85020200458", "An", "Janssens"))
		require.NoError(t, err)
		_, err = s.Members.End(ctx, m.ID, *day(2025, time.January, 31))
		require.NoError(t, err)

		// A stale copy without end date must not reactivate the member.
		m.Note = "late edit"
		_, err = s.Members.Update(ctx, m)
		require.NoError(t, err)

		got, err := s.Members.GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, "late edit", got.Note)
		assert.NotNil(t, got.EndDate)
	})

	t.Run("EndMissingIsConflict", func(t *testing.T) {
		s := newStores(t)

		_, err := s.Members.End(ctx, "00000000000", *day(2025, time.January, 31))
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("UpdateMissingIsNotFound", func(t *testing.T) {
		s := newStores(t)

		_, err := s.Members.Update(ctx, sampleMember("00000000000", "No", "Body"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ListOrderedByName", func(t *testing.T) {
		s := newStores(t)

		for _, m := range []domain.Member{
			sampleMember("70010100001", "Zoe", "Aerts"),
			sampleMember("70010100002", "Jan", "Wouters"),
			sampleMember("70010100003", "Anna", "Aerts"),
		} {
			_, err := s.Members.Create(ctx, m)
			require.NoError(t, err)
		}

		got, err := s.Members.List(ctx)
		require.NoError(t, err)

		var order []string
		for _, m := range got {
			switch m.ID {
			case "70010100001", "70010100002", "70010100003":
				order = append(order, m.ID)
			}
		}
		assert.Equal(t, []string{"70010100003", "70010100001", "70010100002"}, order)
	})
}

func runBike(t *testing.T, newStores Factory) {
	ctx := context.Background()

	t.Run("CreateAssignsID", func(t *testing.T) {
		s := newStores(t)

		a, err := s.Bikes.Create(ctx, sampleBike(domain.StationKortrijk))
		require.NoError(t, err)
		b, err := s.Bikes.Create(ctx, sampleBike(domain.StationBrugge))
		require.NoError(t, err)

		assert.NotZero(t, a.ID)
		assert.Greater(t, b.ID, a.ID, "ids are increasing")
		assert.Equal(t, domain.StationKortrijk, a.Location)
		assert.Equal(t, domain.BikeActive, a.Status)
		assert.Equal(t, "new", a.Note)
	})

	t.Run("GetMissingIsNotFound", func(t *testing.T) {
		s := newStores(t)

		_, err := s.Bikes.GetByID(ctx, 987654321)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("SetStatusAndNote", func(t *testing.T) {
		s := newStores(t)

		b, err := s.Bikes.Create(ctx, sampleBike(domain.StationOostende))
		require.NoError(t, err)

		require.NoError(t, s.Bikes.SetStatus(ctx, b.ID, domain.BikeInRepair))
		require.NoError(t, s.Bikes.SetNote(ctx, b.ID, "flat tyre"))

		got, err := s.Bikes.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BikeInRepair, got.Status)
		assert.Equal(t, "flat tyre", got.Note)
		assert.Equal(t, domain.StationOostende, got.Location)
	})

	t.Run("SetOnMissingIsNotFound", func(t *testing.T) {
		s := newStores(t)

		err := s.Bikes.SetStatus(ctx, 987654321, domain.BikeRetired)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		err = s.Bikes.SetNote(ctx, 987654321, "gone")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ListAvailable", func(t *testing.T) {
		s := newStores(t)

		_, err := s.Members.Create(ctx, sampleMember("75050500050", "Piet", "Claes"))
		require.NoError(t, err)

		free, err := s.Bikes.Create(ctx, sampleBike(domain.StationKortrijk))
		require.NoError(t, err)
		rented, err := s.Bikes.Create(ctx, sampleBike(domain.StationKortrijk))
		require.NoError(t, err)
		broken := sampleBike(domain.StationKortrijk)
		broken.Status = domain.BikeInRepair
		broken, err = s.Bikes.Create(ctx, broken)
		require.NoError(t, err)
		returned, err := s.Bikes.Create(ctx, sampleBike(domain.StationBrugge))
		require.NoError(t, err)

		start := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)
		_, err = s.Rides.Create(ctx, domain.Ride{MemberID: "75050500050", BikeID: rented.ID, StartedAt: start})
		require.NoError(t, err)

		// A bike with only a closed ride is available again.
		_, err = s.Members.Create(ctx, sampleMember("75050500051", "Mie", "Claes"))
		require.NoError(t, err)
		closed, err := s.Rides.Create(ctx, domain.Ride{MemberID: "75050500051", BikeID: returned.ID, StartedAt: start})
		require.NoError(t, err)
		end := start.Add(time.Hour)
		price := domain.Money(100)
		closed.EndedAt, closed.Price = &end, &price
		_, err = s.Rides.Update(ctx, closed)
		require.NoError(t, err)

		got, err := s.Bikes.ListAvailable(ctx)
		require.NoError(t, err)

		ids := bikeIDs(got)
		assert.Contains(t, ids, free.ID)
		assert.Contains(t, ids, returned.ID)
		assert.NotContains(t, ids, rented.ID, "bike with open ride")
		assert.NotContains(t, ids, broken.ID, "bike in repair")
	})

	t.Run("ListOrderedByID", func(t *testing.T) {
		s := newStores(t)

		for i := 0; i < 3; i++ {
			_, err := s.Bikes.Create(ctx, sampleBike(domain.StationBrugge))
			require.NoError(t, err)
		}

		got, err := s.Bikes.List(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(got), 3)
		for i := 1; i < len(got); i++ {
			assert.Less(t, got[i-1].ID, got[i].ID)
		}
	})
}

func runRide(t *testing.T, newStores Factory) {
	ctx := context.Background()
	start := time.Date(2025, time.June, 10, 8, 30, 0, 0, time.UTC)

	// seed creates two members and two bikes and returns their keys.
	seed := func(t *testing.T, s Stores) (m1, m2 string, b1, b2 int64) {
		t.Helper()
		m1, m2 = "80080800001", "80080800002"
		for _, id := range []string{m1, m2} {
			_, err := s.Members.Create(ctx, sampleMember(id, "Rider", id))
			require.NoError(t, err)
		}
		bike1, err := s.Bikes.Create(ctx, sampleBike(domain.StationKortrijk))
		require.NoError(t, err)
		bike2, err := s.Bikes.Create(ctx, sampleBike(domain.StationOostende))
		require.NoError(t, err)
		return m1, m2, bike1.ID, bike2.ID
	}

	t.Run("CreateAndGet", func(t *testing.T) {
		s := newStores(t)
		m1, _, b1, _ := seed(t, s)

		created, err := s.Rides.Create(ctx, domain.Ride{MemberID: m1, BikeID: b1, StartedAt: start})
		require.NoError(t, err)
		assert.NotZero(t, created.ID)

		got, err := s.Rides.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, m1, got.MemberID)
		assert.Equal(t, b1, got.BikeID)
		assert.True(t, start.Equal(got.StartedAt))
		assert.True(t, got.Open())
		assert.Nil(t, got.Price)
	})

	t.Run("GetMissingIsNotFound", func(t *testing.T) {
		s := newStores(t)

		_, err := s.Rides.GetByID(ctx, 987654321)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	// A failed statement aborts a Postgres transaction, so each failing write
	// gets its own subtest.
	t.Run("UnknownMemberIsNotFound", func(t *testing.T) {
		s := newStores(t)
		_, _, b1, _ := seed(t, s)

		_, err := s.Rides.Create(ctx, domain.Ride{MemberID: "00000000000", BikeID: b1, StartedAt: start})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("UnknownBikeIsNotFound", func(t *testing.T) {
		s := newStores(t)
		m1, _, _, _ := seed(t, s)

		_, err := s.Rides.Create(ctx, domain.Ride{MemberID: m1, BikeID: 987654321, StartedAt: start})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("SecondOpenRidePerBikeIsConflict", func(t *testing.T) {
		s := newStores(t)
		m1, m2, b1, _ := seed(t, s)

		_, err := s.Rides.Create(ctx, domain.Ride{MemberID: m1, BikeID: b1, StartedAt: start})
		require.NoError(t, err)

		_, err = s.Rides.Create(ctx, domain.Ride{MemberID: m2, BikeID: b1, StartedAt: start})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("SecondOpenRidePerMemberIsConflict", func(t *testing.T) {
		s := newStores(t)
		m1, _, b1, b2 := seed(t, s)

		_, err := s.Rides.Create(ctx, domain.Ride{MemberID: m1, BikeID: b1, StartedAt: start})
		require.NoError(t, err)

		_, err = s.Rides.Create(ctx, domain.Ride{MemberID: m1, BikeID: b2, StartedAt: start})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("UpdateClosesOnce", func(t *testing.T) {
		s := newStores(t)
		m1, _, b1, _ := seed(t, s)

		ride, err := s.Rides.Create(ctx, domain.Ride{MemberID: m1, BikeID: b1, StartedAt: start})
		require.NoError(t, err)

		end := start.Add(25 * time.Hour)
		price := domain.Money(200)
		ride.EndedAt, ride.Price = &end, &price
		closed, err := s.Rides.Update(ctx, ride)
		require.NoError(t, err)
		require.NotNil(t, closed.EndedAt)
		assert.True(t, end.Equal(*closed.EndedAt))
		require.NotNil(t, closed.Price)
		assert.Equal(t, domain.Money(200), *closed.Price)

		_, err = s.Rides.Update(ctx, ride)
		assert.ErrorIs(t, err, domain.ErrConflict, "closed ride cannot be closed again")

		// Once closed, both bike and member may ride again.
		_, err = s.Rides.Create(ctx, domain.Ride{MemberID: m1, BikeID: b1, StartedAt: end})
		assert.NoError(t, err)
	})

	t.Run("UpdateWithoutPriceIsValidation", func(t *testing.T) {
		s := newStores(t)
		m1, _, b1, _ := seed(t, s)

		ride, err := s.Rides.Create(ctx, domain.Ride{MemberID: m1, BikeID: b1, StartedAt: start})
		require.NoError(t, err)

		end := start.Add(time.Hour)
		ride.EndedAt = &end
		_, err = s.Rides.Update(ctx, ride)
		assert.ErrorIs(t, err, domain.ErrValidation, "end without price")

		ride.EndedAt = nil
		_, err = s.Rides.Update(ctx, ride)
		assert.ErrorIs(t, err, domain.ErrValidation, "neither end nor price")

		got, err := s.Rides.GetByID(ctx, ride.ID)
		require.NoError(t, err)
		assert.True(t, got.Open(), "ride stays open")
		assert.Nil(t, got.Price)
	})

	t.Run("FirstByMember", func(t *testing.T) {
		s := newStores(t)
		m1, m2, b1, b2 := seed(t, s)

		_, err := s.Rides.FirstByMember(ctx, m1)
		assert.ErrorIs(t, err, domain.ErrNotFound, "no rides yet")

		// Insert the later ride first so ID order and start order disagree.
		later, err := s.Rides.Create(ctx, domain.Ride{MemberID: m1, BikeID: b1, StartedAt: start.Add(48 * time.Hour)})
		require.NoError(t, err)
		end := later.StartedAt.Add(time.Hour)
		price := domain.Money(100)
		later.EndedAt, later.Price = &end, &price
		_, err = s.Rides.Update(ctx, later)
		require.NoError(t, err)

		earlier, err := s.Rides.Create(ctx, domain.Ride{MemberID: m1, BikeID: b2, StartedAt: start})
		require.NoError(t, err)
		_, err = s.Rides.Create(ctx, domain.Ride{MemberID: m2, BikeID: b1, StartedAt: start.Add(-time.Hour)})
		require.NoError(t, err)

		got, err := s.Rides.FirstByMember(ctx, m1)
		require.NoError(t, err)
		assert.Equal(t, earlier.ID, got.ID)
	})

	t.Run("OpenByMemberAndBike", func(t *testing.T) {
		s := newStores(t)
		m1, m2, b1, b2 := seed(t, s)

		open, err := s.Rides.Create(ctx, domain.Ride{MemberID: m1, BikeID: b1, StartedAt: start})
		require.NoError(t, err)

		byMember, err := s.Rides.OpenByMember(ctx, m1)
		require.NoError(t, err)
		require.Len(t, byMember, 1)
		assert.Equal(t, open.ID, byMember[0].ID)

		byBike, err := s.Rides.OpenByBike(ctx, b1)
		require.NoError(t, err)
		require.Len(t, byBike, 1)
		assert.Equal(t, open.ID, byBike[0].ID)

		none, err := s.Rides.OpenByMember(ctx, m2)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)

		none, err = s.Rides.OpenByBike(ctx, b2)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("ListOrderedByID", func(t *testing.T) {
		s := newStores(t)
		m1, m2, b1, b2 := seed(t, s)

		first, err := s.Rides.Create(ctx, domain.Ride{MemberID: m1, BikeID: b1, StartedAt: start})
		require.NoError(t, err)
		second, err := s.Rides.Create(ctx, domain.Ride{MemberID: m2, BikeID: b2, StartedAt: start.Add(-time.Hour)})
		require.NoError(t, err)

		got, err := s.Rides.List(ctx)
		require.NoError(t, err)

		var ids []int64
		for _, r := range got {
			if r.ID == first.ID || r.ID == second.ID {
				ids = append(ids, r.ID)
			}
		}
		assert.Equal(t, []int64{first.ID, second.ID}, ids)
	})
}

func bikeIDs(bikes []domain.Bike) []int64 {
	ids := make([]int64, 0, len(bikes))
	for _, b := range bikes {
		ids = append(ids, b.ID)
	}
	return ids
}
