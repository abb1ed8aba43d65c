package domain

import "time"

// Ride links a member to a bike for a period of time.
// EndedAt and Price are nil while the ride is open and are set together
// exactly once when it is closed.
type Ride struct {
	ID        int64      `json:"id"`
	MemberID  string     `json:"member_id"`
	BikeID    int64      `json:"bike_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Price     *Money     `json:"price,omitempty"`
}

// Open reports whether the ride has not been closed yet.
func (r Ride) Open() bool {
	return r.EndedAt == nil
}
