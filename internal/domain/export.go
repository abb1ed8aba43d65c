package domain

import "time"

// RideExportRow is one ride flattened together with the member's name and the
// bike's station, the shape used by the ride overview export.
type RideExportRow struct {
	RideID     int64      `json:"ride_id"`
	MemberID   string     `json:"member_id"`
	MemberName string     `json:"member_name"`
	BikeID     int64      `json:"bike_id"`
	Station    Station    `json:"station"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Price      *Money     `json:"price,omitempty"`
}
