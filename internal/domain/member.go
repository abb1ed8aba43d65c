package domain

import "time"

// Member is a subscriber of the rental scheme, keyed by national
// identification number (rijksregisternummer).
// EndDate is nil while the membership is active. Once set it never changes.
type Member struct {
	ID        string     `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	StartDate *time.Time `json:"start_date,omitempty"` // assigned at enrollment
	EndDate   *time.Time `json:"end_date,omitempty"`   // nil while active
	Note      string     `json:"note,omitempty"`
}

// Active reports whether the member has not been unsubscribed.
func (m Member) Active() bool {
	return m.EndDate == nil
}
