package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/EgonMoreau/VivesBike/internal/domain"
)

// MemberRepo defines the persistence operations for Members.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type MemberRepo interface {
	// Create inserts a new member. Returns domain.ErrConflict if a member with
	// the same national identification number already exists.
	Create(ctx context.Context, m domain.Member) (domain.Member, error)

	// GetByID retrieves a member by national identification number.
	// Returns domain.ErrNotFound if no member with that ID exists.
	GetByID(ctx context.Context, id string) (domain.Member, error)

	// Update overwrites names, email, start date and note of a member, keyed
	// by ID. The end date is left alone; only End sets it.
	// Returns domain.ErrNotFound if no member with that ID exists.
	Update(ctx context.Context, m domain.Member) (domain.Member, error)

	// End sets the end date of a member that is still active, in a single
	// statement. Returns domain.ErrConflict if the member is already
	// unsubscribed (or does not exist).
	End(ctx context.Context, id string, end time.Time) (domain.Member, error)

	// List returns all members ordered by last name, then first name.
	List(ctx context.Context) ([]domain.Member, error)
}

// pgMemberRepo is the Postgres implementation of MemberRepo.
type pgMemberRepo struct {
	db db
}

// NewMemberRepo constructs a MemberRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewMemberRepo(db db) MemberRepo {
	return &pgMemberRepo{db: db}
}

const memberColumns = `rijksregisternummer, voornaam, naam, emailadres,
	start_lidmaatschap, einde_lidmaatschap, opmerking`

// Create inserts a new member row and returns the persisted record.
func (r *pgMemberRepo) Create(ctx context.Context, m domain.Member) (domain.Member, error) {
	const q = `
		INSERT INTO member (` + memberColumns + `)
		VALUES (@id, @first_name, @last_name, @email, @start_date, @end_date, @note)
		RETURNING ` + memberColumns

	row := r.db.QueryRow(ctx, q, memberArgs(m))
	result, err := scanMember(row)
	if err != nil {
		return domain.Member{}, fmt.Errorf("repo.MemberRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a member by primary key.
func (r *pgMemberRepo) GetByID(ctx context.Context, id string) (domain.Member, error) {
	const q = `
		SELECT ` + memberColumns + `
		FROM member
		WHERE rijksregisternummer = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanMember(row)
	if err != nil {
		return domain.Member{}, fmt.Errorf("repo.MemberRepo.GetByID: %w", err)
	}
	return result, nil
}

// Update overwrites names, email, start date and note of a member.
func (r *pgMemberRepo) Update(ctx context.Context, m domain.Member) (domain.Member, error) {
	const q = `
		UPDATE member
		SET voornaam           = @first_name,
		    naam               = @last_name,
		    emailadres         = @email,
		    start_lidmaatschap = @start_date,
		    opmerking          = @note
		WHERE rijksregisternummer = @id
		RETURNING ` + memberColumns

	row := r.db.QueryRow(ctx, q, memberArgs(m))
	result, err := scanMember(row)
	if err != nil {
		return domain.Member{}, fmt.Errorf("repo.MemberRepo.Update: %w", err)
	}
	return result, nil
}

// End unsubscribes an active member. The einde_lidmaatschap IS NULL guard
// makes a second unsubscribe fail instead of moving the end date.
func (r *pgMemberRepo) End(ctx context.Context, id string, end time.Time) (domain.Member, error) {
	const q = `
		UPDATE member
		SET einde_lidmaatschap = @end_date
		WHERE rijksregisternummer = @id
		  AND einde_lidmaatschap IS NULL
		RETURNING ` + memberColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "end_date": dateArg(&end)})
	result, err := scanMember(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Member{}, fmt.Errorf("repo.MemberRepo.End: %w: member %s is not active", domain.ErrConflict, id)
		}
		return domain.Member{}, fmt.Errorf("repo.MemberRepo.End: %w", err)
	}
	return result, nil
}

// List returns all members ordered by last name, then first name.
func (r *pgMemberRepo) List(ctx context.Context) ([]domain.Member, error) {
	const q = `
		SELECT ` + memberColumns + `
		FROM member
		ORDER BY naam, voornaam, rijksregisternummer`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.MemberRepo.List: %w", classify(err))
	}
	members, err := collect(rows, scanMember)
	if err != nil {
		return nil, fmt.Errorf("repo.MemberRepo.List: %w", err)
	}
	return members, nil
}

func memberArgs(m domain.Member) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":         m.ID,
		"first_name": m.FirstName,
		"last_name":  m.LastName,
		"email":      m.Email,
		"start_date": dateArg(m.StartDate),
		"end_date":   dateArg(m.EndDate), // nil becomes NULL
		"note":       m.Note,
	}
}

// dateArg converts an optional time into a pgtype.Date so only the calendar
// day is sent to a DATE column.
func dateArg(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}

// scanMember maps a single database row into a domain.Member.
// It handles the nullable membership date conversions.
func scanMember(s scanner) (domain.Member, error) {
	var (
		m         domain.Member
		startDate pgtype.Date
		endDate   pgtype.Date
	)

	err := s.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &startDate, &endDate, &m.Note)
	if err != nil {
		return domain.Member{}, classify(err)
	}

	if startDate.Valid {
		sd := startDate.Time
		m.StartDate = &sd
	}
	if endDate.Valid {
		ed := endDate.Time
		m.EndDate = &ed
	}
	return m, nil
}
