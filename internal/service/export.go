package service

import (
	"context"
	"fmt"

	"github.com/EgonMoreau/VivesBike/internal/domain"
	"github.com/EgonMoreau/VivesBike/internal/repo"
)

// ExportService assembles a flat overview of all rides.
type ExportService struct {
	rides   repo.RideRepo
	members repo.MemberRepo
	bikes   repo.BikeRepo
}

// NewExportService constructs an ExportService backed by the provided repos.
func NewExportService(rides repo.RideRepo, members repo.MemberRepo, bikes repo.BikeRepo) *ExportService {
	return &ExportService{rides: rides, members: members, bikes: bikes}
}

// Export returns one row per ride ordered by ride id. Member and bike details
// are joined in from a single listing each, not per ride.
func (s *ExportService) Export(ctx context.Context) ([]domain.RideExportRow, error) {
	rides, err := s.rides.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	bikes, err := s.bikes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.FirstName + " " + m.LastName
	}
	stations := make(map[int64]domain.Station, len(bikes))
	for _, b := range bikes {
		stations[b.ID] = b.Location
	}

	rows := make([]domain.RideExportRow, 0, len(rides))
	for _, r := range rides {
		rows = append(rows, domain.RideExportRow{
			RideID:     r.ID,
			MemberID:   r.MemberID,
			MemberName: names[r.MemberID],
			BikeID:     r.BikeID,
			Station:    stations[r.BikeID],
			StartedAt:  r.StartedAt,
			EndedAt:    r.EndedAt,
			Price:      r.Price,
		})
	}
	return rows, nil
}
