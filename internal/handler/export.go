package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/EgonMoreau/VivesBike/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"ride_id", "member_id", "member_name", "bike_id", "station",
	"started_at", "ended_at", "price",
}

// GetExport handles GET /rides/export.
// It returns every ride joined with member name and bike station.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "csv" && format != "json" {
		s.writeError(w, r, errUnknownFormat(format))
		return
	}

	rows, err := s.export.Export(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if format != "csv" {
		writeJSON(w, http.StatusOK, rows)
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write(csvHeaders) // bytes.Buffer writes never fail
	for _, row := range rows {
		_ = cw.Write(rowToCSVRecord(row))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="rides.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// rowToCSVRecord encodes a row as a flat string slice.
// Open rides have an empty end time and price.
func rowToCSVRecord(r domain.RideExportRow) []string {
	price := ""
	if r.Price != nil {
		price = r.Price.String()
	}
	return []string{
		strconv.FormatInt(r.RideID, 10),
		r.MemberID,
		r.MemberName,
		strconv.FormatInt(r.BikeID, 10),
		string(r.Station),
		r.StartedAt.UTC().Format(time.RFC3339),
		formatOptionalTime(r.EndedAt),
		price,
	}
}

// formatOptionalTime returns the RFC3339 representation of t, or "" if t is nil.
func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
