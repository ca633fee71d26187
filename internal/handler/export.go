package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/pkordes/tour-booking/internal/domain"
)

// csvHeaders defines the column names written as the first row of the
// reservation export.
var csvHeaders = []string{
	"reservation_id", "tour_id", "date", "tour_title", "passengers",
	"name", "phone", "zip", "pref", "city", "street",
	"pickup", "preferred_seats", "total_price", "status",
	"line_user_id", "manual_entry", "created_at", "cancelled_at",
}

// writeReservationsCSV answers with the reservations as a CSV attachment.
func writeReservationsCSV(w http.ResponseWriter, list []domain.Reservation) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, r := range list {
		//nolint:errcheck
		cw.Write(reservationToCSVRecord(r))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="reservations.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// reservationToCSVRecord flattens a reservation into one CSV row.
// Nil times are encoded as empty strings.
func reservationToCSVRecord(r domain.Reservation) []string {
	return []string{
		r.ID.String(),
		r.TourID.String(),
		r.TourDate.Format(domain.DateLayout),
		r.TourTitle,
		strconv.Itoa(r.Passengers),
		r.Contact.Name,
		r.Contact.Phone,
		r.Contact.Zip,
		r.Contact.Pref,
		r.Contact.City,
		r.Contact.Street,
		r.Pickup,
		strconv.Itoa(domain.CountPreferred(r.PreferredSeats)),
		strconv.FormatInt(r.TotalPrice, 10),
		string(r.Status),
		r.MessagingIdentity,
		strconv.FormatBool(r.ManualEntry),
		r.CreatedAt.UTC().Format(time.RFC3339),
		formatOptionalTime(r.CancelledAt),
	}
}

// formatOptionalTime returns the RFC3339 representation of t, or "" if t is nil.
func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
