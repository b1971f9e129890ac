// Package ticket renders a booking's ticket as a printable PDF.
package ticket

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"github.com/iliyamo/campus-bus-reservation/internal/repository"
)

// BuildPDF renders one A4 page for a confirmed booking and returns the
// PDF bytes plus a download filename.
func BuildPDF(d repository.TicketDetail) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Bus Ticket", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "CAMPUS BUS TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Reference      : %s", d.Reference),
		fmt.Sprintf("Passenger      : %s", d.Name),
		fmt.Sprintf("Student ID     : %s", d.StudentID),
		fmt.Sprintf("Phone          : %s", d.Phone),
		fmt.Sprintf("Route          : %s (%s -> %s)", d.RouteName, d.StartPoint, d.EndPoint),
		fmt.Sprintf("Bus            : %s", d.BusNumber),
		fmt.Sprintf("Seat           : %d", d.SeatNumber),
		fmt.Sprintf("Departure      : %s %s", d.DepartureDate, d.DepartureTime),
		fmt.Sprintf("Booked at      : %s", d.BookingTime),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "This ticket covers one passenger and one seat. Please show it when boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("TICKET_%d_%s.pdf", d.BookingID, d.Reference)
	return buf.Bytes(), filename, nil
}
