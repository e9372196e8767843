// Package report renders the monthly incident report for download.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/cctv-report/backend/internal/model"
)

const timeLayout = "2006-01-02 15:04"

// csvHeaders returns the CSV column headers.
func csvHeaders() []string {
	return []string{
		"Incident Time", "Device", "IP Address", "Alert Source",
		"Status", "Reason", "Resolution", "SN",
	}
}

// incidentToCSVRow converts an incident to a CSV row (matching csvHeaders order).
func incidentToCSVRow(inc model.Incident, loc *time.Location) []string {
	return []string{
		inc.IncidentTime.In(loc).Format(timeLayout),
		inc.Device,
		inc.IP,
		inc.AlertSource,
		inc.Status,
		inc.Reason,
		inc.Resolution,
		inc.SerialNumber,
	}
}

// WriteCSV writes the header row followed by one row per incident. Times are
// shown in loc.
func WriteCSV(w io.Writer, incidents []model.Incident, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeaders()); err != nil {
		return err
	}
	for _, inc := range incidents {
		if err := cw.Write(incidentToCSVRow(inc, loc)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename returns the download name for a report, e.g.
// CCTV_Report_March_2024.csv. Month is 0-indexed.
func Filename(filter model.IncidentFilter) string {
	if filter.Month == nil || filter.Year == nil {
		return "CCTV_Report_All.csv"
	}
	return fmt.Sprintf("CCTV_Report_%s_%d.csv", time.Month(*filter.Month+1), *filter.Year)
}
