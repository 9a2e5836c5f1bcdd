// Package analytics folds maintenance records into the monthly cost series and
// the vehicle cost leaderboard. Everything here is pure: no I/O, no shared
// state, and no errors for any input.
package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fleet-analytics-service/internal/model"
)

// Timestamps arrive as text: RFC 3339 from the REST layer, Postgres text
// output from ::text casts, or bare dates for rdv_date. Fractional seconds are
// accepted by every layout.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z07",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ResolveCost returns the first non-null of cost, estimated_cost and
// final_cost, or zero when all three are null.
func ResolveCost(record model.MaintenanceRecord) decimal.Decimal {
	for _, candidate := range []decimal.NullDecimal{record.Cost, record.EstimatedCost, record.FinalCost} {
		if candidate.Valid {
			return candidate.Decimal
		}
	}
	return decimal.Zero
}

// ResolveServiceDate returns created_at when it parses, rdv_date otherwise.
// An empty result means the record has no usable date.
func ResolveServiceDate(record model.MaintenanceRecord) string {
	for _, candidate := range []*string{record.CreatedAt, record.RdvDate} {
		if candidate == nil {
			continue
		}
		value := strings.TrimSpace(*candidate)
		if _, ok := ParseDate(value, time.UTC); ok {
			return value
		}
	}
	return ""
}

// NormalizeRecord resolves cost and service date and trims the vehicle fields.
func NormalizeRecord(record model.MaintenanceRecord) model.MaintenanceRecordView {
	view := model.MaintenanceRecordView{
		VehicleID:   strings.TrimSpace(record.VehicleID),
		Cost:        ResolveCost(record),
		ServiceDate: ResolveServiceDate(record),
		Status:      record.Status,
	}
	if record.VehicleLabel != nil {
		view.VehicleLabel = strings.TrimSpace(*record.VehicleLabel)
	}
	return view
}

// NormalizeRecords applies NormalizeRecord to each record, keeping order.
func NormalizeRecords(records []model.MaintenanceRecord) []model.MaintenanceRecordView {
	views := make([]model.MaintenanceRecordView, 0, len(records))
	for _, record := range records {
		views = append(views, NormalizeRecord(record))
	}
	return views
}

// ParseDate interprets zone-less values in loc.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// MonthKey returns the "YYYY-MM" key of value as seen from loc.
func MonthKey(value string, loc *time.Location) (string, bool) {
	parsed, ok := ParseDate(value, loc)
	if !ok {
		return "", false
	}
	if loc != nil {
		parsed = parsed.In(loc)
	}
	return monthKey(parsed), true
}

func monthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}
