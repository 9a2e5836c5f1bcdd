package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"fleet-analytics-service/internal/model"
)

// WindowMonths covers the twelve previous months plus the current one.
const WindowMonths = 13

// WindowStart returns the first instant of the month twelve months before now,
// in now's location.
func WindowStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()-(WindowMonths-1), 1, 0, 0, 0, 0, now.Location())
}

// WindowEnd is exclusive.
func WindowEnd(windowStart time.Time) time.Time {
	first := time.Date(windowStart.Year(), windowStart.Month(), 1, 0, 0, 0, 0, windowStart.Location())
	return first.AddDate(0, WindowMonths, 0)
}

// MonthlyCosts folds records into WindowMonths buckets starting at the month
// of windowStart. Month keys are computed in windowStart's location. Records
// without a usable date or outside the window are skipped.
func MonthlyCosts(records []model.MaintenanceRecordView, windowStart time.Time, labels MonthLabels) []model.MonthBucket {
	loc := windowStart.Location()
	first := time.Date(windowStart.Year(), windowStart.Month(), 1, 0, 0, 0, 0, loc)

	buckets := make([]model.MonthBucket, WindowMonths)
	totals := make([]decimal.Decimal, WindowMonths)
	index := make(map[string]int, WindowMonths)
	for i := range buckets {
		month := first.AddDate(0, i, 0)
		key := monthKey(month)
		buckets[i] = model.MonthBucket{MonthKey: key, Label: labels.Short(month.Month())}
		totals[i] = decimal.Zero
		index[key] = i
	}

	for _, record := range records {
		key, ok := MonthKey(record.ServiceDate, loc)
		if !ok {
			continue
		}
		i, ok := index[key]
		if !ok {
			continue
		}
		totals[i] = totals[i].Add(record.Cost)
		buckets[i].InterventionCount++
	}

	for i := range buckets {
		buckets[i].TotalCost = totals[i].InexactFloat64()
	}
	return buckets
}

// DatedBefore drops records whose service date is at or after end. Records
// without a usable date are kept.
func DatedBefore(records []model.MaintenanceRecordView, end time.Time) []model.MaintenanceRecordView {
	kept := make([]model.MaintenanceRecordView, 0, len(records))
	for _, record := range records {
		if t, ok := ParseDate(record.ServiceDate, end.Location()); ok && !t.Before(end) {
			continue
		}
		kept = append(kept, record)
	}
	return kept
}

// SumBuckets totals a monthly series.
func SumBuckets(buckets []model.MonthBucket) (float64, int64) {
	total := decimal.Zero
	var count int64
	for _, bucket := range buckets {
		total = total.Add(decimal.NewFromFloat(bucket.TotalCost))
		count += bucket.InterventionCount
	}
	return total.InexactFloat64(), count
}
