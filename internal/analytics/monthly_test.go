package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fleet-analytics-service/internal/model"
)

var testNow = time.Date(2026, 10, 18, 14, 30, 0, 0, time.UTC)

func view(vehicleID string, cost string, date string) model.MaintenanceRecordView {
	return model.MaintenanceRecordView{
		VehicleID:   vehicleID,
		Cost:        decimal.RequireFromString(cost),
		ServiceDate: date,
	}
}

func TestWindowStart(t *testing.T) {
	require.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), WindowStart(testNow))
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), WindowStart(time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)))
	require.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), WindowEnd(WindowStart(testNow)))
}

func TestMonthlyCosts_EmptyInputHasFullWindow(t *testing.T) {
	buckets := MonthlyCosts(nil, WindowStart(testNow), LabelsFor("fr"))

	require.Len(t, buckets, WindowMonths)
	start := WindowStart(testNow)
	for i, bucket := range buckets {
		month := start.AddDate(0, i, 0)
		require.Equal(t, fmt.Sprintf("%04d-%02d", month.Year(), int(month.Month())), bucket.MonthKey)
		require.Equal(t, LabelsFor("fr").Short(month.Month()), bucket.Label)
		require.Zero(t, bucket.TotalCost)
		require.Zero(t, bucket.InterventionCount)
	}
	require.Equal(t, "2025-10", buckets[0].MonthKey)
	require.Equal(t, "2026-10", buckets[WindowMonths-1].MonthKey)
	require.Equal(t, "Oct", buckets[WindowMonths-1].Label)
}

func TestMonthlyCosts_CurrentMonthScenario(t *testing.T) {
	records := NormalizeRecords([]model.MaintenanceRecord{
		{VehicleID: "V1", Cost: money("100"), CreatedAt: strPtr("2026-10-01T09:00:00Z")},
		{VehicleID: "V1", EstimatedCost: money("50"), CreatedAt: strPtr("2026-10-05T09:00:00Z")},
		{VehicleID: "V1", Cost: money("200"), CreatedAt: strPtr("2026-10-17T09:00:00Z")},
	})

	buckets := MonthlyCosts(records, WindowStart(testNow), LabelsFor("fr"))

	last := buckets[WindowMonths-1]
	require.Equal(t, "2026-10", last.MonthKey)
	require.Equal(t, 350.0, last.TotalCost)
	require.Equal(t, int64(3), last.InterventionCount)
	for _, bucket := range buckets[:WindowMonths-1] {
		require.Zero(t, bucket.InterventionCount)
	}
}

func TestMonthlyCosts_DropsRecordsOutsideWindow(t *testing.T) {
	records := []model.MaintenanceRecordView{
		view("V1", "80", "2025-08-18T10:00:00Z"),
		view("V1", "10", "2025-09-30T23:59:59Z"),
		view("V1", "20", "2025-10-01T00:00:00Z"),
		view("V1", "30", "2026-11-01"),
		view("V1", "40", "2026-10-31"),
		view("V1", "50", "bogus"),
		view("V1", "60", ""),
	}

	buckets := MonthlyCosts(records, WindowStart(testNow), LabelsFor("en"))

	require.Equal(t, 20.0, buckets[0].TotalCost)
	require.Equal(t, int64(1), buckets[0].InterventionCount)
	require.Equal(t, 40.0, buckets[WindowMonths-1].TotalCost)
	require.Equal(t, int64(1), buckets[WindowMonths-1].InterventionCount)

	total, count := SumBuckets(buckets)
	require.Equal(t, 60.0, total)
	require.Equal(t, int64(2), count)
}

func TestMonthlyCosts_ZeroCostStillCounts(t *testing.T) {
	records := NormalizeRecords([]model.MaintenanceRecord{
		{VehicleID: "V1", CreatedAt: strPtr("2026-06-10T10:00:00Z")},
	})

	buckets := MonthlyCosts(records, WindowStart(testNow), LabelsFor("fr"))

	total, count := SumBuckets(buckets)
	require.Zero(t, total)
	require.Equal(t, int64(1), count)
}

func TestMonthlyCosts_UsesWindowLocation(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, zone)
	records := []model.MaintenanceRecordView{
		view("V1", "15", "2026-09-30T23:30:00Z"),
	}

	buckets := MonthlyCosts(records, WindowStart(now), LabelsFor("fr"))

	require.Equal(t, 15.0, buckets[WindowMonths-1].TotalCost)
	require.Zero(t, buckets[WindowMonths-2].TotalCost)
}

func TestMonthlyCosts_OrderIndependentAndIdempotent(t *testing.T) {
	records := []model.MaintenanceRecordView{
		view("V1", "10.10", "2026-01-15"),
		view("V2", "20.20", "2026-02-15"),
		view("V3", "30.30", "2026-01-20"),
		view("V1", "0.40", "2026-10-01"),
	}
	reversed := make([]model.MaintenanceRecordView, len(records))
	for i := range records {
		reversed[len(records)-1-i] = records[i]
	}

	start := WindowStart(testNow)
	first := MonthlyCosts(records, start, LabelsFor("fr"))
	second := MonthlyCosts(records, start, LabelsFor("fr"))
	backwards := MonthlyCosts(reversed, start, LabelsFor("fr"))

	require.Equal(t, first, second)
	require.Equal(t, first, backwards)
	require.Equal(t, 40.4, first[3].TotalCost)
}

func TestMonthlyCosts_ConservesCostAndCount(t *testing.T) {
	start := WindowStart(testNow)
	records := make([]model.MaintenanceRecordView, 0, 60)
	expected := decimal.Zero
	var expectedCount int64
	for i := 0; i < 60; i++ {
		date := start.AddDate(0, i%16-2, i%27).Format(time.RFC3339)
		cost := decimal.NewFromInt(int64(i * 7)).Div(decimal.NewFromInt(4))
		records = append(records, model.MaintenanceRecordView{VehicleID: "V", Cost: cost, ServiceDate: date})

		parsed, _ := time.Parse(time.RFC3339, date)
		if !parsed.Before(start) && parsed.Before(WindowEnd(start)) {
			expected = expected.Add(cost)
			expectedCount++
		}
	}

	buckets := MonthlyCosts(records, start, LabelsFor("fr"))

	total, count := SumBuckets(buckets)
	require.Equal(t, expected.InexactFloat64(), total)
	require.Equal(t, expectedCount, count)
}

func TestDatedBefore(t *testing.T) {
	end := WindowEnd(WindowStart(testNow))
	records := []model.MaintenanceRecordView{
		view("V1", "10", "2026-10-31T23:59:59Z"),
		view("V2", "20", "2026-11-01"),
		view("V3", "30", ""),
		view("V4", "40", "2027-01-05 08:00:00+00"),
		view("V5", "50", "2024-02-01"),
	}

	kept := DatedBefore(records, end)

	require.Equal(t, []model.MaintenanceRecordView{records[0], records[2], records[4]}, kept)
	require.NotNil(t, DatedBefore(nil, end))
}
