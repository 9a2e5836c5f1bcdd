package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"fleet-analytics-service/internal/model"
)

const (
	TopVehicleLimit     = 5
	UnknownVehicleLabel = "Inconnu"
)

type vehicleAccumulator struct {
	summary model.VehicleCostSummary
	total   decimal.Decimal
}

// RankVehiclesByCost groups records by vehicle and returns at most limit
// entries by total cost, highest first. Ties keep first-seen order. A limit
// of zero or less means TopVehicleLimit.
func RankVehiclesByCost(records []model.MaintenanceRecordView, limit int) []model.VehicleCostSummary {
	if limit <= 0 {
		limit = TopVehicleLimit
	}

	index := make(map[string]int)
	accs := make([]vehicleAccumulator, 0)
	for _, record := range records {
		if record.VehicleID == "" {
			continue
		}
		i, ok := index[record.VehicleID]
		if !ok {
			accs = append(accs, vehicleAccumulator{
				summary: model.VehicleCostSummary{
					VehicleID:         record.VehicleID,
					RegistrationLabel: UnknownVehicleLabel,
				},
				total: decimal.Zero,
			})
			i = len(accs) - 1
			index[record.VehicleID] = i
		}
		acc := &accs[i]
		if acc.summary.RegistrationLabel == UnknownVehicleLabel && record.VehicleLabel != "" {
			acc.summary.RegistrationLabel = record.VehicleLabel
		}
		acc.total = acc.total.Add(record.Cost)
		acc.summary.InterventionCount++
	}

	sort.SliceStable(accs, func(i, j int) bool {
		return accs[i].total.GreaterThan(accs[j].total)
	})

	if len(accs) > limit {
		accs = accs[:limit]
	}

	result := make([]model.VehicleCostSummary, 0, len(accs))
	for _, acc := range accs {
		summary := acc.summary
		summary.TotalCost = acc.total.InexactFloat64()
		result = append(result, summary)
	}
	return result
}
