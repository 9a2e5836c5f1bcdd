package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// MaintenanceRecord is a maintenance_records row as fetched for analytics.
// Cost and date columns come from two historical schemas and are resolved
// by analytics.NormalizeRecord.
type MaintenanceRecord struct {
	ID            string
	VehicleID     string
	Cost          decimal.NullDecimal
	EstimatedCost decimal.NullDecimal
	FinalCost     decimal.NullDecimal
	CreatedAt     *string
	RdvDate       *string
	Status        string
	VehicleLabel  *string
}

type MaintenanceRecordView struct {
	VehicleID    string
	VehicleLabel string
	Cost         decimal.Decimal
	ServiceDate  string
	Status       string
}

type MonthBucket struct {
	MonthKey          string  `json:"month_key"`
	Label             string  `json:"label"`
	TotalCost         float64 `json:"total_cost"`
	InterventionCount int64   `json:"intervention_count"`
}

type VehicleCostSummary struct {
	VehicleID         string  `json:"vehicle_id"`
	RegistrationLabel string  `json:"registration_label"`
	TotalCost         float64 `json:"total_cost"`
	InterventionCount int64   `json:"intervention_count"`
}

type CostTotals struct {
	TotalCost         float64 `json:"total_cost"`
	InterventionCount int64   `json:"intervention_count"`
	RecordsConsidered int     `json:"records_considered"`
	Truncated         bool    `json:"truncated"`
}

type CostAnalytics struct {
	Window      DateRange            `json:"window"`
	Monthly     []MonthBucket        `json:"monthly"`
	TopVehicles []VehicleCostSummary `json:"top_vehicles"`
	Totals      CostTotals           `json:"totals"`
}

type VehicleCostHistory struct {
	Vehicle VehicleCostSummary `json:"vehicle"`
	Window  DateRange          `json:"window"`
	Monthly []MonthBucket      `json:"monthly"`
	Totals  CostTotals         `json:"totals"`
}

type FleetStats struct {
	Vehicles    VehicleStats     `json:"vehicles"`
	Drivers     DriverStats      `json:"drivers"`
	Maintenance MaintenanceStats `json:"maintenance"`
}

type VehicleStats struct {
	Total         int64 `json:"total"`
	Active        int64 `json:"active"`
	InMaintenance int64 `json:"in_maintenance"`
}

type DriverStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type MaintenanceStats struct {
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
}

type FleetDashboard struct {
	Stats FleetStats    `json:"stats"`
	Costs CostAnalytics `json:"costs"`
}
