package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fleet-analytics-service/internal/model"
)

const (
	vehicleStatusActive      = "active"
	vehicleStatusMaintenance = "maintenance"
	driverStatusActive       = "active"
)

var (
	maintenancePendingStatuses   = []string{"pending", "scheduled"}
	maintenanceProgressStatuses  = []string{"in_progress"}
	maintenanceCompletedStatuses = []string{"completed", "done"}
)

type FleetRepository struct {
	db *gorm.DB
}

func NewFleetRepository(db *gorm.DB) *FleetRepository {
	return &FleetRepository{db: db}
}

// MaintenanceRecords returns the company's most recent records, newest first,
// capped at limit. Records dated at or after filter.Until are left out. Dates are read as text so that legacy values reach the
// normalizer untouched.
func (r *FleetRepository) MaintenanceRecords(ctx context.Context, scope model.Scope, filter model.CostFilter, limit int) ([]model.MaintenanceRecord, error) {
	if !scope.Valid() {
		return nil, ErrScopeUnsupported
	}
	if !r.tablesAvailable(ctx, "maintenance_records") {
		return nil, nil
	}

	type row struct {
		ID            string
		VehicleID     *string
		Cost          decimal.NullDecimal
		EstimatedCost decimal.NullDecimal
		FinalCost     decimal.NullDecimal
		CreatedAt     *string
		RdvDate       *string
		Status        string
		VehicleLabel  *string
	}
	var rows []row

	labelColumn := "NULL::text"
	query := r.db.WithContext(ctx).Table("maintenance_records mr")
	if r.relationExists(ctx, "vehicles") {
		labelColumn = "v.registration_number"
		query = query.Joins("LEFT JOIN vehicles v ON v.id = mr.vehicle_id AND v.company_id = mr.company_id")
	}

	query = query.Select(`mr.id::text AS id,
			mr.vehicle_id::text AS vehicle_id,
			mr.cost,
			mr.estimated_cost,
			mr.final_cost,
			mr.created_at::text AS created_at,
			mr.rdv_date::text AS rdv_date,
			COALESCE(mr.status, '') AS status,
			` + labelColumn + ` AS vehicle_label`)

	query = applyCompanyScope(query, scope, "mr")
	if filter.VehicleID != nil {
		query = query.Where("mr.vehicle_id = ?", *filter.VehicleID)
	}
	if !filter.Until.IsZero() {
		// Undated rows stay: they still count toward the vehicle ranking.
		query = query.Where("(COALESCE(mr.created_at, mr.rdv_date) IS NULL OR COALESCE(mr.created_at, mr.rdv_date) < ?)", filter.Until)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Order("mr.created_at DESC NULLS LAST").Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]model.MaintenanceRecord, 0, len(rows))
	for _, row := range rows {
		record := model.MaintenanceRecord{
			ID:            row.ID,
			Cost:          row.Cost,
			EstimatedCost: row.EstimatedCost,
			FinalCost:     row.FinalCost,
			CreatedAt:     row.CreatedAt,
			RdvDate:       row.RdvDate,
			Status:        row.Status,
			VehicleLabel:  row.VehicleLabel,
		}
		if row.VehicleID != nil {
			record.VehicleID = *row.VehicleID
		}
		result = append(result, record)
	}

	return result, nil
}

func (r *FleetRepository) FleetStats(ctx context.Context, scope model.Scope) (model.FleetStats, error) {
	if !scope.Valid() {
		return model.FleetStats{}, ErrScopeUnsupported
	}

	var stats model.FleetStats

	if r.relationExists(ctx, "vehicles") {
		query := r.db.WithContext(ctx).
			Table("vehicles v").
			Select(`COUNT(*) AS total,
				COALESCE(SUM(CASE WHEN v.status = ? THEN 1 ELSE 0 END), 0) AS active,
				COALESCE(SUM(CASE WHEN v.status = ? THEN 1 ELSE 0 END), 0) AS in_maintenance`,
				vehicleStatusActive, vehicleStatusMaintenance)
		query = applyCompanyScope(query, scope, "v")
		if err := query.Scan(&stats.Vehicles).Error; err != nil {
			return model.FleetStats{}, err
		}
	}

	if r.relationExists(ctx, "drivers") {
		query := r.db.WithContext(ctx).
			Table("drivers d").
			Select(`COUNT(*) AS total,
				COALESCE(SUM(CASE WHEN d.status = ? THEN 1 ELSE 0 END), 0) AS active`,
				driverStatusActive)
		query = applyCompanyScope(query, scope, "d")
		if err := query.Scan(&stats.Drivers).Error; err != nil {
			return model.FleetStats{}, err
		}
	}

	if r.relationExists(ctx, "maintenance_records") {
		query := r.db.WithContext(ctx).
			Table("maintenance_records mr").
			Select(`COALESCE(SUM(CASE WHEN mr.status IN ? THEN 1 ELSE 0 END), 0) AS pending,
				COALESCE(SUM(CASE WHEN mr.status IN ? THEN 1 ELSE 0 END), 0) AS in_progress,
				COALESCE(SUM(CASE WHEN mr.status IN ? THEN 1 ELSE 0 END), 0) AS completed`,
				maintenancePendingStatuses, maintenanceProgressStatuses, maintenanceCompletedStatuses)
		query = applyCompanyScope(query, scope, "mr")
		if err := query.Scan(&stats.Maintenance).Error; err != nil {
			return model.FleetStats{}, err
		}
	}

	return stats, nil
}

// VehicleLabel reports whether the vehicle belongs to the scope and returns its
// registration number, which may be empty.
func (r *FleetRepository) VehicleLabel(ctx context.Context, scope model.Scope, vehicleID uuid.UUID) (string, bool, error) {
	if !scope.Valid() {
		return "", false, ErrScopeUnsupported
	}
	if !r.relationExists(ctx, "vehicles") {
		return "", false, nil
	}

	var rows []struct {
		Label string
	}
	query := r.db.WithContext(ctx).
		Table("vehicles v").
		Select("COALESCE(v.registration_number, '') AS label").
		Where("v.id = ?", vehicleID)
	query = applyCompanyScope(query, scope, "v")
	if err := query.Limit(1).Scan(&rows).Error; err != nil {
		return "", false, err
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].Label, true, nil
}

// applyCompanyScope is the only tenant filter; every query goes through it.
func applyCompanyScope(query *gorm.DB, scope model.Scope, alias string) *gorm.DB {
	if !scope.Valid() {
		return query.Where("1 = 0")
	}
	return query.Where(alias+".company_id = ?", scope.CompanyID)
}

func (r *FleetRepository) relationExists(ctx context.Context, name string) bool {
	return relationExists(ctx, r.db, name)
}

func (r *FleetRepository) tablesAvailable(ctx context.Context, names ...string) bool {
	for _, name := range names {
		if !r.relationExists(ctx, name) {
			return false
		}
	}
	return true
}

func relationExists(ctx context.Context, db *gorm.DB, name string) bool {
	var exists bool
	err := db.WithContext(ctx).
		Raw(`SELECT EXISTS (
			SELECT 1
			FROM pg_catalog.pg_class c
			JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
			WHERE c.relname = ? AND c.relkind IN ('r','m','v','p') AND n.nspname = 'public'
		)`, name).
		Scan(&exists).Error
	if err != nil {
		return false
	}
	return exists
}
