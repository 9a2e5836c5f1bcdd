package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fleet-analytics-service/internal/model"
)

const existsQuery = `SELECT EXISTS`

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	database, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	return database, mock
}

func expectRelation(mock sqlmock.Sqlmock, name string, exists bool) {
	mock.ExpectQuery(existsQuery).
		WithArgs(name).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func TestScopeRepository_ResolveScope(t *testing.T) {
	userID := uuid.New()
	companyID := uuid.New()

	t.Run("company claim short-circuits", func(t *testing.T) {
		database, mock := newMockDB(t)
		repo := NewScopeRepository(database)

		scope, err := repo.ResolveScope(context.Background(), model.Principal{UserID: userID, CompanyID: &companyID, Role: model.RoleManager})
		require.NoError(t, err)
		require.Equal(t, model.Scope{CompanyID: companyID, Role: model.RoleManager}, scope)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("profile lookup", func(t *testing.T) {
		database, mock := newMockDB(t)
		repo := NewScopeRepository(database)

		expectRelation(mock, "profiles", true)
		mock.ExpectQuery(`SELECT p.company_id, p.role FROM profiles p WHERE p.id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"company_id", "role"}).AddRow(companyID.String(), "ADMIN"))

		scope, err := repo.ResolveScope(context.Background(), model.Principal{UserID: userID})
		require.NoError(t, err)
		require.Equal(t, companyID, scope.CompanyID)
		require.Equal(t, model.RoleAdmin, scope.Role)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("profile without company", func(t *testing.T) {
		database, mock := newMockDB(t)
		repo := NewScopeRepository(database)

		expectRelation(mock, "profiles", true)
		mock.ExpectQuery(`FROM profiles p`).
			WillReturnRows(sqlmock.NewRows([]string{"company_id", "role"}).AddRow(nil, "MANAGER"))

		_, err := repo.ResolveScope(context.Background(), model.Principal{UserID: userID})
		require.ErrorIs(t, err, ErrScopeUnsupported)
	})

	t.Run("unknown user", func(t *testing.T) {
		database, mock := newMockDB(t)
		repo := NewScopeRepository(database)

		expectRelation(mock, "profiles", true)
		mock.ExpectQuery(`FROM profiles p`).
			WillReturnRows(sqlmock.NewRows([]string{"company_id", "role"}))

		_, err := repo.ResolveScope(context.Background(), model.Principal{UserID: userID})
		require.ErrorIs(t, err, ErrScopeUnsupported)
	})

	t.Run("profiles table missing", func(t *testing.T) {
		database, mock := newMockDB(t)
		repo := NewScopeRepository(database)

		expectRelation(mock, "profiles", false)

		_, err := repo.ResolveScope(context.Background(), model.Principal{UserID: userID})
		require.ErrorIs(t, err, ErrScopeUnsupported)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure", func(t *testing.T) {
		database, mock := newMockDB(t)
		repo := NewScopeRepository(database)

		expectRelation(mock, "profiles", true)
		mock.ExpectQuery(`FROM profiles p`).WillReturnError(errors.New("connection reset"))

		_, err := repo.ResolveScope(context.Background(), model.Principal{UserID: userID})
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrScopeUnsupported)
	})
}

func TestFleetRepository_MaintenanceRecords(t *testing.T) {
	scope := model.Scope{CompanyID: uuid.New()}
	columns := []string{"id", "vehicle_id", "cost", "estimated_cost", "final_cost", "created_at", "rdv_date", "status", "vehicle_label"}

	t.Run("joins vehicle labels and scopes by company", func(t *testing.T) {
		database, mock := newMockDB(t)
		repo := NewFleetRepository(database)

		expectRelation(mock, "maintenance_records", true)
		expectRelation(mock, "vehicles", true)
		mock.ExpectQuery(`FROM maintenance_records mr LEFT JOIN vehicles v ON v.id = mr.vehicle_id AND v.company_id = mr.company_id WHERE mr.company_id = \$1 ORDER BY mr.created_at DESC NULLS LAST`).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("m-1", "V1", "100.50", nil, nil, "2026-10-01 09:00:00+00", nil, "completed", "AB-123-CD").
				AddRow("m-2", nil, nil, "50", "70", nil, "2026-10-05", "pending", nil))

		records, err := repo.MaintenanceRecords(context.Background(), scope, model.CostFilter{}, 500)
		require.NoError(t, err)
		require.Len(t, records, 2)

		require.Equal(t, "V1", records[0].VehicleID)
		require.True(t, records[0].Cost.Valid)
		require.True(t, decimal.RequireFromString("100.5").Equal(records[0].Cost.Decimal))
		require.False(t, records[0].EstimatedCost.Valid)
		require.Equal(t, "2026-10-01 09:00:00+00", *records[0].CreatedAt)
		require.Equal(t, "AB-123-CD", *records[0].VehicleLabel)

		require.Equal(t, "", records[1].VehicleID)
		require.False(t, records[1].Cost.Valid)
		require.True(t, records[1].EstimatedCost.Valid)
		require.Nil(t, records[1].CreatedAt)
		require.Equal(t, "2026-10-05", *records[1].RdvDate)
		require.Nil(t, records[1].VehicleLabel)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("vehicle filter without vehicles table", func(t *testing.T) {
		database, mock := newMockDB(t)
		repo := NewFleetRepository(database)
		vehicleID := uuid.New()

		expectRelation(mock, "maintenance_records", true)
		expectRelation(mock, "vehicles", false)
		mock.ExpectQuery(`NULL::text AS vehicle_label FROM maintenance_records mr WHERE mr.company_id = \$1 AND mr.vehicle_id = \$2`).
			WillReturnRows(sqlmock.NewRows(columns))

		records, err := repo.MaintenanceRecords(context.Background(), scope, model.CostFilter{VehicleID: &vehicleID}, 500)
		require.NoError(t, err)
		require.Empty(t, records)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bounded by service date", func(t *testing.T) {
		database, mock := newMockDB(t)
		repo := NewFleetRepository(database)
		until := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

		expectRelation(mock, "maintenance_records", true)
		expectRelation(mock, "vehicles", true)
		mock.ExpectQuery(`WHERE mr.company_id = \$1 AND \(+COALESCE\(mr.created_at, mr.rdv_date\) IS NULL OR COALESCE\(mr.created_at, mr.rdv_date\) < \$2\)+ ORDER BY mr.created_at DESC NULLS LAST`).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("m-1", "V1", "100", nil, nil, "2025-01-10 09:00:00+00", nil, "completed", nil))

		records, err := repo.MaintenanceRecords(context.Background(), scope, model.CostFilter{AsOf: until.Add(-time.Hour), Until: until}, 500)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing table yields nothing", func(t *testing.T) {
		database, mock := newMockDB(t)
		repo := NewFleetRepository(database)

		expectRelation(mock, "maintenance_records", false)

		records, err := repo.MaintenanceRecords(context.Background(), scope, model.CostFilter{}, 500)
		require.NoError(t, err)
		require.Empty(t, records)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid scope never queries", func(t *testing.T) {
		database, mock := newMockDB(t)
		repo := NewFleetRepository(database)

		_, err := repo.MaintenanceRecords(context.Background(), model.Scope{}, model.CostFilter{}, 500)
		require.ErrorIs(t, err, ErrScopeUnsupported)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure", func(t *testing.T) {
		database, mock := newMockDB(t)
		repo := NewFleetRepository(database)

		expectRelation(mock, "maintenance_records", true)
		expectRelation(mock, "vehicles", true)
		mock.ExpectQuery(`FROM maintenance_records mr`).WillReturnError(errors.New("statement timeout"))

		_, err := repo.MaintenanceRecords(context.Background(), scope, model.CostFilter{}, 500)
		require.EqualError(t, err, "statement timeout")
	})
}

func TestFleetRepository_FleetStats(t *testing.T) {
	scope := model.Scope{CompanyID: uuid.New()}
	database, mock := newMockDB(t)
	repo := NewFleetRepository(database)

	expectRelation(mock, "vehicles", true)
	mock.ExpectQuery(`FROM vehicles v WHERE v.company_id = \$3`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "active", "in_maintenance"}).AddRow(12, 9, 2))
	expectRelation(mock, "drivers", false)
	expectRelation(mock, "maintenance_records", true)
	mock.ExpectQuery(`FROM maintenance_records mr WHERE mr.company_id = `).
		WillReturnRows(sqlmock.NewRows([]string{"pending", "in_progress", "completed"}).AddRow(4, 1, 30))

	stats, err := repo.FleetStats(context.Background(), scope)
	require.NoError(t, err)
	require.Equal(t, model.FleetStats{
		Vehicles:    model.VehicleStats{Total: 12, Active: 9, InMaintenance: 2},
		Maintenance: model.MaintenanceStats{Pending: 4, InProgress: 1, Completed: 30},
	}, stats)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFleetRepository_VehicleLabel(t *testing.T) {
	scope := model.Scope{CompanyID: uuid.New()}
	vehicleID := uuid.New()

	t.Run("found", func(t *testing.T) {
		database, mock := newMockDB(t)
		repo := NewFleetRepository(database)

		expectRelation(mock, "vehicles", true)
		mock.ExpectQuery(`FROM vehicles v WHERE v.id = \$1 AND v.company_id = \$2`).
			WillReturnRows(sqlmock.NewRows([]string{"label"}).AddRow("AB-123-CD"))

		label, found, err := repo.VehicleLabel(context.Background(), scope, vehicleID)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "AB-123-CD", label)
	})

	t.Run("other tenant", func(t *testing.T) {
		database, mock := newMockDB(t)
		repo := NewFleetRepository(database)

		expectRelation(mock, "vehicles", true)
		mock.ExpectQuery(`FROM vehicles v`).WillReturnRows(sqlmock.NewRows([]string{"label"}))

		_, found, err := repo.VehicleLabel(context.Background(), scope, vehicleID)
		require.NoError(t, err)
		require.False(t, found)
	})
}
