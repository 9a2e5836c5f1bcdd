package db

import (
	"fmt"

	"gorm.io/gorm"
)

// The tables belong to the platform database; only supporting indexes are
// created here, and only once the owning table exists.
var migrationStatements = []string{
	`DO $$
	BEGIN
		IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'maintenance_records') THEN
			CREATE INDEX IF NOT EXISTS idx_maintenance_records_company_created ON maintenance_records (company_id, created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_maintenance_records_company_vehicle ON maintenance_records (company_id, vehicle_id);
			CREATE INDEX IF NOT EXISTS idx_maintenance_records_company_status ON maintenance_records (company_id, status);
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'vehicles') THEN
			CREATE INDEX IF NOT EXISTS idx_vehicles_company_status ON vehicles (company_id, status);
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'drivers') THEN
			CREATE INDEX IF NOT EXISTS idx_drivers_company_status ON drivers (company_id, status);
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'profiles') THEN
			CREATE INDEX IF NOT EXISTS idx_profiles_company ON profiles (company_id);
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
