package model

import (
	"time"

	"github.com/google/uuid"
)

type CostFilter struct {
	VehicleID *uuid.UUID
	AsOf      time.Time
	// Until is an exclusive upper bound on the service date. Zero means unbounded.
	Until time.Time
}

// ClampAsOf pins the reference instant to now when it is unset or in the future.
func (f CostFilter) ClampAsOf(now time.Time) CostFilter {
	if f.AsOf.IsZero() || f.AsOf.After(now) {
		f.AsOf = now
	}
	return f
}
