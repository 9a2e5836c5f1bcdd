package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"fleet-analytics-service/internal/analytics"
	"fleet-analytics-service/internal/model"
	"fleet-analytics-service/internal/repository"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
)

type ScopeResolver interface {
	ResolveScope(ctx context.Context, principal model.Principal) (model.Scope, error)
}

type FleetStore interface {
	MaintenanceRecords(ctx context.Context, scope model.Scope, filter model.CostFilter, limit int) ([]model.MaintenanceRecord, error)
	FleetStats(ctx context.Context, scope model.Scope) (model.FleetStats, error)
	VehicleLabel(ctx context.Context, scope model.Scope, vehicleID uuid.UUID) (string, bool, error)
}

type Options struct {
	RecordLimit int
	Locale      string
	Location    *time.Location
	Now         func() time.Time
}

type AnalyticsService struct {
	scopes      ScopeResolver
	fleet       FleetStore
	log         zerolog.Logger
	recordLimit int
	labels      analytics.MonthLabels
	loc         *time.Location
	now         func() time.Time
}

func NewAnalyticsService(scopes ScopeResolver, fleet FleetStore, log zerolog.Logger, opts Options) *AnalyticsService {
	if opts.RecordLimit <= 0 {
		opts.RecordLimit = 500
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AnalyticsService{
		scopes:      scopes,
		fleet:       fleet,
		log:         log,
		recordLimit: opts.RecordLimit,
		labels:      analytics.LabelsFor(opts.Locale),
		loc:         opts.Location,
		now:         opts.Now,
	}
}

func (s *AnalyticsService) GetCostAnalytics(ctx context.Context, principal model.Principal, filter model.CostFilter) (*model.CostAnalytics, error) {
	scope, err := s.resolveScope(ctx, principal)
	if err != nil {
		return nil, err
	}

	filter = s.windowFilter(filter)

	if filter.VehicleID != nil {
		if _, found, err := s.fleet.VehicleLabel(ctx, scope, *filter.VehicleID); err != nil {
			return nil, err
		} else if !found {
			return nil, ErrNotFound
		}
	}

	records, err := s.fleet.MaintenanceRecords(ctx, scope, filter, s.recordLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch maintenance records: %w", err)
	}

	costs := s.buildCostAnalytics(scope, records, filter.AsOf)
	return &costs, nil
}

func (s *AnalyticsService) GetVehicleCosts(ctx context.Context, principal model.Principal, vehicleID uuid.UUID, asOf time.Time) (*model.VehicleCostHistory, error) {
	scope, err := s.resolveScope(ctx, principal)
	if err != nil {
		return nil, err
	}

	label, found, err := s.fleet.VehicleLabel(ctx, scope, vehicleID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	filter := s.windowFilter(model.CostFilter{VehicleID: &vehicleID, AsOf: asOf})
	records, err := s.fleet.MaintenanceRecords(ctx, scope, filter, s.recordLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch maintenance records: %w", err)
	}

	costs := s.buildCostAnalytics(scope, records, filter.AsOf)

	summary := model.VehicleCostSummary{
		VehicleID:         vehicleID.String(),
		RegistrationLabel: label,
	}
	if summary.RegistrationLabel == "" {
		summary.RegistrationLabel = analytics.UnknownVehicleLabel
	}
	if len(costs.TopVehicles) > 0 {
		summary.TotalCost = costs.TopVehicles[0].TotalCost
		summary.InterventionCount = costs.TopVehicles[0].InterventionCount
	}

	return &model.VehicleCostHistory{
		Vehicle: summary,
		Window:  costs.Window,
		Monthly: costs.Monthly,
		Totals:  costs.Totals,
	}, nil
}

// GetDashboard loads the fleet counters and the cost records concurrently.
func (s *AnalyticsService) GetDashboard(ctx context.Context, principal model.Principal) (*model.FleetDashboard, error) {
	scope, err := s.resolveScope(ctx, principal)
	if err != nil {
		return nil, err
	}

	filter := s.windowFilter(model.CostFilter{})

	var (
		stats   model.FleetStats
		records []model.MaintenanceRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.fleet.FleetStats(gctx, scope)
		if err != nil {
			return fmt.Errorf("fetch fleet stats: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = s.fleet.MaintenanceRecords(gctx, scope, filter, s.recordLimit)
		if err != nil {
			return fmt.Errorf("fetch maintenance records: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &model.FleetDashboard{
		Stats: stats,
		Costs: s.buildCostAnalytics(scope, records, filter.AsOf),
	}, nil
}

// windowFilter clamps the reference instant and bounds the fetch at the end of
// its month.
func (s *AnalyticsService) windowFilter(filter model.CostFilter) model.CostFilter {
	filter = filter.ClampAsOf(s.now())
	filter.Until = analytics.WindowEnd(analytics.WindowStart(filter.AsOf.In(s.loc)))
	return filter
}

func (s *AnalyticsService) buildCostAnalytics(scope model.Scope, records []model.MaintenanceRecord, asOf time.Time) model.CostAnalytics {
	start := analytics.WindowStart(asOf.In(s.loc))
	views := analytics.DatedBefore(analytics.NormalizeRecords(records), analytics.WindowEnd(start))
	monthly := analytics.MonthlyCosts(views, start, s.labels)
	total, count := analytics.SumBuckets(monthly)

	truncated := len(records) >= s.recordLimit
	if truncated {
		s.log.Warn().
			Str("company_id", scope.CompanyID.String()).
			Int("limit", s.recordLimit).
			Msg("maintenance record cap reached; older records are not aggregated")
	}

	return model.CostAnalytics{
		Window:      model.DateRange{From: start, To: analytics.WindowEnd(start)},
		Monthly:     monthly,
		TopVehicles: analytics.RankVehiclesByCost(views, analytics.TopVehicleLimit),
		Totals: model.CostTotals{
			TotalCost:         total,
			InterventionCount: count,
			RecordsConsidered: len(records),
			Truncated:         truncated,
		},
	}
}

func (s *AnalyticsService) resolveScope(ctx context.Context, principal model.Principal) (model.Scope, error) {
	if principal.IsDriver() {
		return model.Scope{}, ErrPermissionDenied
	}

	scope, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		if errors.Is(err, repository.ErrScopeUnsupported) {
			return model.Scope{}, ErrPermissionDenied
		}
		return model.Scope{}, fmt.Errorf("resolve scope: %w", err)
	}
	// The role may come from the profile when the token carries none.
	if scope.Role == model.RoleDriver {
		return model.Scope{}, ErrPermissionDenied
	}
	return scope, nil
}
