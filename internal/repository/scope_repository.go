package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-analytics-service/internal/model"
)

var ErrScopeUnsupported = errors.New("scope unsupported")

type ScopeRepository struct {
	db *gorm.DB
}

func NewScopeRepository(db *gorm.DB) *ScopeRepository {
	return &ScopeRepository{db: db}
}

// ResolveScope trusts the signed company claim and otherwise looks the user
// up in profiles. A user without a company has no scope.
func (r *ScopeRepository) ResolveScope(ctx context.Context, principal model.Principal) (model.Scope, error) {
	if principal.CompanyID != nil && *principal.CompanyID != uuid.Nil {
		return model.Scope{CompanyID: *principal.CompanyID, Role: principal.Role}, nil
	}

	if !relationExists(ctx, r.db, "profiles") {
		return model.Scope{}, ErrScopeUnsupported
	}

	var rows []struct {
		CompanyID *uuid.UUID
		Role      *string
	}
	err := r.db.WithContext(ctx).
		Table("profiles p").
		Select("p.company_id, p.role").
		Where("p.id = ?", principal.UserID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return model.Scope{}, err
	}
	if len(rows) == 0 || rows[0].CompanyID == nil || *rows[0].CompanyID == uuid.Nil {
		return model.Scope{}, ErrScopeUnsupported
	}

	scope := model.Scope{CompanyID: *rows[0].CompanyID, Role: principal.Role}
	if scope.Role == "" && rows[0].Role != nil {
		scope.Role = model.UserRole(*rows[0].Role)
	}
	return scope, nil
}
