package model

import "github.com/google/uuid"

type UserRole string

const (
	RoleOwner   UserRole = "OWNER"
	RoleAdmin   UserRole = "ADMIN"
	RoleManager UserRole = "MANAGER"
	RoleDriver  UserRole = "DRIVER"
)

type Principal struct {
	UserID    uuid.UUID
	CompanyID *uuid.UUID
	Role      UserRole
	DriverID  *uuid.UUID
}

func (p Principal) IsDriver() bool {
	return p.Role == RoleDriver
}

// Scope is the tenant a request is allowed to read.
type Scope struct {
	CompanyID uuid.UUID
	Role      UserRole
}

func (s Scope) Valid() bool {
	return s.CompanyID != uuid.Nil
}
