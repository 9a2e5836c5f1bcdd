package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fleet-analytics-service/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID    string `json:"user_id,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	Role      string `json:"role,omitempty"`
	DriverID  string `json:"driver_id,omitempty"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, fmt.Errorf("%w: user id: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// Principal converts claims into the request principal. The user id is
// required; malformed optional ids are dropped.
func (c *Claims) Principal() (model.Principal, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: user id: %v", ErrInvalidToken, err)
	}
	principal := model.Principal{
		UserID: userID,
		Role:   model.UserRole(c.Role),
	}
	if id, err := uuid.Parse(c.CompanyID); err == nil {
		principal.CompanyID = &id
	}
	if id, err := uuid.Parse(c.DriverID); err == nil {
		principal.DriverID = &id
	}
	return principal, nil
}
