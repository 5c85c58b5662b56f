package jwttoken

import (
	"basket/internal/platform/middleware"
	id "basket/pkg/domain"
	dErrors "basket/pkg/domain-errors"
)

// Adapter exposes the token service through the middleware's TokenValidator
// interface, translating signed claims into the principal shape the request
// pipeline carries.
type Adapter struct {
	service *Service
}

func NewAdapter(service *Service) *Adapter {
	return &Adapter{service: service}
}

func (a *Adapter) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "malformed subject claim")
	}
	return &middleware.TokenClaims{
		UserID: userID,
		Admin:  claims.Admin,
		JTI:    claims.ID,
	}, nil
}
