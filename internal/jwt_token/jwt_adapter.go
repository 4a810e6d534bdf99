package jwttoken

import (
	authmw "vouch/pkg/platform/middleware/auth"
)

// JWTServiceAdapter lets the auth middleware validate tokens without
// depending on this package.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	holder, err := a.service.HolderFromToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{HolderID: holder}, nil
}
