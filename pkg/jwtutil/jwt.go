package jwtutil

import (
	"errors"
	"fmt"

	"github.com/afsalck/sme-business-suite-sub002/pkg/config"
	"github.com/golang-jwt/jwt/v4"
)

// IdentityClaims are the claims carried by tokens issued by the external
// identity provider. The suite never issues or signs tokens itself; it only
// validates what the provider hands to the browser.
type IdentityClaims struct {
	Email      string `json:"email"`
	ExternalID string `json:"sub_id,omitempty"`
	Name       string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

var cfg *config.JWTConfig

// Initialize stores the JWT configuration used for token validation
func Initialize(jwtConfig *config.JWTConfig) {
	cfg = jwtConfig
}

// ValidateToken validates and parses an identity token
func ValidateToken(tokenString string) (*IdentityClaims, error) {
	if cfg == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&IdentityClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(cfg.SigningKey), nil
		},
	)

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*IdentityClaims); ok && token.Valid {
		if claims.Email == "" {
			return nil, errors.New("token missing email claim")
		}
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
