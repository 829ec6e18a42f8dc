package service

import (
	"errors"
	"fmt"
	"time"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
)

// sessionClaims is the JWT body. Subject is the account id, or the admin username.
type sessionClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTTokenService issues and checks HS256 session tokens.
type JWTTokenService struct {
	key    []byte
	ttl    time.Duration
	issuer string
	parser *jwt.Parser
	now    func() time.Time
}

func NewJWTTokenService(secret string, ttl time.Duration, issuer string) *JWTTokenService {
	return &JWTTokenService{
		key:    []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
		now: time.Now,
	}
}

// Generate signs a session token for subject acting as role.
func (s *JWTTokenService) Generate(subject string, role domain.Role) (string, time.Time, error) {
	if !role.Valid() {
		return "", time.Time{}, fmt.Errorf("unknown role %q", role)
	}
	issued := s.now()
	expires := issued.Add(s.ttl)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expires, nil
}

// Validate checks signature, issuer and expiry, then the session fields.
func (s *JWTTokenService) Validate(raw string) (*ports.TokenClaims, error) {
	var claims sessionClaims
	if _, err := s.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	}); err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}

	switch {
	case claims.Subject == "":
		return nil, errors.New("session token has no subject")
	case !claims.Role.Valid():
		return nil, fmt.Errorf("session token role %q is not recognised", claims.Role)
	}
	return &ports.TokenClaims{Subject: claims.Subject, Role: claims.Role}, nil
}
