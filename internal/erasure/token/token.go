// Package token issues and validates erasure-link tokens: short-lived signed
// references to one respondent record, handed out by an admin so the person
// can trigger their own PII erasure without authenticating.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "formpulse/pkg/domain"
	dErrors "formpulse/pkg/domain-errors"
)

const scopeErasure = "erasure"

// Claims represents the JWT claims for erasure-link tokens.
type Claims struct {
	RespondentID string `json:"respondent_id"`
	Scope        string `json:"scope"`
	jwt.RegisteredClaims
}

// Service signs and validates erasure-link tokens with a symmetric key.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewService(signingKey string, issuer string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
	}
}

// Generate issues a token bound to one respondent. The token authorizes
// exactly one operation: erasing that respondent's PII.
func (s *Service) Generate(respondentID id.RespondentID) (string, error) {
	if len(s.signingKey) == 0 {
		return "", dErrors.New(dErrors.CodeInternal, "erasure tokens not configured")
	}

	now := time.Now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RespondentID: respondentID.String(),
		Scope:        scopeErasure,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// Validate checks the signature, expiry, issuer and scope, and returns the
// respondent the token is bound to.
func (s *Service) Validate(tokenString string) (id.RespondentID, error) {
	// An empty key would verify tokens anyone can sign.
	if len(s.signingKey) == 0 {
		return id.RespondentID{}, dErrors.New(dErrors.CodeUnauthorized, "erasure tokens not configured")
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.RespondentID{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return id.RespondentID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return id.RespondentID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Scope != scopeErasure {
		return id.RespondentID{}, dErrors.New(dErrors.CodeUnauthorized, "token scope mismatch")
	}

	respondentID, err := id.ParseRespondentID(claims.RespondentID)
	if err != nil {
		return id.RespondentID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return respondentID, nil
}
