// Package auth verifies the two inbound credentials: the shared
// service token presented by the external scheduler, and broker bearer
// tokens issued by the external auth system.
package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"RateWatch/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks bearer credentials. Token issuance is external; this
// only validates what arrives.
type Verifier struct {
	serviceToken string
	jwtSecret    string
	jwtIssuer    string
}

// NewVerifier creates a credential verifier.
func NewVerifier(serviceToken, jwtSecret, jwtIssuer string) *Verifier {
	return &Verifier{serviceToken: serviceToken, jwtSecret: jwtSecret, jwtIssuer: jwtIssuer}
}

// bearer strips the "Bearer " prefix from an Authorization header.
func bearer(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return strings.TrimSpace(header)
}

// VerifyServiceToken checks the scheduled-run credential. Constant-time
// compare; unauthorized calls must be rejected before any side effect.
func (v *Verifier) VerifyServiceToken(authHeader string) error {
	token := bearer(authHeader)
	if token == "" || v.serviceToken == "" {
		return models.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(v.serviceToken)) != 1 {
		return models.ErrUnauthorized
	}
	return nil
}

// BrokerID extracts the broker id (sub claim) from an HS256 bearer
// token. Any parse or validation failure maps to ErrUnauthorized.
func (v *Verifier) BrokerID(authHeader string) (string, error) {
	raw := bearer(authHeader)
	if raw == "" {
		return "", models.ErrUnauthorized
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})}
	if v.jwtIssuer != "" {
		opts = append(opts, jwt.WithIssuer(v.jwtIssuer))
	}

	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(v.jwtSecret), nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", models.ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", models.ErrUnauthorized
	}
	return sub, nil
}
