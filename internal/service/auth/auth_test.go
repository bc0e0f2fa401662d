package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateWatch/internal/domain/models"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestVerifyServiceToken(t *testing.T) {
	v := NewVerifier("svc-credential", testSecret, "")

	assert.NoError(t, v.VerifyServiceToken("Bearer svc-credential"))
	assert.ErrorIs(t, v.VerifyServiceToken("Bearer wrong"), models.ErrUnauthorized)
	assert.ErrorIs(t, v.VerifyServiceToken(""), models.ErrUnauthorized)
}

func TestBrokerID(t *testing.T) {
	v := NewVerifier("svc", testSecret, "")
	token := signedToken(t, jwt.MapClaims{
		"sub": "broker-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	got, err := v.BrokerID("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "broker-42", got)
}

func TestBrokerIDExpired(t *testing.T) {
	v := NewVerifier("svc", testSecret, "")
	token := signedToken(t, jwt.MapClaims{
		"sub": "broker-42",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := v.BrokerID("Bearer " + token)
	assert.True(t, errors.Is(err, models.ErrUnauthorized))
}

func TestBrokerIDMissingSubject(t *testing.T) {
	v := NewVerifier("svc", testSecret, "")
	token := signedToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.BrokerID("Bearer " + token)
	assert.True(t, errors.Is(err, models.ErrUnauthorized))
}

func TestBrokerIDGarbage(t *testing.T) {
	v := NewVerifier("svc", testSecret, "")
	_, err := v.BrokerID("Bearer not-a-jwt")
	assert.True(t, errors.Is(err, models.ErrUnauthorized))
}
