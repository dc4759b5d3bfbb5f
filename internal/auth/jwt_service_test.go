package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewJWTService(t *testing.T) {
	_, err := NewJWTService("short", time.Hour)
	assert.Error(t, err)

	svc, err := NewJWTService("", 0)
	require.NoError(t, err)
	assert.False(t, svc.Enabled())

	_, _, err = svc.GenerateAccessToken("shell", "")
	assert.True(t, errors.Is(err, ErrAuthDisabled))
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)
	assert.True(t, svc.Enabled())

	token, expiry, err := svc.GenerateAccessToken("shell", "b-42")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	claims, err := svc.ExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "shell", claims.Subject)
	assert.Equal(t, "b-42", claims.BuildingID)
	assert.Equal(t, expiry.Unix(), claims.Exp)
}

func TestJWTService_Expired(t *testing.T) {
	svc, err := NewJWTService(testSecret, time.Minute)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := svc.GenerateAccessToken("shell", "")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ParseToken(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestJWTService_WrongSecret(t *testing.T) {
	a, _ := NewJWTService(testSecret, time.Hour)
	b, _ := NewJWTService(strings.Repeat("x", 32), time.Hour)

	token, _, err := a.GenerateAccessToken("shell", "")
	require.NoError(t, err)
	_, err = b.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsOtherTypes(t *testing.T) {
	svc, _ := NewJWTService(testSecret, time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "shell",
		"type": "refresh",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ExtractClaims(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
