package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salon-dashboard/internal/http/middleware"
)

func TestRunPrintsOwnerToken(t *testing.T) {
	var out bytes.Buffer
	now := time.Now()
	require.NoError(t, run([]string{"-subject", "maria", "-ttl", "2h"}, "secret", &out, now))

	claims := middleware.OwnerClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(out.String()), &claims, func(*jwt.Token) (any, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, middleware.OwnerRole, claims.Role)
	assert.Equal(t, "maria", claims.Subject)
	assert.WithinDuration(t, now.Add(2*time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(nil, "", &out, time.Now()))
	assert.Error(t, run([]string{"-ttl", "-1h"}, "secret", &out, time.Now()))
	assert.Error(t, run([]string{"-bogus"}, "secret", &out, time.Now()))
	assert.Empty(t, out.String())
}
