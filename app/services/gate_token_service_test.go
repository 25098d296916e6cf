// Package services provides external service integrations and technical concerns like captcha and tokens
package services

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGateSecret = "gate-secret-for-lead-tokens-32-chars-x"

func TestNewGateTokenService(t *testing.T) {
	t.Run("empty secret is rejected", func(t *testing.T) {
		svc, err := NewGateTokenService("")
		assert.Error(t, err)
		assert.Nil(t, svc)
	})

	t.Run("non-empty secret", func(t *testing.T) {
		svc, err := NewGateTokenService(testGateSecret)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestGateTokenRoundTrip(t *testing.T) {
	svc, err := NewGateTokenService(testGateSecret)
	require.NoError(t, err)

	for _, leadID := range []uint{1, 42, 99999} {
		token, err := svc.Issue(leadID)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		// URL-safe alphabet without padding
		assert.NotContains(t, token, "=")
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "/")

		got, err := svc.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, leadID, got)
	}
}

func TestGateTokenVerifyAcceptsPaddedEncoding(t *testing.T) {
	svc, err := NewGateTokenService(testGateSecret)
	require.NoError(t, err)

	token, err := svc.Issue(7)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)

	padded := base64.URLEncoding.EncodeToString(raw)
	got, err := svc.Verify(padded)
	require.NoError(t, err)
	assert.Equal(t, uint(7), got)
}

func TestGateTokenVerifyRejectsTampering(t *testing.T) {
	svc, err := NewGateTokenService(testGateSecret)
	require.NoError(t, err)

	valid, err := svc.Issue(12)
	require.NoError(t, err)

	decoded, err := base64.RawURLEncoding.DecodeString(valid)
	require.NoError(t, err)
	id, sig, found := strings.Cut(string(decoded), ":")
	require.True(t, found)

	encode := func(payload string) string {
		return base64.RawURLEncoding.EncodeToString([]byte(payload))
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage", "%%%not-base64%%%"},
		{"no separator", encode("12")},
		{"swapped lead id", encode("13:" + sig)},
		{"zero lead id", encode("0:" + sig)},
		{"non-numeric lead id", encode("abc:" + sig)},
		{"flipped signature", encode(id + ":" + flipHexDigit(sig))},
		{"empty signature", encode(id + ":")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, ErrLeadTokenInvalid)
			assert.Zero(t, got)
		})
	}
}

func TestGateTokenDifferentSecretsDiffer(t *testing.T) {
	svcA, err := NewGateTokenService(testGateSecret)
	require.NoError(t, err)
	svcB, err := NewGateTokenService("another-gate-secret-32-characters-min")
	require.NoError(t, err)

	token, err := svcA.Issue(5)
	require.NoError(t, err)

	_, err = svcB.Verify(token)
	assert.ErrorIs(t, err, ErrLeadTokenInvalid)
}

func flipHexDigit(sig string) string {
	if sig == "" {
		return sig
	}
	b := []byte(sig)
	if b[0] == '0' {
		b[0] = '1'
	} else {
		b[0] = '0'
	}
	return string(b)
}
