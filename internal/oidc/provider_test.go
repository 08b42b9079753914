package oidc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateIsRandomAndURLSafe(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		state, err := NewState()
		require.NoError(t, err)
		assert.Len(t, state, 43) // 32 bytes, base64url without padding
		assert.False(t, seen[state], "state values must not repeat")
		seen[state] = true
	}
}

func TestNewProviderRejectsMissingCredentials(t *testing.T) {
	_, err := NewProvider(context.Background(), ProviderConfig{
		RedirectURL: "https://gochop.io/auth/callback/google",
	})
	assert.Error(t, err)

	_, err = NewProvider(context.Background(), ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	})
	assert.Error(t, err)
}
