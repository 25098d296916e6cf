// Package businessflow contains the core business logic and use cases for the download gate
package businessflow

import (
	"testing"

	"github.com/devmy/leadgate/utils"
	"github.com/stretchr/testify/assert"
)

func TestReplicatedFlag(t *testing.T) {
	tests := []struct {
		name      string
		flag      ReplicatedFlag
		wantSet   bool
		wantValue string
	}{
		{"both empty", ReplicatedFlag{}, false, ""},
		{"cookie only", ReplicatedFlag{Cookie: "1"}, true, "1"},
		{"store only", ReplicatedFlag{Stored: "1"}, true, "1"},
		{"both set, store wins", ReplicatedFlag{Cookie: "cookie-token", Stored: "stored-token"}, true, "stored-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantSet, tt.flag.IsSet())
			assert.Equal(t, tt.wantValue, tt.flag.Value())
		})
	}
}

func TestUnlockStateHasAccess(t *testing.T) {
	t.Run("locked by default", func(t *testing.T) {
		assert.False(t, UnlockState{}.HasAccess())
	})

	t.Run("either flag location unlocks", func(t *testing.T) {
		assert.True(t, UnlockState{Flag: ReplicatedFlag{Cookie: "1"}}.HasAccess())
		assert.True(t, UnlockState{Flag: ReplicatedFlag{Stored: "1"}}.HasAccess())
	})

	t.Run("token alone does not unlock", func(t *testing.T) {
		state := UnlockState{Token: ReplicatedFlag{Stored: "some-token"}}
		assert.False(t, state.HasAccess())
		assert.Equal(t, "some-token", state.LeadToken())
	})
}

func TestNewUnlockGrant(t *testing.T) {
	grant := NewUnlockGrant("lead-token", true)

	assert.Equal(t, utils.UnlockCookieName, grant.CookieName)
	assert.Equal(t, utils.UnlockedSentinel, grant.CookieValue)
	assert.Equal(t, utils.LeadTokenCookieName, grant.TokenCookieName)
	assert.Equal(t, "lead-token", grant.TokenValue)
	assert.Equal(t, utils.UnlockTTLSeconds, grant.MaxAgeSeconds)
	assert.Equal(t, "Lax", grant.SameSite)
	assert.True(t, grant.Secure)

	// Re-issuing the grant yields the same client state
	again := NewUnlockGrant("lead-token", true)
	assert.Equal(t, grant, again)

	insecure := NewUnlockGrant("lead-token", false)
	assert.False(t, insecure.Secure)
}
