// Package businessflow contains the core business logic and use cases for the download gate
package businessflow

import (
	"github.com/devmy/leadgate/utils"
)

// ReplicatedFlag is one value held in two client-side locations: the cookie
// the server sets and the store the client manages itself. Either copy alone
// is authoritative; a cleared location does not revoke the other.
type ReplicatedFlag struct {
	Cookie string
	Stored string
}

// IsSet reports whether any location holds a non-empty value
func (f ReplicatedFlag) IsSet() bool {
	return f.Cookie != "" || f.Stored != ""
}

// Value returns the stored copy when present, otherwise the cookie copy.
// The client-managed store wins because the client refreshes it last.
func (f ReplicatedFlag) Value() string {
	return utils.FirstNonEmpty(f.Stored, f.Cookie)
}

// UnlockState is the gate state a request carries: the unlock flag and the
// lead token, each replicated across both locations.
type UnlockState struct {
	Flag  ReplicatedFlag
	Token ReplicatedFlag
}

// HasAccess reports whether this browser has already passed the gate.
// Access is decided from the flag alone so a lost token never re-locks
// the form.
func (s UnlockState) HasAccess() bool {
	return s.Flag.IsSet()
}

// LeadToken returns the lead token for follow-up tracking, or "" when no
// location still holds one.
func (s UnlockState) LeadToken() string {
	return s.Token.Value()
}

// UnlockGrant describes everything a client must persist after a successful
// submission: both cookies and the values mirrored into the client store.
// Applying a grant twice yields the same state, so retried submissions
// are harmless.
type UnlockGrant struct {
	CookieName      string
	CookieValue     string
	TokenCookieName string
	TokenValue      string
	MaxAgeSeconds   int
	SameSite        string
	Secure          bool
}

// NewUnlockGrant builds the grant for a freshly issued lead token.
// secure should reflect whether the request arrived over TLS.
func NewUnlockGrant(leadToken string, secure bool) UnlockGrant {
	return UnlockGrant{
		CookieName:      utils.UnlockCookieName,
		CookieValue:     utils.UnlockedSentinel,
		TokenCookieName: utils.LeadTokenCookieName,
		TokenValue:      leadToken,
		MaxAgeSeconds:   utils.UnlockTTLSeconds,
		SameSite:        "Lax",
		Secure:          secure,
	}
}
