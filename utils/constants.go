package utils

import (
	"time"
)

// Unlock-state constants shared between handlers and flows
const (
	// UnlockCookieName carries the unlocked sentinel on the durable cookie location
	UnlockCookieName = "leadgate_unlocked"

	// LeadTokenCookieName carries the signed lead token next to the unlock flag
	LeadTokenCookieName = "leadgate_unlocked_lead_token"

	// UnlockedSentinel is the value both storage locations hold once access is granted
	UnlockedSentinel = "1"

	// UnlockTTL is how long a granted unlock stays valid (365 days)
	UnlockTTL = 365 * 24 * time.Hour

	// UnlockTTLSeconds is UnlockTTL expressed as a cookie max-age
	UnlockTTLSeconds = 365 * 24 * 60 * 60
)

// Client-store echo headers: the browser mirrors its local-storage copy of the
// unlock state into these headers so the server can merge both locations.
const (
	UnlockedHeader  = "X-Leadgate-Unlocked"
	LeadTokenHeader = "X-Leadgate-Token"
)

// Token and session time constants
const (
	// AdminAccessTokenTTL is the time-to-live for admin access tokens (24 hours)
	AdminAccessTokenTTL = 24 * time.Hour

	// AdminAccessTokenTTLSeconds is the access token TTL in seconds
	AdminAccessTokenTTLSeconds = 86400

	// AdminRefreshTokenTTL is the time-to-live for admin refresh tokens (7 days)
	AdminRefreshTokenTTL = 7 * 24 * time.Hour

	// NonceTTL is how long an issued form nonce stays accepted (24 hours)
	NonceTTL = 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Download event types recorded per lead
const (
	EventTypeUnlock   = "unlock"
	EventTypeFollowup = "followup"
)

// Request-scoped context keys set by handlers and read by flows
const (
	RequestIDKey  = "X-Request-ID"
	UserAgentKey  = "User-Agent"
	IPAddressKey  = "IP-Address"
	EndpointKey   = "Endpoint"
	TimeoutKey    = "Timeout"
	CancelFuncKey = "CancelFunc"
)
