// Package services provides external service integrations and technical concerns like nonces and tokens
package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrLeadTokenInvalid is returned for any lead token that fails decoding or verification
var ErrLeadTokenInvalid = errors.New("invalid lead token")

// GateTokenService signs and verifies the long-lived lead tokens handed to
// unlocked clients. The token is base64url (no padding) of "<id>:<hex sig>"
// where the signature is HMAC-SHA256 over the decimal lead ID. The format is
// a client contract: stored tokens stay valid across deployments as long as
// the secret is stable, and they carry no expiry (access itself expires with
// the unlock cookie).
type GateTokenService interface {
	Issue(leadID uint) (string, error)
	Verify(token string) (uint, error)
}

// GateTokenServiceImpl implements GateTokenService
type GateTokenServiceImpl struct {
	secret []byte
}

// NewGateTokenService creates a new lead token service
func NewGateTokenService(secret string) (GateTokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("lead token secret is required")
	}
	return &GateTokenServiceImpl{secret: []byte(secret)}, nil
}

// Issue creates a signed token for the given lead ID
func (s *GateTokenServiceImpl) Issue(leadID uint) (string, error) {
	if leadID == 0 {
		return "", fmt.Errorf("lead ID must be positive")
	}

	id := strconv.FormatUint(uint64(leadID), 10)
	payload := id + ":" + s.sign(id)
	return base64.RawURLEncoding.EncodeToString([]byte(payload)), nil
}

// Verify checks a token's signature and returns the embedded lead ID.
// Any malformed or tampered token yields ErrLeadTokenInvalid; garbage input
// never panics.
func (s *GateTokenServiceImpl) Verify(token string) (uint, error) {
	if token == "" {
		return 0, ErrLeadTokenInvalid
	}

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		// Tolerate clients that send standard base64 padding.
		decoded, err = base64.URLEncoding.DecodeString(token)
		if err != nil {
			return 0, ErrLeadTokenInvalid
		}
	}

	id, sig, found := strings.Cut(string(decoded), ":")
	if !found || id == "" || sig == "" {
		return 0, ErrLeadTokenInvalid
	}

	leadID, err := strconv.ParseUint(id, 10, 64)
	if err != nil || leadID == 0 {
		return 0, ErrLeadTokenInvalid
	}

	if !hmac.Equal([]byte(sig), []byte(s.sign(id))) {
		return 0, ErrLeadTokenInvalid
	}

	return uint(leadID), nil
}

func (s *GateTokenServiceImpl) sign(id string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}
