// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/devmy/leadgate/app/dto"
	"github.com/devmy/leadgate/app/services"
	businessflow "github.com/devmy/leadgate/business_flow"
	"github.com/devmy/leadgate/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// GateHandlerInterface defines the contract for the public gate handlers
type GateHandlerInterface interface {
	IssueNonce(c fiber.Ctx) error
	Status(c fiber.Ctx) error
	SubmitLead(c fiber.Ctx) error
	TrackDownload(c fiber.Ctx) error
}

// GateHandler implements GateHandlerInterface
type GateHandler struct {
	flow      businessflow.GateFlow
	nonces    services.NonceService
	validator *validator.Validate
}

func NewGateHandler(flow businessflow.GateFlow, nonces services.NonceService) GateHandlerInterface {
	return &GateHandler{
		flow:      flow,
		nonces:    nonces,
		validator: validator.New(),
	}
}

// ErrorResponse standard JSON error
func (h *GateHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// SuccessResponse standard JSON success
func (h *GateHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// IssueNonce hands the client a request nonce for the gate endpoints
// @Summary Issue gate nonce
// @Description Issue a nonce the client attaches to submit and tracking calls; reusable until expiry
// @Tags Gate
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.NonceResponse} "Nonce issued"
// @Failure 500 {object} dto.APIResponse "Nonce issuance failed"
// @Router /api/v1/gate/nonce [get]
func (h *GateHandler) IssueNonce(c fiber.Ctx) error {
	nonce, err := h.nonces.Issue(h.createRequestContext(c, "/api/v1/gate/nonce"))
	if err != nil {
		log.Println("Nonce issuance failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Could not issue nonce", "NONCE_ISSUE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Nonce issued", dto.NonceResponse{Nonce: nonce})
}

// Status reports whether this browser has already unlocked downloads
// @Summary Gate status
// @Description Merge the cookie and client-store unlock state and report access
// @Tags Gate
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.GateStatusResponse} "Gate status"
// @Router /api/v1/gate/status [get]
func (h *GateHandler) Status(c fiber.Ctx) error {
	resp := h.flow.Status(readUnlockState(c))
	return h.SuccessResponse(c, fiber.StatusOK, "Gate status", resp)
}

// SubmitLead validates and stores a lead, then grants the unlock state
// @Summary Submit lead form
// @Description Validate the lead form, persist the lead with its unlock event, set the unlock cookies and return the lead token
// @Tags Gate
// @Accept json
// @Produce json
// @Param request body dto.SubmitLeadRequest true "Lead form data"
// @Success 200 {object} dto.APIResponse{data=dto.SubmitLeadResponse} "Lead stored, downloads unlocked"
// @Failure 400 {object} dto.APIResponse "Validation failed"
// @Failure 403 {object} dto.APIResponse "Invalid nonce"
// @Failure 500 {object} dto.APIResponse "Persistence failure"
// @Router /api/v1/gate/submit-lead [post]
func (h *GateHandler) SubmitLead(c fiber.Ctx) error {
	var req dto.SubmitLeadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	ctx := h.createRequestContext(c, "/api/v1/gate/submit-lead")
	if err := h.verifyNonce(ctx, req.Nonce); err != nil {
		return h.nonceError(c, err)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, token, err := h.flow.SubmitLead(ctx, &req, metadata)
	if err != nil {
		if ve, ok := businessflow.AsValidationError(err); ok {
			return h.ErrorResponse(c, fiber.StatusBadRequest, ve.Fields.Headline(), "VALIDATION_ERROR", ve.Fields)
		}
		log.Println("Lead submission failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Could not save your details, please try again.", "LEAD_SUBMIT_FAILED", nil)
	}

	applyUnlockGrant(c, businessflow.NewUnlockGrant(token, c.Protocol() == "https"))

	return h.SuccessResponse(c, fiber.StatusOK, resp.Message, resp)
}

// TrackDownload records a follow-up download for an unlocked client
// @Summary Track follow-up download
// @Description Verify the lead token and append a followup event to the lead's download log
// @Tags Gate
// @Accept json
// @Produce json
// @Param request body dto.TrackDownloadRequest true "Tracking beacon data"
// @Success 200 {object} dto.APIResponse{data=dto.TrackDownloadResponse} "Download recorded"
// @Failure 400 {object} dto.APIResponse "Invalid token, unknown lead or empty document URL"
// @Failure 403 {object} dto.APIResponse "Invalid nonce"
// @Router /api/v1/gate/track-download [post]
func (h *GateHandler) TrackDownload(c fiber.Ctx) error {
	var req dto.TrackDownloadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	ctx := h.createRequestContext(c, "/api/v1/gate/track-download")
	if err := h.verifyNonce(ctx, req.Nonce); err != nil {
		return h.nonceError(c, err)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.TrackDownload(ctx, &req, metadata)
	if err != nil {
		if businessflow.IsLeadTokenInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lead token", "LEAD_TOKEN_INVALID", nil)
		}
		if businessflow.IsLeadNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown lead", "LEAD_NOT_FOUND", nil)
		}
		if businessflow.IsEmptyPdfURL(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "No document to track", "PDF_URL_EMPTY", nil)
		}
		log.Println("Download tracking failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Could not record the download", "TRACK_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, resp.Message, resp)
}

func (h *GateHandler) verifyNonce(ctx context.Context, nonce string) error {
	return h.nonces.Verify(ctx, nonce)
}

func (h *GateHandler) nonceError(c fiber.Ctx, err error) error {
	if businessflow.IsInvalidNonce(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Invalid or expired nonce", "NONCE_INVALID", nil)
	}
	log.Println("Nonce verification failed", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Could not verify request", "NONCE_CHECK_FAILED", nil)
}

// readUnlockState merges the unlock state from the cookies the server set and
// the headers the client echoes from its own store.
func readUnlockState(c fiber.Ctx) businessflow.UnlockState {
	return businessflow.UnlockState{
		Flag: businessflow.ReplicatedFlag{
			Cookie: c.Cookies(utils.UnlockCookieName),
			Stored: c.Get(utils.UnlockedHeader),
		},
		Token: businessflow.ReplicatedFlag{
			Cookie: c.Cookies(utils.LeadTokenCookieName),
			Stored: c.Get(utils.LeadTokenHeader),
		},
	}
}

// applyUnlockGrant writes both unlock cookies. Not HttpOnly: the client JS
// reads them to seed its own store.
func applyUnlockGrant(c fiber.Ctx, grant businessflow.UnlockGrant) {
	c.Cookie(&fiber.Cookie{
		Name:     grant.CookieName,
		Value:    grant.CookieValue,
		Path:     "/",
		MaxAge:   grant.MaxAgeSeconds,
		Secure:   grant.Secure,
		HTTPOnly: false,
		SameSite: grant.SameSite,
	})
	c.Cookie(&fiber.Cookie{
		Name:     grant.TokenCookieName,
		Value:    grant.TokenValue,
		Path:     "/",
		MaxAge:   grant.MaxAgeSeconds,
		Secure:   grant.Secure,
		HTTPOnly: false,
		SameSite: grant.SameSite,
	})
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *GateHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *GateHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
