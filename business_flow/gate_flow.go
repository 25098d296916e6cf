// Package businessflow contains the core business logic and use cases for the download gate
package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/devmy/leadgate/app/dto"
	"github.com/devmy/leadgate/app/services"
	"github.com/devmy/leadgate/models"
	"github.com/devmy/leadgate/repository"
	"github.com/devmy/leadgate/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// dedupSwapAttempts bounds the downloaded_pdfs compare-and-swap retries
const dedupSwapAttempts = 3

// GateFlow is the submission and tracking surface of the download gate
type GateFlow interface {
	SubmitLead(ctx context.Context, req *dto.SubmitLeadRequest, metadata *ClientMetadata) (*dto.SubmitLeadResponse, string, error)
	TrackDownload(ctx context.Context, req *dto.TrackDownloadRequest, metadata *ClientMetadata) (*dto.TrackDownloadResponse, error)
	Status(state UnlockState) *dto.GateStatusResponse
	AppendDownloadEvent(ctx context.Context, leadID uint, pdfURL, sourceURL, eventType string) error
}

// GateFlowImpl implements GateFlow
type GateFlowImpl struct {
	leadRepo       repository.LeadRepository
	eventRepo      repository.DownloadEventRepository
	auditRepo      repository.AuditLogRepository
	gateTokens     services.GateTokenService
	db             *gorm.DB
	siteBaseURL    string
	requireConsent bool
}

// NewGateFlow creates a new gate flow instance
func NewGateFlow(
	leadRepo repository.LeadRepository,
	eventRepo repository.DownloadEventRepository,
	auditRepo repository.AuditLogRepository,
	gateTokens services.GateTokenService,
	db *gorm.DB,
	siteBaseURL string,
	requireConsent bool,
) GateFlow {
	return &GateFlowImpl{
		leadRepo:       leadRepo,
		eventRepo:      eventRepo,
		auditRepo:      auditRepo,
		gateTokens:     gateTokens,
		db:             db,
		siteBaseURL:    siteBaseURL,
		requireConsent: requireConsent,
	}
}

// SubmitLead validates a lead form, persists the lead together with its
// unlock event, and returns the signed lead token. The second return value
// is the token for the handler's unlock grant; it equals the response field
// but keeps handlers from reaching into the DTO.
func (s *GateFlowImpl) SubmitLead(ctx context.Context, req *dto.SubmitLeadRequest, metadata *ClientMetadata) (*dto.SubmitLeadResponse, string, error) {
	if fieldErrors := ValidateLeadFields(req, s.requireConsent); len(fieldErrors) > 0 {
		return nil, "", NewValidationError(fieldErrors)
	}

	var lead *models.Lead
	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		var err error
		lead, err = s.createLead(txCtx, req, metadata)
		if err != nil {
			return err
		}

		return s.AppendDownloadEvent(txCtx, lead.ID, req.RequestedPdf, req.SourceURL, utils.EventTypeUnlock)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Lead submission failed: %s", err.Error())
		_ = s.createAuditLog(ctx, lead, models.AuditActionLeadSubmitFailed, errMsg, false, &errMsg, metadata)

		return nil, "", NewBusinessError("LEAD_SUBMIT_FAILED", "Could not save your details, please try again.", err)
	}

	msg := fmt.Sprintf("Lead submitted successfully: %d", lead.ID)
	_ = s.createAuditLog(ctx, lead, models.AuditActionLeadSubmitted, msg, true, nil, metadata)

	token, err := s.gateTokens.Issue(lead.ID)
	if err != nil {
		// The lead is stored; the client just loses follow-up tracking.
		errMsg := fmt.Sprintf("Lead token issuance failed: %v", err)
		_ = s.createAuditLog(ctx, lead, models.AuditActionLeadSubmitFailed, errMsg, false, &errMsg, metadata)

		return nil, "", NewBusinessError("LEAD_TOKEN_FAILED", "Could not save your details, please try again.", err)
	}

	return &dto.SubmitLeadResponse{
		Message:   "Thank you! Your download will start shortly.",
		LeadToken: token,
	}, token, nil
}

// TrackDownload records a follow-up download for an already unlocked client.
// The token and lead must check out; a failing event append is swallowed into
// a success response because the client has already started the download.
func (s *GateFlowImpl) TrackDownload(ctx context.Context, req *dto.TrackDownloadRequest, metadata *ClientMetadata) (*dto.TrackDownloadResponse, error) {
	leadID, err := s.gateTokens.Verify(req.LeadToken)
	if err != nil {
		return nil, NewBusinessError("LEAD_TOKEN_INVALID", "Invalid lead token", err)
	}

	lead, err := s.leadRepo.ByID(ctx, leadID)
	if err != nil {
		return nil, NewBusinessError("LEAD_LOOKUP_FAILED", "Failed to lookup lead", err)
	}
	if lead == nil {
		return nil, NewBusinessError("LEAD_NOT_FOUND", "Unknown lead", ErrLeadNotFound)
	}

	if utils.NormalizePdfURL(req.RequestedPdf, s.siteBaseURL) == "" {
		return nil, NewBusinessError("PDF_URL_EMPTY", "No document to track", ErrEmptyPdfURL)
	}

	if err := s.AppendDownloadEvent(ctx, lead.ID, req.RequestedPdf, req.SourceURL, utils.EventTypeFollowup); err != nil {
		errMsg := fmt.Sprintf("Download tracking failed: %s", err.Error())
		_ = s.createAuditLog(ctx, lead, models.AuditActionDownloadTrackFailed, errMsg, false, &errMsg, metadata)

		return &dto.TrackDownloadResponse{Message: "Download recorded."}, nil
	}

	msg := fmt.Sprintf("Download tracked for lead %d", lead.ID)
	_ = s.createAuditLog(ctx, lead, models.AuditActionDownloadTracked, msg, true, nil, metadata)

	return &dto.TrackDownloadResponse{Message: "Download recorded."}, nil
}

// Status reports whether the request's unlock state grants access
func (s *GateFlowImpl) Status(state UnlockState) *dto.GateStatusResponse {
	return &dto.GateStatusResponse{Unlocked: state.HasAccess()}
}

// AppendDownloadEvent appends one event to the lead's audit trail and keeps
// the deduplicated downloaded_pdfs list current. Silently no-ops when there
// is no lead or the URL normalizes to nothing; the event log itself keeps
// duplicates.
func (s *GateFlowImpl) AppendDownloadEvent(ctx context.Context, leadID uint, pdfURL, sourceURL, eventType string) error {
	if leadID == 0 {
		return nil
	}

	normalized := utils.NormalizePdfURL(pdfURL, s.siteBaseURL)
	if normalized == "" {
		return nil
	}

	event := &models.DownloadEvent{
		LeadID:    leadID,
		PdfURL:    normalized,
		SourceURL: sourceURL,
		EventType: eventType,
		CreatedAt: utils.UTCNow(),
	}
	if err := s.eventRepo.Save(ctx, event); err != nil {
		return fmt.Errorf("failed to append download event: %w", err)
	}

	// Compare-and-swap loop: concurrent beacons for the same lead must not
	// overwrite each other's list entries, so each attempt re-reads the row
	// and only writes when the stored list is still the one it read.
	key := utils.ComparisonKey(normalized)
	for attempt := 0; attempt < dedupSwapAttempts; attempt++ {
		lead, err := s.leadRepo.ByID(ctx, leadID)
		if err != nil {
			return fmt.Errorf("failed to load lead for dedup list: %w", err)
		}
		if lead == nil {
			return nil
		}

		pdfs := lead.DownloadedPdfList()
		for _, existing := range pdfs {
			if utils.ComparisonKey(existing) == key {
				return nil
			}
		}

		swapped, err := s.leadRepo.SwapDownloadedPdfs(ctx, leadID, lead.DownloadedPdfs, append(pdfs, normalized))
		if err != nil {
			return fmt.Errorf("failed to update downloaded pdfs: %w", err)
		}
		if swapped {
			return nil
		}
	}

	// The event row is stored either way; the list is a convenience view.
	return nil
}

// ResolvePrimaryPdf picks the single PDF that best represents what a lead
// came for: the form's requested PDF, else the first unlock event, else the
// first event of any type, else the first deduplicated entry.
func ResolvePrimaryPdf(lead *models.Lead, events []*models.DownloadEvent) string {
	if lead == nil {
		return ""
	}
	if lead.RequestedPdf != "" {
		return lead.RequestedPdf
	}

	for _, event := range events {
		if event.EventType == utils.EventTypeUnlock && event.PdfURL != "" {
			return event.PdfURL
		}
	}
	for _, event := range events {
		if event.PdfURL != "" {
			return event.PdfURL
		}
	}

	if pdfs := lead.DownloadedPdfList(); len(pdfs) > 0 {
		return pdfs[0]
	}
	return ""
}

func (s *GateFlowImpl) createLead(ctx context.Context, req *dto.SubmitLeadRequest, metadata *ClientMetadata) (*models.Lead, error) {
	lead := &models.Lead{
		UUID:         uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Company:      strings.TrimSpace(req.Company),
		SourceURL:    req.SourceURL,
		RequestedPdf: utils.NormalizePdfURL(req.RequestedPdf, s.siteBaseURL),
		ConsentGiven: req.DataStorageConsent,
		CreatedAt:    utils.UTCNow(),
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			lead.IPAddress = &metadata.IPAddress
		}
		if metadata.UserAgent != "" {
			lead.UserAgent = &metadata.UserAgent
		}
	}

	if err := s.leadRepo.Save(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to save lead: %w", err)
	}

	return lead, nil
}

func (s *GateFlowImpl) createAuditLog(ctx context.Context, lead *models.Lead, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	var leadID *uint
	if lead != nil && lead.ID != 0 {
		leadID = &lead.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		LeadID:       leadID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return s.auditRepo.Save(ctx, audit)
}
