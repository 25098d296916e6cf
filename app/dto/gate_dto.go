// Package dto contains Data Transfer Objects for API request and response structures
package dto

// SubmitLeadRequest represents the lead form a visitor submits to unlock downloads
type SubmitLeadRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Company string `json:"company" validate:"required,max=255"`

	// Present only when the consent variant of the form is enabled
	DataStorageConsent *bool `json:"data_storage_consent,omitempty"`

	SourceURL    string `json:"source_url,omitempty" validate:"omitempty,max=2048"`
	RequestedPdf string `json:"requested_pdf" validate:"required,max=2048"`
	Nonce        string `json:"nonce" validate:"required"`
}

// SubmitLeadResponse carries the lead token the client mirrors into its store
type SubmitLeadResponse struct {
	Message   string `json:"message"`
	LeadToken string `json:"lead_token"`
}

// TrackDownloadRequest is the follow-up download beacon an unlocked client sends
type TrackDownloadRequest struct {
	LeadToken    string `json:"lead_token" validate:"required"`
	RequestedPdf string `json:"requested_pdf" validate:"required,max=2048"`
	SourceURL    string `json:"source_url,omitempty" validate:"omitempty,max=2048"`
	Nonce        string `json:"nonce" validate:"required"`
}

// TrackDownloadResponse acknowledges a tracking beacon
type TrackDownloadResponse struct {
	Message string `json:"message"`
}

// GateStatusResponse tells the client bootstrap whether this browser is unlocked
type GateStatusResponse struct {
	Unlocked bool `json:"unlocked"`
}

// NonceResponse carries a request nonce for the public gate endpoints
type NonceResponse struct {
	Nonce string `json:"nonce"`
}
