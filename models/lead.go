// Package models contains domain entities and business models for the download gate
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Lead is one stored contact submission that unlocked the PDF gate.
// Created exactly once per successful unlock; the core never updates it
// except for the downloaded_pdfs convenience list, and never deletes it.
type Lead struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_leads_uuid" json:"uuid"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;index:idx_leads_email" json:"email"`
	Company      string    `gorm:"size:255;not null" json:"company"`
	SourceURL    string    `gorm:"type:text" json:"source_url"`
	RequestedPdf string    `gorm:"type:text" json:"requested_pdf"`
	ConsentGiven *bool     `gorm:"default:false" json:"consent_given"`

	IPAddress *string `gorm:"type:inet" json:"ip_address,omitempty"`
	UserAgent *string `gorm:"type:text" json:"user_agent,omitempty"`

	// DownloadedPdfs is a deduplicated jsonb list of normalized PDF URLs,
	// keyed by comparison key. The full history lives in download_events;
	// this list only answers "has this lead already pulled that file".
	DownloadedPdfs json.RawMessage `gorm:"type:jsonb" json:"downloaded_pdfs,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_leads_created_at" json:"created_at"`
}

func (Lead) TableName() string {
	return "leads"
}

// DownloadedPdfList decodes the downloaded_pdfs column; empty or malformed
// content decodes to an empty slice (absence is not exceptional).
func (l *Lead) DownloadedPdfList() []string {
	if len(l.DownloadedPdfs) == 0 {
		return nil
	}
	var pdfs []string
	if err := json.Unmarshal(l.DownloadedPdfs, &pdfs); err != nil {
		return nil
	}
	return pdfs
}

// SetDownloadedPdfList encodes pdfs back into the downloaded_pdfs column.
func (l *Lead) SetDownloadedPdfList(pdfs []string) error {
	raw, err := json.Marshal(pdfs)
	if err != nil {
		return err
	}
	l.DownloadedPdfs = raw
	return nil
}

// LeadFilter represents filter criteria for lead queries
type LeadFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Email         *string
	Company       *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
