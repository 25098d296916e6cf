package models

import "time"

// DownloadEvent is one tracked PDF download for a lead.
// Append-only audit trail: duplicates across calls are expected and kept.
// PdfURL is stored in normalized absolute form.
type DownloadEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LeadID    uint      `gorm:"index:idx_download_events_lead_id;not null" json:"lead_id"`
	Lead      *Lead     `gorm:"foreignKey:LeadID;references:ID" json:"lead,omitempty"`
	PdfURL    string    `gorm:"type:text;not null" json:"pdf_url"`
	SourceURL string    `gorm:"type:text" json:"source_url"`
	EventType string    `gorm:"size:16;not null;index:idx_download_events_event_type" json:"event_type"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_download_events_created_at" json:"created_at"`
}

// TableName returns the table name for DownloadEvent
func (DownloadEvent) TableName() string { return "download_events" }

// DownloadEventFilter represents filter criteria for download event queries
type DownloadEventFilter struct {
	ID            *uint
	LeadID        *uint
	EventType     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
