// Package testing provides test utilities and database setup for testing the download gate
package testing

import (
	"fmt"
	"math/rand"

	"github.com/devmy/leadgate/models"
	"github.com/devmy/leadgate/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestLead creates a lead with unique contact details
func (tf *TestFixtures) CreateTestLead() (*models.Lead, error) {
	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	lead := &models.Lead{
		UUID:         uuid.New(),
		Name:         "Jane Doe",
		Email:        fmt.Sprintf("jane.doe.%s@example.com", randomDigits),
		Company:      "Example GmbH",
		SourceURL:    "https://example.com/whitepapers",
		RequestedPdf: "https://example.com/files/whitepaper.pdf",
		ConsentGiven: utils.ToPtr(true),
		IPAddress:    utils.ToPtr("127.0.0.1"),
		UserAgent:    utils.ToPtr("Test User Agent"),
	}

	if err := tf.DB.DB.Create(lead).Error; err != nil {
		return nil, fmt.Errorf("failed to create test lead: %w", err)
	}

	return lead, nil
}

// CreateTestDownloadEvent appends a download event for the given lead
func (tf *TestFixtures) CreateTestDownloadEvent(leadID uint, pdfURL, eventType string) (*models.DownloadEvent, error) {
	event := &models.DownloadEvent{
		LeadID:    leadID,
		PdfURL:    pdfURL,
		SourceURL: "https://example.com/whitepapers",
		EventType: eventType,
	}

	if err := tf.DB.DB.Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to create test download event: %w", err)
	}

	return event, nil
}

// CreateTestAdmin creates an active admin account with the given credentials
func (tf *TestFixtures) CreateTestAdmin(username, password string) (*models.Admin, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		UUID:         uuid.New(),
		Username:     username,
		PasswordHash: string(hashedPassword),
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create test admin: %w", err)
	}

	return admin, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(leadID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		LeadID:      leadID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}

// CreateMultipleTestLeads creates n unique leads
func (tf *TestFixtures) CreateMultipleTestLeads(n int) ([]*models.Lead, error) {
	var leads []*models.Lead
	for i := 0; i < n; i++ {
		lead, err := tf.CreateTestLead()
		if err != nil {
			return nil, fmt.Errorf("failed to create lead %d: %w", i, err)
		}
		leads = append(leads, lead)
	}
	return leads, nil
}
