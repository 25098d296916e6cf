// Package businessflow contains the core business logic and use cases for the download gate
package businessflow

import (
	"testing"

	"github.com/devmy/leadgate/models"
	"github.com/devmy/leadgate/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventOf(eventType, pdfURL string) *models.DownloadEvent {
	return &models.DownloadEvent{EventType: eventType, PdfURL: pdfURL}
}

func TestResolvePrimaryPdf(t *testing.T) {
	t.Run("nil lead", func(t *testing.T) {
		assert.Equal(t, "", ResolvePrimaryPdf(nil, nil))
	})

	t.Run("requested pdf wins over everything", func(t *testing.T) {
		lead := &models.Lead{RequestedPdf: "https://example.com/files/requested.pdf"}
		require.NoError(t, lead.SetDownloadedPdfList([]string{"https://example.com/files/other.pdf"}))
		events := []*models.DownloadEvent{
			eventOf(utils.EventTypeUnlock, "https://example.com/files/unlock.pdf"),
		}
		assert.Equal(t, "https://example.com/files/requested.pdf", ResolvePrimaryPdf(lead, events))
	})

	t.Run("first unlock event beats earlier followup", func(t *testing.T) {
		lead := &models.Lead{}
		events := []*models.DownloadEvent{
			eventOf(utils.EventTypeFollowup, "https://example.com/a.pdf"),
			eventOf(utils.EventTypeUnlock, "https://example.com/b.pdf"),
		}
		assert.Equal(t, "https://example.com/b.pdf", ResolvePrimaryPdf(lead, events))
	})

	t.Run("no unlock event falls back to first event", func(t *testing.T) {
		lead := &models.Lead{}
		events := []*models.DownloadEvent{
			eventOf(utils.EventTypeFollowup, "https://example.com/a.pdf"),
			eventOf(utils.EventTypeFollowup, "https://example.com/b.pdf"),
		}
		assert.Equal(t, "https://example.com/a.pdf", ResolvePrimaryPdf(lead, events))
	})

	t.Run("no events falls back to dedup list", func(t *testing.T) {
		lead := &models.Lead{}
		require.NoError(t, lead.SetDownloadedPdfList([]string{
			"https://example.com/first.pdf",
			"https://example.com/second.pdf",
		}))
		assert.Equal(t, "https://example.com/first.pdf", ResolvePrimaryPdf(lead, nil))
	})

	t.Run("nothing recorded", func(t *testing.T) {
		assert.Equal(t, "", ResolvePrimaryPdf(&models.Lead{}, nil))
	})

	t.Run("unlock event with empty url is skipped", func(t *testing.T) {
		lead := &models.Lead{}
		events := []*models.DownloadEvent{
			eventOf(utils.EventTypeUnlock, ""),
			eventOf(utils.EventTypeFollowup, "https://example.com/a.pdf"),
		}
		assert.Equal(t, "https://example.com/a.pdf", ResolvePrimaryPdf(lead, events))
	})
}
