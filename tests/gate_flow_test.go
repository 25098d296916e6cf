// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"

	"github.com/devmy/leadgate/app/dto"
	"github.com/devmy/leadgate/app/services"
	businessflow "github.com/devmy/leadgate/business_flow"
	"github.com/devmy/leadgate/models"
	"github.com/devmy/leadgate/repository"
	testingutil "github.com/devmy/leadgate/testing"
	"github.com/devmy/leadgate/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSiteBaseURL = "https://example.com"

func newTestGateFlow(t *testing.T, testDB *testingutil.TestDB, requireConsent bool) (businessflow.GateFlow, services.GateTokenService) {
	t.Helper()

	gateTokens, err := services.NewGateTokenService("gate-secret-for-lead-tokens-32-chars-x")
	require.NoError(t, err)

	flow := businessflow.NewGateFlow(
		repository.NewLeadRepository(testDB.DB),
		repository.NewDownloadEventRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		gateTokens,
		testDB.DB,
		testSiteBaseURL,
		requireConsent,
	)
	return flow, gateTokens
}

func submitRequest() *dto.SubmitLeadRequest {
	return &dto.SubmitLeadRequest{
		Name:               "Jane Doe",
		Email:              "jane@example.com",
		Company:            "Example GmbH",
		DataStorageConsent: utils.ToPtr(true),
		SourceURL:          "https://example.com/whitepapers",
		RequestedPdf:       "/files/report.pdf",
		Nonce:              "test-nonce",
	}
}

func testMetadata() *businessflow.ClientMetadata {
	return businessflow.NewClientMetadata("192.0.2.10", "Test User Agent")
}

func TestGateFlowSubmitLead(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, gateTokens := newTestGateFlow(t, testDB, false)
		leadRepo := repository.NewLeadRepository(testDB.DB)
		eventRepo := repository.NewDownloadEventRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		resp, token, err := flow.SubmitLead(ctx, submitRequest(), testMetadata())
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, "Thank you! Your download will start shortly.", resp.Message)
		assert.Equal(t, resp.LeadToken, token)

		// Token resolves back to the stored lead
		leadID, err := gateTokens.Verify(token)
		require.NoError(t, err)

		lead, err := leadRepo.ByID(ctx, leadID)
		require.NoError(t, err)
		require.NotNil(t, lead)
		assert.Equal(t, "jane@example.com", lead.Email)
		assert.Equal(t, "https://example.com/files/report.pdf", lead.RequestedPdf)
		require.NotNil(t, lead.IPAddress)
		assert.Equal(t, "192.0.2.10", *lead.IPAddress)

		// Submission writes the unlock event and seeds the dedup list
		events, err := eventRepo.ListByLead(ctx, leadID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, utils.EventTypeUnlock, events[0].EventType)
		assert.Equal(t, "https://example.com/files/report.pdf", events[0].PdfURL)

		assert.Equal(t, []string{"https://example.com/files/report.pdf"}, lead.DownloadedPdfList())

		return nil
	})
	require.NoError(t, err)
}

func TestGateFlowSubmitLeadValidation(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, _ := newTestGateFlow(t, testDB, true)
		leadRepo := repository.NewLeadRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		t.Run("malformed email", func(t *testing.T) {
			req := submitRequest()
			req.Email = "not-an-email"

			resp, token, err := flow.SubmitLead(ctx, req, testMetadata())
			assert.Nil(t, resp)
			assert.Empty(t, token)

			ve, ok := businessflow.AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, "Please enter a valid email address.", ve.Fields.Headline())
			assert.Len(t, ve.Fields, 1)
		})

		t.Run("missing consent when required", func(t *testing.T) {
			req := submitRequest()
			req.DataStorageConsent = nil

			_, _, err := flow.SubmitLead(ctx, req, testMetadata())
			ve, ok := businessflow.AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, "Please agree to the storage of your data.", ve.Fields.Headline())
		})

		// Failed validation never stores anything
		count, err := leadRepo.Count(ctx, models.LeadFilter{})
		require.NoError(t, err)
		assert.Zero(t, count)

		return nil
	})
	require.NoError(t, err)
}

func TestGateFlowTrackDownload(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, gateTokens := newTestGateFlow(t, testDB, false)
		leadRepo := repository.NewLeadRepository(testDB.DB)
		eventRepo := repository.NewDownloadEventRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		_, token, err := flow.SubmitLead(ctx, submitRequest(), testMetadata())
		require.NoError(t, err)
		leadID, err := gateTokens.Verify(token)
		require.NoError(t, err)

		t.Run("new document grows event log and dedup list", func(t *testing.T) {
			resp, err := flow.TrackDownload(ctx, &dto.TrackDownloadRequest{
				LeadToken:    token,
				RequestedPdf: "/files/second.pdf",
				SourceURL:    "https://example.com/whitepapers",
				Nonce:        "test-nonce",
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "Download recorded.", resp.Message)

			events, err := eventRepo.ListByLead(ctx, leadID)
			require.NoError(t, err)
			assert.Len(t, events, 2)
			assert.Equal(t, utils.EventTypeFollowup, events[1].EventType)

			lead, err := leadRepo.ByID(ctx, leadID)
			require.NoError(t, err)
			assert.Len(t, lead.DownloadedPdfList(), 2)
		})

		t.Run("repeat download appends event but not dedup entry", func(t *testing.T) {
			// Same file via different host casing and query
			_, err := flow.TrackDownload(ctx, &dto.TrackDownloadRequest{
				LeadToken:    token,
				RequestedPdf: "https://cdn.example.com/Files/Second.PDF?cache=1",
				Nonce:        "test-nonce",
			}, testMetadata())
			require.NoError(t, err)

			events, err := eventRepo.ListByLead(ctx, leadID)
			require.NoError(t, err)
			assert.Len(t, events, 3)

			lead, err := leadRepo.ByID(ctx, leadID)
			require.NoError(t, err)
			assert.Len(t, lead.DownloadedPdfList(), 2)
		})

		t.Run("invalid token", func(t *testing.T) {
			_, err := flow.TrackDownload(ctx, &dto.TrackDownloadRequest{
				LeadToken:    "garbage",
				RequestedPdf: "/files/a.pdf",
				Nonce:        "test-nonce",
			}, testMetadata())
			assert.True(t, businessflow.IsLeadTokenInvalid(err))
		})

		t.Run("token for deleted lead", func(t *testing.T) {
			orphan, err := gateTokens.Issue(999999)
			require.NoError(t, err)

			_, err = flow.TrackDownload(ctx, &dto.TrackDownloadRequest{
				LeadToken:    orphan,
				RequestedPdf: "/files/a.pdf",
				Nonce:        "test-nonce",
			}, testMetadata())
			assert.True(t, businessflow.IsLeadNotFound(err))
		})

		t.Run("empty document url", func(t *testing.T) {
			_, err := flow.TrackDownload(ctx, &dto.TrackDownloadRequest{
				LeadToken:    token,
				RequestedPdf: "   ",
				Nonce:        "test-nonce",
			}, testMetadata())
			assert.True(t, businessflow.IsEmptyPdfURL(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestGateFlowStatus(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, _ := newTestGateFlow(t, testDB, false)

		locked := flow.Status(businessflow.UnlockState{})
		assert.False(t, locked.Unlocked)

		unlocked := flow.Status(businessflow.UnlockState{
			Flag: businessflow.ReplicatedFlag{Stored: utils.UnlockedSentinel},
		})
		assert.True(t, unlocked.Unlocked)

		return nil
	})
	require.NoError(t, err)
}
