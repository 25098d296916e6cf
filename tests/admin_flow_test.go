// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"bytes"
	"strings"
	"testing"
	"time"

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

func newTestAdminLeadFlow(testDB *testingutil.TestDB) businessflow.AdminLeadFlow {
	return businessflow.NewAdminLeadFlow(
		repository.NewLeadRepository(testDB.DB),
		repository.NewDownloadEventRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
	)
}

func TestAdminLeadFlowListLeads(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newTestAdminLeadFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		leads, err := fixtures.CreateMultipleTestLeads(3)
		require.NoError(t, err)
		_, err = fixtures.CreateTestDownloadEvent(leads[0].ID, "https://example.com/files/a.pdf", utils.EventTypeUnlock)
		require.NoError(t, err)

		t.Run("defaults", func(t *testing.T) {
			resp, err := flow.ListLeads(ctx, nil)
			require.NoError(t, err)
			assert.Equal(t, int64(3), resp.Total)
			assert.Equal(t, 1, resp.Page)
			assert.Equal(t, 25, resp.PageSize)
			assert.Len(t, resp.Items, 3)
		})

		t.Run("paging", func(t *testing.T) {
			resp, err := flow.ListLeads(ctx, &dto.AdminListLeadsRequest{Page: 2, PageSize: 2})
			require.NoError(t, err)
			assert.Equal(t, int64(3), resp.Total)
			assert.Len(t, resp.Items, 1)
		})

		t.Run("newest first", func(t *testing.T) {
			resp, err := flow.ListLeads(ctx, &dto.AdminListLeadsRequest{PageSize: 1})
			require.NoError(t, err)
			require.Len(t, resp.Items, 1)
			assert.Equal(t, leads[2].ID, resp.Items[0].ID)
		})

		t.Run("download info resolved", func(t *testing.T) {
			resp, err := flow.ListLeads(ctx, nil)
			require.NoError(t, err)
			for _, item := range resp.Items {
				if item.ID == leads[0].ID {
					assert.Equal(t, leads[0].RequestedPdf, item.PrimaryPdf)
					assert.Equal(t, int64(1), item.TotalDownloads)
				}
			}
		})

		t.Run("invalid paging", func(t *testing.T) {
			_, err := flow.ListLeads(ctx, &dto.AdminListLeadsRequest{Page: -1})
			assert.Error(t, err)

			_, err = flow.ListLeads(ctx, &dto.AdminListLeadsRequest{PageSize: 200})
			assert.Error(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAdminLeadFlowExports(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newTestAdminLeadFlow(testDB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		lead, err := fixtures.CreateTestLead()
		require.NoError(t, err)
		_, err = fixtures.CreateTestDownloadEvent(lead.ID, lead.RequestedPdf, utils.EventTypeUnlock)
		require.NoError(t, err)

		metadata := businessflow.NewClientMetadata("192.0.2.10", "Test User Agent")

		t.Run("csv", func(t *testing.T) {
			filename, data, err := flow.ExportLeadsCSV(ctx, metadata)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(filename, "leads_"))
			assert.True(t, strings.HasSuffix(filename, ".csv"))

			// UTF-8 BOM so Excel detects the encoding
			require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

			body := string(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
			lines := strings.Split(strings.TrimSpace(body), "\n")
			require.Len(t, lines, 2)
			assert.True(t, strings.HasPrefix(lines[0], "id,name,email,company"))
			assert.Contains(t, lines[1], lead.Email)
			assert.Contains(t, lines[1], lead.RequestedPdf)
		})

		t.Run("xlsx", func(t *testing.T) {
			filename, data, err := flow.ExportLeadsXLSX(ctx, metadata)
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(filename, ".xlsx"))
			// XLSX is a zip container
			require.True(t, bytes.HasPrefix(data, []byte("PK")))
		})

		t.Run("exports are audited", func(t *testing.T) {
			logs, err := auditRepo.ListByAction(ctx, models.AuditActionLeadsExported, 0, 0)
			require.NoError(t, err)
			assert.Len(t, logs, 2)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAdminAuthFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		adminRepo := repository.NewAdminRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		tokenService, err := services.NewTokenService(
			15*time.Minute,
			7*24*time.Hour,
			"test-issuer",
			"test-audience",
			false,
			"",
			"",
			"test-secret-key-for-jwt-signing-32-chars",
		)
		require.NoError(t, err)

		captchaSvc, err := services.NewCaptchaServiceRotate(2*time.Minute, 15, 300)
		require.NoError(t, err)

		flow := businessflow.NewAdminAuthFlow(adminRepo, auditRepo, tokenService, captchaSvc)
		metadata := businessflow.NewClientMetadata("192.0.2.10", "Test User Agent")

		_, err = fixtures.CreateTestAdmin("reporter", "SuperSecret123")
		require.NoError(t, err)

		t.Run("captcha init", func(t *testing.T) {
			resp, err := flow.InitCaptcha(ctx)
			require.NoError(t, err)
			assert.NotEmpty(t, resp.ChallengeID)
			assert.NotEmpty(t, resp.MasterImageBase64)
			assert.NotEmpty(t, resp.ThumbImageBase64)
		})

		t.Run("unknown challenge fails verification", func(t *testing.T) {
			_, err := flow.Verify(ctx, &dto.AdminCaptchaVerifyRequest{
				ChallengeID: "no-such-challenge",
				Username:    "reporter",
				Password:    "SuperSecret123",
				UserAngle:   90,
			}, metadata)
			assert.True(t, businessflow.IsInvalidCaptcha(err))
		})

		t.Run("failed logins are audited", func(t *testing.T) {
			logs, err := auditRepo.ListByAction(ctx, models.AuditActionAdminLoginFailed, 0, 0)
			require.NoError(t, err)
			assert.NotEmpty(t, logs)
		})

		return nil
	})
	require.NoError(t, err)
}
