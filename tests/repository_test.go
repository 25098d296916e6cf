// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/devmy/leadgate/models"
	"github.com/devmy/leadgate/repository"
	testingutil "github.com/devmy/leadgate/testing"
	"github.com/devmy/leadgate/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewLeadRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("Save", func(t *testing.T) {
			lead, err := fixtures.CreateTestLead()
			require.NoError(t, err)
			assert.NotZero(t, lead.ID)
		})

		t.Run("ByID", func(t *testing.T) {
			original, err := fixtures.CreateTestLead()
			require.NoError(t, err)

			lead, err := repo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, lead)
			assert.Equal(t, original.ID, lead.ID)
			assert.Equal(t, original.Email, lead.Email)
		})

		t.Run("ByIDNotFound", func(t *testing.T) {
			lead, err := repo.ByID(ctx, 999999)
			assert.NoError(t, err)
			assert.Nil(t, lead)
		})

		t.Run("ByUUID", func(t *testing.T) {
			original, err := fixtures.CreateTestLead()
			require.NoError(t, err)

			lead, err := repo.ByUUID(ctx, original.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, lead)
			assert.Equal(t, original.ID, lead.ID)
		})

		t.Run("ByUUIDInvalid", func(t *testing.T) {
			_, err := repo.ByUUID(ctx, "not-a-uuid")
			assert.Error(t, err)
		})

		t.Run("ByEmail", func(t *testing.T) {
			original, err := fixtures.CreateTestLead()
			require.NoError(t, err)

			leads, err := repo.ByEmail(ctx, original.Email)
			require.NoError(t, err)
			require.Len(t, leads, 1)
			assert.Equal(t, original.ID, leads[0].ID)
		})

		t.Run("UpdateDownloadedPdfs", func(t *testing.T) {
			original, err := fixtures.CreateTestLead()
			require.NoError(t, err)

			pdfs := []string{
				"https://example.com/files/a.pdf",
				"https://example.com/files/b.pdf",
			}
			require.NoError(t, repo.UpdateDownloadedPdfs(ctx, original.ID, pdfs))

			lead, err := repo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, lead)
			assert.Equal(t, pdfs, lead.DownloadedPdfList())
		})

		t.Run("SwapDownloadedPdfs", func(t *testing.T) {
			original, err := fixtures.CreateTestLead()
			require.NoError(t, err)

			lead, err := repo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, lead)

			// Swap from the current snapshot succeeds
			swapped, err := repo.SwapDownloadedPdfs(ctx, original.ID, lead.DownloadedPdfs,
				[]string{"https://example.com/files/a.pdf"})
			require.NoError(t, err)
			assert.True(t, swapped)

			// A writer holding the stale snapshot loses the race
			swapped, err = repo.SwapDownloadedPdfs(ctx, original.ID, lead.DownloadedPdfs,
				[]string{"https://example.com/files/b.pdf"})
			require.NoError(t, err)
			assert.False(t, swapped)

			current, err := repo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, current)
			assert.Equal(t, []string{"https://example.com/files/a.pdf"}, current.DownloadedPdfList())
		})

		t.Run("CountAndExists", func(t *testing.T) {
			lead, err := fixtures.CreateTestLead()
			require.NoError(t, err)

			count, err := repo.Count(ctx, models.LeadFilter{Email: &lead.Email})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			exists, err := repo.Exists(ctx, models.LeadFilter{Email: &lead.Email})
			require.NoError(t, err)
			assert.True(t, exists)

			missing := "nobody@example.com"
			exists, err = repo.Exists(ctx, models.LeadFilter{Email: &missing})
			require.NoError(t, err)
			assert.False(t, exists)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestDownloadEventRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewDownloadEventRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		lead, err := fixtures.CreateTestLead()
		require.NoError(t, err)

		t.Run("ListByLeadKeepsInsertionOrder", func(t *testing.T) {
			_, err := fixtures.CreateTestDownloadEvent(lead.ID, "https://example.com/files/a.pdf", utils.EventTypeUnlock)
			require.NoError(t, err)
			_, err = fixtures.CreateTestDownloadEvent(lead.ID, "https://example.com/files/b.pdf", utils.EventTypeFollowup)
			require.NoError(t, err)
			// Duplicate downloads are kept, not collapsed
			_, err = fixtures.CreateTestDownloadEvent(lead.ID, "https://example.com/files/a.pdf", utils.EventTypeFollowup)
			require.NoError(t, err)

			events, err := repo.ListByLead(ctx, lead.ID)
			require.NoError(t, err)
			require.Len(t, events, 3)
			assert.Equal(t, "https://example.com/files/a.pdf", events[0].PdfURL)
			assert.Equal(t, utils.EventTypeUnlock, events[0].EventType)
			assert.Equal(t, "https://example.com/files/b.pdf", events[1].PdfURL)
			assert.Equal(t, "https://example.com/files/a.pdf", events[2].PdfURL)
		})

		t.Run("CountByLead", func(t *testing.T) {
			count, err := repo.CountByLead(ctx, lead.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)

			count, err = repo.CountByLead(ctx, 999999)
			require.NoError(t, err)
			assert.Zero(t, count)
		})

		t.Run("ByFilterEventType", func(t *testing.T) {
			followup := utils.EventTypeFollowup
			events, err := repo.ByFilter(ctx, models.DownloadEventFilter{LeadID: &lead.ID, EventType: &followup}, "id ASC", 0, 0)
			require.NoError(t, err)
			assert.Len(t, events, 2)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAdminRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewAdminRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		admin, err := fixtures.CreateTestAdmin("reporter", "SuperSecret123")
		require.NoError(t, err)

		t.Run("ByUsername", func(t *testing.T) {
			found, err := repo.ByUsername(ctx, "reporter")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, admin.ID, found.ID)
		})

		t.Run("ByUsernameNotFound", func(t *testing.T) {
			found, err := repo.ByUsername(ctx, "ghost")
			assert.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("ByUUID", func(t *testing.T) {
			found, err := repo.ByUUID(ctx, admin.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, admin.ID, found.ID)
		})

		t.Run("UpdateLastLogin", func(t *testing.T) {
			require.NoError(t, repo.UpdateLastLogin(ctx, admin.ID))

			found, err := repo.ByID(ctx, admin.ID)
			require.NoError(t, err)
			require.NotNil(t, found)
			require.NotNil(t, found.LastLoginAt)
			assert.WithinDuration(t, time.Now().UTC(), found.LastLoginAt.UTC(), time.Minute)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAuditLogRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewAuditLogRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		lead, err := fixtures.CreateTestLead()
		require.NoError(t, err)

		_, err = fixtures.CreateTestAuditLog(&lead.ID, models.AuditActionLeadSubmitted, true)
		require.NoError(t, err)
		_, err = fixtures.CreateTestAuditLog(&lead.ID, models.AuditActionDownloadTracked, true)
		require.NoError(t, err)
		_, err = fixtures.CreateTestAuditLog(nil, models.AuditActionAdminLoginFailed, false)
		require.NoError(t, err)

		t.Run("ListByLead", func(t *testing.T) {
			logs, err := repo.ListByLead(ctx, lead.ID, 0, 0)
			require.NoError(t, err)
			assert.Len(t, logs, 2)
		})

		t.Run("ListByAction", func(t *testing.T) {
			logs, err := repo.ListByAction(ctx, models.AuditActionLeadSubmitted, 0, 0)
			require.NoError(t, err)
			require.Len(t, logs, 1)
			assert.Equal(t, models.AuditActionLeadSubmitted, logs[0].Action)
		})

		t.Run("Pagination", func(t *testing.T) {
			logs, err := repo.ListByLead(ctx, lead.ID, 1, 0)
			require.NoError(t, err)
			assert.Len(t, logs, 1)

			logs, err = repo.ListByLead(ctx, lead.ID, 1, 1)
			require.NoError(t, err)
			assert.Len(t, logs, 1)

			// A zero limit means the whole list, never LIMIT 0
			logs, err = repo.ListByLead(ctx, lead.ID, 0, 0)
			require.NoError(t, err)
			assert.Len(t, logs, 2)
		})

		t.Run("ListFailedActions", func(t *testing.T) {
			logs, err := repo.ListFailedActions(ctx, 0, 0)
			require.NoError(t, err)
			require.Len(t, logs, 1)
			assert.True(t, logs[0].IsFailed())
			assert.Equal(t, models.AuditActionAdminLoginFailed, logs[0].Action)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestWithTransactionRollsBack(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		leadRepo := repository.NewLeadRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		txErr := repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
			lead := &models.Lead{
				UUID:    uuid.New(),
				Name:    "Rollback Rita",
				Email:   "rita@example.com",
				Company: "Rollback Inc",
			}
			if err := leadRepo.Save(txCtx, lead); err != nil {
				return err
			}
			return assert.AnError
		})
		require.Error(t, txErr)

		email := "rita@example.com"
		exists, err := leadRepo.Exists(ctx, models.LeadFilter{Email: &email})
		require.NoError(t, err)
		assert.False(t, exists)

		return nil
	})
	require.NoError(t, err)
}
