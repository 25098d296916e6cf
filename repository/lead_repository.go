// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/devmy/leadgate/models"
	"github.com/devmy/leadgate/utils"
	"gorm.io/gorm"
)

// LeadRepositoryImpl implements LeadRepository interface
type LeadRepositoryImpl struct {
	*BaseRepository[models.Lead, models.LeadFilter]
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &LeadRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Lead, models.LeadFilter](db),
	}
}

// ByUUID retrieves a lead by UUID
func (r *LeadRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Lead, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.LeadFilter{UUID: &parsedUUID}
	leads, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(leads) == 0 {
		return nil, nil
	}

	return leads[0], nil
}

// ByEmail retrieves all leads submitted with the given email, newest first.
// The gate deliberately does not dedupe by email, so this can return many rows.
func (r *LeadRepositoryImpl) ByEmail(ctx context.Context, email string) ([]*models.Lead, error) {
	filter := models.LeadFilter{Email: &email}
	leads, err := r.ByFilter(ctx, filter, "created_at DESC", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find leads by email: %w", err)
	}

	return leads, nil
}

// UpdateDownloadedPdfs replaces the lead's deduplicated downloaded_pdfs list.
// The only mutation the core ever performs on a stored lead.
func (r *LeadRepositoryImpl) UpdateDownloadedPdfs(ctx context.Context, leadID uint, pdfs []string) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	raw, err := json.Marshal(pdfs)
	if err != nil {
		return fmt.Errorf("failed to encode downloaded pdfs: %w", err)
	}

	err = db.Model(&models.Lead{}).
		Where("id = ?", leadID).
		Update("downloaded_pdfs", json.RawMessage(raw)).Error
	if err != nil {
		return fmt.Errorf("failed to update downloaded pdfs: %w", err)
	}

	return nil
}

// SwapDownloadedPdfs replaces the downloaded_pdfs list only when the stored
// value still equals expected, so concurrent tracking beacons cannot overwrite
// each other's entries. Returns false when another writer got there first.
func (r *LeadRepositoryImpl) SwapDownloadedPdfs(ctx context.Context, leadID uint, expected json.RawMessage, pdfs []string) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	raw, err := json.Marshal(pdfs)
	if err != nil {
		return false, fmt.Errorf("failed to encode downloaded pdfs: %w", err)
	}

	// IS NOT DISTINCT FROM also matches the NULL a fresh lead row carries
	var expectedArg any
	if len(expected) > 0 {
		expectedArg = string(expected)
	}

	result := db.Model(&models.Lead{}).
		Where("id = ? AND downloaded_pdfs IS NOT DISTINCT FROM ?::jsonb", leadID, expectedArg).
		Update("downloaded_pdfs", json.RawMessage(raw))
	if result.Error != nil {
		err = fmt.Errorf("failed to swap downloaded pdfs: %w", result.Error)
		return false, err
	}

	return result.RowsAffected > 0, nil
}

// ByFilter retrieves leads based on filter criteria
func (r *LeadRepositoryImpl) ByFilter(ctx context.Context, filter models.LeadFilter, orderBy string, limit, offset int) ([]*models.Lead, error) {
	db := r.getDB(ctx)

	query := r.applyFilter(db.Model(&models.Lead{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var leads []*models.Lead
	if err := query.Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("failed to find leads by filter: %w", err)
	}

	return leads, nil
}

// Count returns the number of leads matching the filter
func (r *LeadRepositoryImpl) Count(ctx context.Context, filter models.LeadFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Lead{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}

	return count, nil
}

// Exists checks if any lead matching the filter exists
func (r *LeadRepositoryImpl) Exists(ctx context.Context, filter models.LeadFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *LeadRepositoryImpl) applyFilter(query *gorm.DB, filter models.LeadFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Company != nil {
		query = query.Where("company = ?", *filter.Company)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	return query
}
