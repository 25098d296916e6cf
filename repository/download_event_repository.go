// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/devmy/leadgate/models"
	"gorm.io/gorm"
)

// DownloadEventRepositoryImpl implements DownloadEventRepository interface
type DownloadEventRepositoryImpl struct {
	*BaseRepository[models.DownloadEvent, models.DownloadEventFilter]
}

// NewDownloadEventRepository creates a new download event repository
func NewDownloadEventRepository(db *gorm.DB) DownloadEventRepository {
	return &DownloadEventRepositoryImpl{
		BaseRepository: NewBaseRepository[models.DownloadEvent, models.DownloadEventFilter](db),
	}
}

// ListByLead retrieves all events for a lead in insertion order.
// Insertion order matters: primary-PDF resolution picks the first unlock event.
func (r *DownloadEventRepositoryImpl) ListByLead(ctx context.Context, leadID uint) ([]*models.DownloadEvent, error) {
	filter := models.DownloadEventFilter{LeadID: &leadID}
	events, err := r.ByFilter(ctx, filter, "id ASC", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list download events by lead: %w", err)
	}

	return events, nil
}

// CountByLead returns the number of events recorded for a lead
func (r *DownloadEventRepositoryImpl) CountByLead(ctx context.Context, leadID uint) (int64, error) {
	filter := models.DownloadEventFilter{LeadID: &leadID}
	return r.Count(ctx, filter)
}

// ByFilter retrieves download events based on filter criteria
func (r *DownloadEventRepositoryImpl) ByFilter(ctx context.Context, filter models.DownloadEventFilter, orderBy string, limit, offset int) ([]*models.DownloadEvent, error) {
	db := r.getDB(ctx)

	query := r.applyFilter(db.Model(&models.DownloadEvent{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var events []*models.DownloadEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to find download events by filter: %w", err)
	}

	return events, nil
}

// Count returns the number of download events matching the filter
func (r *DownloadEventRepositoryImpl) Count(ctx context.Context, filter models.DownloadEventFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.DownloadEvent{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count download events: %w", err)
	}

	return count, nil
}

// Exists checks if any download event matching the filter exists
func (r *DownloadEventRepositoryImpl) Exists(ctx context.Context, filter models.DownloadEventFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *DownloadEventRepositoryImpl) applyFilter(query *gorm.DB, filter models.DownloadEventFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.LeadID != nil {
		query = query.Where("lead_id = ?", *filter.LeadID)
	}
	if filter.EventType != nil {
		query = query.Where("event_type = ?", *filter.EventType)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	return query
}
