package views

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gridDashboard/internal/database"
	"gridDashboard/internal/logging"
	"gridDashboard/internal/models"
)

// SQLStore implements Store on the views table
type SQLStore struct {
	db     *gorm.DB
	logger *logging.Logger
	now    func() time.Time
	newID  func() string
}

// NewSQLStore creates a gorm-backed view store
func NewSQLStore(db *gorm.DB, logger *logging.Logger) *SQLStore {
	return &SQLStore{
		db:     db,
		logger: logging.OrDiscard(logger).Named("views"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

func (s *SQLStore) List(ctx context.Context, gridKey string) ([]models.ViewRecord, error) {
	if !models.IsKnownGrid(gridKey) {
		return nil, newError("list", KindInvalid, "unknown grid key "+gridKey, nil)
	}

	views := []models.ViewRecord{}
	err := s.db.WithContext(ctx).
		Where("grid_key = ?", gridKey).
		Order("created_at ASC").
		Order("rowid ASC").
		Find(&views).Error
	if err != nil {
		return nil, fromDatabase("list", "failed to list views", err)
	}
	return views, nil
}

func (s *SQLStore) Create(ctx context.Context, view models.NewView) (models.ViewRecord, error) {
	view, err := PrepareNew(view)
	if err != nil {
		return models.ViewRecord{}, err
	}

	record := models.ViewRecord{
		ID:          s.newID(),
		Name:        view.Name,
		GridKey:     view.GridKey,
		ColumnState: view.ColumnState,
		SortModel:   view.SortModel,
		FilterModel: view.FilterModel,
		CreatedAt:   s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return models.ViewRecord{}, fromDatabase("create", "failed to create view", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"view_id":  record.ID,
		"grid_key": record.GridKey,
	}).Info("View created")
	return record, nil
}

func (s *SQLStore) Update(ctx context.Context, id string, patch models.ViewPatch) error {
	patch, err := PreparePatch(patch)
	if err != nil {
		return err
	}

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var record models.ViewRecord
		if err := tx.Where("id = ?", id).First(&record).Error; err != nil {
			return database.Classify("load view", err)
		}
		if patch.IsEmpty() {
			return nil
		}

		patch.Apply(&record)
		if err := tx.Save(&record).Error; err != nil {
			return database.Classify("save view", err)
		}
		return nil
	})
	if err != nil {
		return fromDatabase("update", "failed to update view", err)
	}

	s.logger.WithField("view_id", id).Info("View updated")
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ViewRecord{})
	if result.Error != nil {
		return fromDatabase("delete", "failed to delete view", result.Error)
	}
	if result.RowsAffected == 0 {
		return newError("delete", KindNotFound, "view not found", nil)
	}

	s.logger.WithField("view_id", id).Info("View deleted")
	return nil
}
