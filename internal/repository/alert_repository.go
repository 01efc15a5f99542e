package repository

import (
	"errors"
	"fmt"

	"roof-watch-go/internal/model"

	"gorm.io/gorm"
)

// ErrNotFound запись не найдена
var ErrNotFound = errors.New("alert not found")

// AlertRepository интерфейс для работы с историей оповещений
type AlertRepository interface {
	Create(alert *model.Alert) error
	GetByEventID(eventID string) (*model.Alert, error)
	List(streamID string, page, pageSize int) ([]*model.Alert, int64, error)
	Delete(eventID string) error
}

// alertRepository реализация AlertRepository
type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository создает новый instance AlertRepository
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{
		db: db,
	}
}

// Create сохраняет оповещение
func (r *alertRepository) Create(alert *model.Alert) error {
	if err := r.db.Create(alert).Error; err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// GetByEventID получает оповещение по идентификатору события
func (r *alertRepository) GetByEventID(eventID string) (*model.Alert, error) {
	var alert model.Alert
	err := r.db.Where("event_id = ?", eventID).First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, eventID)
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return &alert, nil
}

// List получает оповещения с пагинацией, новые первыми. Пустой streamID - все потоки.
func (r *alertRepository) List(streamID string, page, pageSize int) ([]*model.Alert, int64, error) {
	var alerts []*model.Alert
	var total int64

	scoped := func() *gorm.DB {
		query := r.db.Model(&model.Alert{})
		if streamID != "" {
			query = query.Where("stream_id = ?", streamID)
		}
		return query
	}

	// Подсчитываем общее количество
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	offset := (page - 1) * pageSize
	err := scoped().
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}

	return alerts, total, nil
}

// Delete удаляет оповещение по идентификатору события
func (r *alertRepository) Delete(eventID string) error {
	result := r.db.Where("event_id = ?", eventID).Delete(&model.Alert{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete alert: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, eventID)
	}
	return nil
}
