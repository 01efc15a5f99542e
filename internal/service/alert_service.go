package service

import (
	"errors"
	"fmt"
	"os"

	"roof-watch-go/internal/alert"
	"roof-watch-go/internal/model"
	"roof-watch-go/internal/repository"

	"github.com/sirupsen/logrus"
)

// AlertService сервис истории экстренных оповещений
type AlertService struct {
	alertRepo repository.AlertRepository
	evidence  EvidenceRemover
	logger    *logrus.Logger
}

// NewAlertService создает новый сервис истории оповещений
func NewAlertService(alertRepo repository.AlertRepository, evidence EvidenceRemover, logger *logrus.Logger) *AlertService {
	return &AlertService{
		alertRepo: alertRepo,
		evidence:  evidence,
		logger:    logger,
	}
}

// RecordAlert сохраняет отправленное оповещение в базе данных
func (s *AlertService) RecordAlert(ev alert.Event, confidence float64, delivered bool) error {
	record := &model.Alert{
		EventID:      ev.ID,
		StreamID:     ev.StreamID,
		FrameSeq:     int64(ev.FrameSeq),
		Message:      ev.Message,
		Score:        ev.Score,
		Level:        ev.Level.String(),
		Confidence:   confidence,
		BoxX1:        ev.Box.X1,
		BoxY1:        ev.Box.Y1,
		BoxX2:        ev.Box.X2,
		BoxY2:        ev.Box.Y2,
		EvidencePath: ev.EvidencePath,
		Delivered:    delivered,
		CreatedAt:    ev.CreatedAt,
	}

	if err := s.alertRepo.Create(record); err != nil {
		return fmt.Errorf("failed to save alert %s: %w", ev.ID, err)
	}

	s.logger.Infof("Оповещение %s записано в историю", ev.ID)
	return nil
}

// GetAlert получает оповещение по идентификатору события
func (s *AlertService) GetAlert(eventID string) (*AlertResponse, error) {
	record, err := s.alertRepo.GetByEventID(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return modelToResponse(record), nil
}

// ListAlerts получает оповещения с пагинацией
func (s *AlertService) ListAlerts(streamID string, page, pageSize int) ([]AlertResponse, int64, error) {
	s.logger.Debugf("Получаем список оповещений: поток %q, страница %d, размер %d", streamID, page, pageSize)

	records, total, err := s.alertRepo.List(streamID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}

	responses := make([]AlertResponse, len(records))
	for i, record := range records {
		responses[i] = *modelToResponse(record)
	}
	return responses, total, nil
}

// DeleteAlert удаляет оповещение и его кадр
func (s *AlertService) DeleteAlert(eventID string) error {
	s.logger.Infof("Удаляем оповещение %s", eventID)

	// Сначала получаем запись, чтобы знать путь к кадру
	record, err := s.alertRepo.GetByEventID(eventID)
	if err != nil {
		return fmt.Errorf("failed to get alert for deletion: %w", err)
	}

	if err := s.alertRepo.Delete(eventID); err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}

	if record.EvidencePath != "" && s.evidence != nil {
		if err := s.evidence.Remove(record.EvidencePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warnf("Не удалось удалить кадр %s: %v", record.EvidencePath, err)
		}
	}

	return nil
}

// modelToResponse преобразует модель базы данных в ответ API
func modelToResponse(record *model.Alert) *AlertResponse {
	return &AlertResponse{
		ID:           record.EventID,
		StreamID:     record.StreamID,
		FrameSeq:     record.FrameSeq,
		Message:      record.Message,
		Score:        record.Score,
		Level:        record.Level,
		Confidence:   record.Confidence,
		Box:          [4]int{record.BoxX1, record.BoxY1, record.BoxX2, record.BoxY2},
		EvidencePath: record.EvidencePath,
		Delivered:    record.Delivered,
		CreatedAt:    record.CreatedAt,
	}
}
