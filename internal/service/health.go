package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthService проверяет внешние сервисы детекции и сегментации
type HealthService struct {
	detector  DetectorHealth
	segmenter SegmenterHealth
	database  func() error
	logger    *logrus.Logger
}

// NewHealthService создает сервис проверки. database может быть nil, если история выключена.
func NewHealthService(detector DetectorHealth, segmenter SegmenterHealth, database func() error, logger *logrus.Logger) *HealthService {
	return &HealthService{
		detector:  detector,
		segmenter: segmenter,
		database:  database,
		logger:    logger,
	}
}

// CheckHealth проверяет все зависимости; общий статус healthy только если здоровы все
func (s *HealthService) CheckHealth(ctx context.Context) HealthReport {
	report := HealthReport{Status: statusHealthy, Services: map[string]string{}}

	mark := func(name string, err error) {
		if err != nil {
			s.logger.Errorf("Сервис %s недоступен: %v", name, err)
			report.Services[name] = statusUnhealthy
			report.Status = statusUnhealthy
			return
		}
		report.Services[name] = statusHealthy
	}

	health, err := s.detector.CheckHealth(ctx)
	if err == nil && health.Status != statusHealthy {
		err = fmt.Errorf("reported status %s", health.Status)
	}
	mark("detector", err)
	mark("segmenter", s.segmenter.CheckHealth(ctx))

	if s.database != nil {
		mark("database", s.database())
	}

	return report
}
