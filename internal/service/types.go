package service

import (
	"context"
	"time"

	"roof-watch-go/internal/alert"
	"roof-watch-go/internal/danger"
	"roof-watch-go/internal/frame"
	"roof-watch-go/internal/mask"
	"roof-watch-go/pkg/models"
)

// Detector находит людей в кадре
type Detector interface {
	Detect(ctx context.Context, f *frame.Frame) ([]danger.Detection, error)
}

// Segmenter строит маски воды, крыши и человека.
// Когда ничего не найдено, возвращается нулевая маска размера кадра.
type Segmenter interface {
	SegmentWater(ctx context.Context, f *frame.Frame) (*mask.Mask, error)
	SegmentRoof(ctx context.Context, f *frame.Frame) (*mask.Mask, error)
	ExtractPersonMask(ctx context.Context, f *frame.Frame, box danger.BBox) (*mask.Mask, error)
}

// EvidenceStore сохраняет исходные кадры на диск
type EvidenceStore interface {
	SaveAlertFrame(f *frame.Frame) (string, error)
	SaveSnapshot(f *frame.Frame) (string, error)
}

// EvidenceRemover удаляет сохраненные кадры
type EvidenceRemover interface {
	Remove(path string) error
}

// AlertRecorder записывает отправленные оповещения в историю
type AlertRecorder interface {
	RecordAlert(ev alert.Event, confidence float64, delivered bool) error
}

// StatePublisher получает состояние каждого обработанного кадра
type StatePublisher interface {
	Publish(state models.FrameState)
}

// DetectorHealth проверка сервиса детекции
type DetectorHealth interface {
	CheckHealth(ctx context.Context) (*models.HealthResponse, error)
}

// SegmenterHealth проверка сервиса сегментации
type SegmenterHealth interface {
	CheckHealth(ctx context.Context) error
}

// AlertResponse оповещение из истории для API
type AlertResponse struct {
	ID           string    `json:"id"`
	StreamID     string    `json:"stream_id"`
	FrameSeq     int64     `json:"frame_seq"`
	Message      string    `json:"message"`
	Score        int       `json:"score"`
	Level        string    `json:"level"`
	Confidence   float64   `json:"confidence"`
	Box          [4]int    `json:"box"`
	EvidencePath string    `json:"evidence_path,omitempty"`
	Delivered    bool      `json:"delivered"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListAlertsResponse ответ со списком оповещений
type ListAlertsResponse struct {
	Alerts []AlertResponse `json:"alerts"`
	Total  int64           `json:"total"`
	Page   int             `json:"page"`
	Size   int             `json:"size"`
}

// StreamStatus состояние одного потока
type StreamStatus struct {
	StreamID  string             `json:"stream_id"`
	Running   bool               `json:"running"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	FPS       float64            `json:"fps"`
	Cooldown  float64            `json:"cooldown_seconds"`
	LastAlert *time.Time         `json:"last_alert,omitempty"`
	LastFrame *models.FrameState `json:"last_frame,omitempty"`
}

// HealthReport результат проверки зависимостей
type HealthReport struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}
