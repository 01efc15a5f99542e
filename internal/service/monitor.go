package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"roof-watch-go/internal/alert"
	"roof-watch-go/internal/danger"
	"roof-watch-go/internal/frame"
	"roof-watch-go/internal/notify"
	"roof-watch-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// ErrNoFrame поток еще не получил ни одного кадра
var ErrNoFrame = errors.New("no frame received yet")

// MonitorService обрабатывает кадры одного видеопотока: детекция, сегментация,
// оценка опасности и экстренное оповещение с подавлением повторов.
// Кадры обрабатываются строго последовательно.
type MonitorService struct {
	streamID  string
	message   string
	detector  Detector
	segmenter Segmenter
	notifier  notify.Notifier
	evidence  EvidenceStore
	debouncer *alert.Debouncer
	recorder  AlertRecorder
	publisher StatePublisher
	logger    *logrus.Logger

	mu      sync.Mutex
	latest  *frame.Frame
	info    frame.Info
	cancel  context.CancelFunc
	running bool
}

// NewMonitorService создает обработчик потока. У каждого потока свой debouncer.
func NewMonitorService(
	streamID, message string,
	detector Detector,
	segmenter Segmenter,
	notifier notify.Notifier,
	evidence EvidenceStore,
	debouncer *alert.Debouncer,
	logger *logrus.Logger,
) *MonitorService {
	if message == "" {
		message = alert.DefaultMessage
	}
	return &MonitorService{
		streamID:  streamID,
		message:   message,
		detector:  detector,
		segmenter: segmenter,
		notifier:  notifier,
		evidence:  evidence,
		debouncer: debouncer,
		logger:    logger,
	}
}

// SetRecorder подключает историю оповещений (nil отключает)
func (s *MonitorService) SetRecorder(r AlertRecorder) {
	s.recorder = r
}

// SetPublisher подключает получателя состояния кадров (nil отключает)
func (s *MonitorService) SetPublisher(p StatePublisher) {
	s.publisher = p
}

// StreamID идентификатор потока
func (s *MonitorService) StreamID() string {
	return s.streamID
}

// ProcessFrame обрабатывает один кадр и возвращает его состояние для отображения.
// Ошибка означает нарушение контракта детектора или сегментатора.
func (s *MonitorService) ProcessFrame(ctx context.Context, f *frame.Frame) (models.FrameState, error) {
	s.remember(f)

	state := models.FrameState{
		StreamID:  s.streamID,
		FrameSeq:  f.Seq,
		Timestamp: f.Timestamp,
		Persons:   []models.PersonState{},
		MaxScore:  danger.MinScore,
		MaxLevel:  danger.Classify(danger.MinScore).String(),
	}

	detections, err := s.detector.Detect(ctx, f)
	if err != nil {
		return state, fmt.Errorf("failed to detect persons: %w", err)
	}

	if len(detections) == 0 {
		s.publish(state)
		return state, nil
	}

	// Маски воды и крыши запрашиваются один раз на кадр
	water, err := s.segmenter.SegmentWater(ctx, f)
	if err != nil {
		return state, fmt.Errorf("failed to segment water: %w", err)
	}
	roof, err := s.segmenter.SegmentRoof(ctx, f)
	if err != nil {
		return state, fmt.Errorf("failed to segment roof: %w", err)
	}
	scene := danger.NewScene(water, roof)

	for i, d := range detections {
		person, err := s.segmenter.ExtractPersonMask(ctx, f, d.Box)
		if err != nil {
			return state, fmt.Errorf("failed to extract person mask %d: %w", i, err)
		}

		a := scene.Assess(person, d.Box)
		state.Persons = append(state.Persons, personState(d, a))

		if a.Score > state.MaxScore {
			state.MaxScore = a.Score
			state.MaxLevel = a.Level.String()
		}

		s.logger.WithFields(logrus.Fields{
			"stream":     s.streamID,
			"frame":      f.Seq,
			"person":     i,
			"score":      a.Score,
			"level":      a.Level,
			"confidence": d.Confidence,
		}).Debug("Оценка опасности")

		if a.Level.IsCritical() && s.dispatch(ctx, f, d, a) {
			state.AlertSent = true
		}
	}

	s.publish(state)
	return state, nil
}

// dispatch отправляет оповещение, если debouncer разрешает. Время отправки
// фиксируется независимо от результата нотификатора.
func (s *MonitorService) dispatch(ctx context.Context, f *frame.Frame, d danger.Detection, a danger.Assessment) bool {
	now := s.debouncer.Now()
	if !s.debouncer.TryAcquire(now) {
		s.logger.Debugf("Оповещение подавлено, до конца паузы %v", s.debouncer.Remaining(now))
		return false
	}

	path, err := s.evidence.SaveAlertFrame(f)
	if err != nil {
		s.logger.Errorf("Не удалось сохранить кадр оповещения: %v", err)
		path = ""
	}

	ev := alert.NewEvent(s.streamID, f.Seq, s.message, a, d.Box, path, now)
	delivered := s.notifier.Send(ctx, ev)
	s.debouncer.Record(now)

	entry := s.logger.WithFields(logrus.Fields{
		"stream":   s.streamID,
		"frame":    f.Seq,
		"event_id": ev.ID,
		"score":    ev.Score,
		"evidence": path,
	})
	if delivered {
		entry.Warn("Экстренное оповещение отправлено")
	} else {
		entry.Error("Экстренное оповещение не доставлено")
	}

	if s.recorder != nil {
		if err := s.recorder.RecordAlert(ev, d.Confidence, delivered); err != nil {
			s.logger.Errorf("Не удалось записать оповещение в историю: %v", err)
		}
	}

	return true
}

// Run читает кадры из источника до его исчерпания, отмены контекста или Stop.
// Источник закрывается в любом случае.
func (s *MonitorService) Run(ctx context.Context, src frame.Source) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	info := src.Info()
	s.mu.Lock()
	s.cancel = cancel
	s.running = true
	s.info = info
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.cancel = nil
		s.mu.Unlock()

		if err := src.Close(); err != nil {
			s.logger.Warnf("Ошибка закрытия источника %s: %v", s.streamID, err)
		}
	}()

	s.logger.Infof("Поток %s запущен: %dx%d, %.1f fps", s.streamID, info.Width, info.Height, info.FPS)

	for {
		// Остановка проверяется между кадрами
		if ctx.Err() != nil {
			s.logger.Infof("Поток %s остановлен", s.streamID)
			return nil
		}

		f, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, frame.ErrSourceClosed) {
				s.logger.Infof("Источник потока %s исчерпан", s.streamID)
				return nil
			}
			if ctx.Err() != nil {
				s.logger.Infof("Поток %s остановлен", s.streamID)
				return nil
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}

		if _, err := s.ProcessFrame(ctx, f); err != nil {
			if ctx.Err() != nil {
				s.logger.Infof("Поток %s остановлен во время обработки кадра %d", s.streamID, f.Seq)
				return nil
			}
			return fmt.Errorf("failed to process frame %d: %w", f.Seq, err)
		}
	}
}

// Stop запрашивает остановку цикла. Возвращает false, если поток не запущен.
func (s *MonitorService) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

// Running запущен ли цикл
func (s *MonitorService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Snapshot сохраняет последний полученный кадр
func (s *MonitorService) Snapshot() (string, error) {
	s.mu.Lock()
	f := s.latest
	s.mu.Unlock()

	if f == nil {
		return "", ErrNoFrame
	}

	path, err := s.evidence.SaveSnapshot(f)
	if err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Infof("Снимок потока %s сохранен: %s", s.streamID, path)
	return path, nil
}

// Status состояние потока без последнего кадра
func (s *MonitorService) Status() StreamStatus {
	s.mu.Lock()
	status := StreamStatus{
		StreamID: s.streamID,
		Running:  s.running,
		Width:    s.info.Width,
		Height:   s.info.Height,
		FPS:      s.info.FPS,
		Cooldown: s.debouncer.Cooldown().Seconds(),
	}
	s.mu.Unlock()

	if last, ok := s.debouncer.LastAlert(); ok {
		status.LastAlert = &last
	}
	return status
}

func (s *MonitorService) remember(f *frame.Frame) {
	s.mu.Lock()
	s.latest = f
	s.mu.Unlock()
}

func (s *MonitorService) publish(state models.FrameState) {
	if s.publisher != nil {
		s.publisher.Publish(state)
	}
}

func personState(d danger.Detection, a danger.Assessment) models.PersonState {
	return models.PersonState{
		Box:             [4]int{d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2},
		Confidence:      d.Confidence,
		Score:           a.Score,
		Level:           a.Level.String(),
		WaterOverlap:    a.WaterOverlap,
		RoofEdgeContact: a.RoofEdgeContact,
		Submerged:       a.Submerged,
	}
}
