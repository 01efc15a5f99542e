package frame

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// SnapshotSource опрашивает HTTP-эндпоинт снимков камеры с фиксированным интервалом
type SnapshotSource struct {
	url      string
	interval time.Duration
	client   *resty.Client
	logger   *logrus.Logger

	mu       sync.Mutex
	seq      uint64
	lastPoll time.Time
	info     Info
	closed   bool
}

// NewSnapshotSource создает источник снимков. interval <= 0 означает опрос без паузы.
func NewSnapshotSource(url string, interval time.Duration, logger *logrus.Logger) *SnapshotSource {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "image/jpeg, image/png")

	s := &SnapshotSource{
		url:      url,
		interval: interval,
		client:   client,
		logger:   logger,
	}
	if interval > 0 {
		s.info.FPS = float64(time.Second) / float64(interval)
	}
	return s
}

// Next ждет окончания интервала и забирает очередной снимок.
// Ошибка HTTP завершает последовательность. Мьютекс не удерживается
// во время ожидания и запроса, поэтому Info и Close не блокируются.
func (s *SnapshotSource) Next(ctx context.Context) (*Frame, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSourceClosed
	}
	var wait time.Duration
	if !s.lastPoll.IsZero() {
		wait = s.interval - time.Since(s.lastPoll)
	}
	s.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSourceClosed
	}
	polledAt := time.Now()
	s.lastPoll = polledAt
	s.mu.Unlock()

	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot from %s: %w", s.url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("snapshot endpoint %s returned status %d", s.url, resp.StatusCode())
	}

	img, _, err := image.Decode(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	s.mu.Lock()
	if s.info.Width == 0 {
		s.info.Width = img.Bounds().Dx()
		s.info.Height = img.Bounds().Dy()
		s.logger.Infof("Камера %s: %dx%d", s.url, s.info.Width, s.info.Height)
	}
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	return &Frame{
		Seq:       seq,
		Timestamp: polledAt,
		Image:     img,
	}, nil
}

// Info метаданные камеры (размер известен после первого снимка)
func (s *SnapshotSource) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Close закрывает источник
func (s *SnapshotSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
