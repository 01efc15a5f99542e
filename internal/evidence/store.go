// Package evidence сохраняет исходные кадры, приложенные к оповещениям.
package evidence

import (
	"errors"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"roof-watch-go/internal/frame"
	"roof-watch-go/internal/timeutil"
)

const (
	alertPrefix    = "alert"
	snapshotPrefix = "snapshot"

	// timestampLayout точность до миллисекунд исключает совпадение имен в окне подавления
	timestampLayout = "20060102_150405.000"

	maxNameAttempts = 100
)

// Store пишет кадры в JPEG в выходной каталог
type Store struct {
	dir    string
	clock  timeutil.Clock
	logger *logrus.Logger

	closeFile func(*os.File) error
}

// NewStore создает каталог, если его нет
func NewStore(dir string, clock timeutil.Clock, logger *logrus.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Store{dir: dir, clock: clock, logger: logger, closeFile: (*os.File).Close}, nil
}

// Dir выходной каталог
func (s *Store) Dir() string {
	return s.dir
}

// SaveAlertFrame сохраняет исходный кадр критического оповещения как alert_<время>.jpg
func (s *Store) SaveAlertFrame(f *frame.Frame) (string, error) {
	return s.save(alertPrefix, f)
}

// SaveSnapshot сохраняет кадр по запросу оператора как snapshot_<время>.jpg
func (s *Store) SaveSnapshot(f *frame.Frame) (string, error) {
	return s.save(snapshotPrefix, f)
}

func (s *Store) save(prefix string, f *frame.Frame) (string, error) {
	if f == nil || f.Image == nil {
		return "", errors.New("no frame to save")
	}

	file, path, err := s.create(prefix, s.clock.Now())
	if err != nil {
		return "", err
	}

	if err := jpeg.Encode(file, f.Image, &jpeg.Options{Quality: frame.JPEGQuality}); err != nil {
		s.logger.Errorf("Ошибка записи кадра в файл %s: %v", path, err)
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write frame: %w", err)
	}

	// Ошибка закрытия означает, что кадр мог не дойти до диска
	if err := s.closeFile(file); err != nil {
		s.logger.Errorf("Ошибка закрытия файла кадра %s: %v", path, err)
		os.Remove(path)
		return "", fmt.Errorf("failed to close frame file: %w", err)
	}

	s.logger.Infof("Кадр %d сохранен: %s", f.Seq, path)
	return path, nil
}

// create атомарно создает файл с уникальным именем; при совпадении миллисекунд добавляется суффикс
func (s *Store) create(prefix string, now time.Time) (*os.File, string, error) {
	base := fmt.Sprintf("%s_%s", prefix, now.Format(timestampLayout))
	for i := 0; i < maxNameAttempts; i++ {
		name := base + ".jpg"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.jpg", base, i)
		}
		path := filepath.Join(s.dir, name)

		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return file, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("failed to create evidence file: %w", err)
		}
	}
	return nil, "", fmt.Errorf("failed to pick a unique name for %s", base)
}

// Remove удаляет сохраненный файл
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
