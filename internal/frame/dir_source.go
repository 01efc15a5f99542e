package frame

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DirSource отдает кадры из файлов каталога в лексикографическом порядке имен
type DirSource struct {
	dir    string
	files  []string
	logger *logrus.Logger

	mu     sync.Mutex
	next   int
	seq    uint64
	info   Info
	closed bool
}

// NewDirSource открывает каталог с кадрами (.jpg, .jpeg, .png)
func NewDirSource(dir string, logger *logrus.Logger) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	s := &DirSource{dir: dir, files: files, logger: logger}
	if len(files) > 0 {
		s.info = probe(files[0])
	}

	logger.Infof("Открыт каталог кадров %s: %d файлов", dir, len(files))
	return s, nil
}

// probe читает размеры первого кадра без полного декодирования
func probe(path string) Info {
	f, err := os.Open(path)
	if err != nil {
		return Info{}
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Info{}
	}
	return Info{Width: cfg.Width, Height: cfg.Height}
}

// Next декодирует следующий файл
func (s *DirSource) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.next >= len(s.files) {
		return nil, ErrSourceClosed
	}

	path := s.files[s.next]
	s.next++

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}

	s.seq++
	s.logger.Debugf("Прочитан кадр %d из %s", s.seq, path)

	return &Frame{
		Seq:       s.seq,
		Timestamp: time.Now(),
		Image:     img,
	}, nil
}

// Info размеры первого кадра; частота кадров каталога неизвестна
func (s *DirSource) Info() Info {
	return s.info
}

// Close освобождает источник
func (s *DirSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
