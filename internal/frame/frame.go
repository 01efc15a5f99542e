// Package frame описывает кадры видеопотока и их источники.
package frame

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrSourceClosed источник исчерпан или закрыт; последовательность кадров не перезапускается
var ErrSourceClosed = errors.New("frame source closed")

// JPEGQuality качество кодирования кадров для внешних сервисов и доказательств
const JPEGQuality = 90

// Frame исходный (не размеченный) кадр
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Image     image.Image
}

// Width ширина кадра в пикселях
func (f *Frame) Width() int {
	return f.Image.Bounds().Dx()
}

// Height высота кадра в пикселях
func (f *Frame) Height() int {
	return f.Image.Bounds().Dy()
}

// EncodeJPEG кодирует кадр в JPEG
func (f *Frame) EncodeJPEG() ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, f.Image, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame %d: %w", f.Seq, err)
	}
	return buf.Bytes(), nil
}

// Info метаданные источника; 0, если значение неизвестно
type Info struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	FPS    float64 `json:"fps"`
}

// Source ленивая последовательность кадров. Next может блокироваться;
// после исчерпания возвращает ErrSourceClosed.
type Source interface {
	Next(ctx context.Context) (*Frame, error)
	Info() Info
	Close() error
}

// Open выбирает источник по идентификатору: http(s) URL - снимки камеры, иначе каталог с кадрами
func Open(uri string, interval time.Duration, logger *logrus.Logger) (Source, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return NewSnapshotSource(uri, interval, logger), nil
	}
	return NewDirSource(uri, logger)
}
