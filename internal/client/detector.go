package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"roof-watch-go/internal/danger"
	"roof-watch-go/internal/frame"
	"roof-watch-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// ErrMalformedResponse внешний сервис нарушил контракт ответа
var ErrMalformedResponse = errors.New("malformed response from model service")

// DetectorClient клиент HTTP-сервиса детекции людей
type DetectorClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewDetectorClient создает новый клиент детектора
func NewDetectorClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *DetectorClient {
	return &DetectorClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Detect отправляет кадр в детектор и возвращает рамки людей.
// Пустой список - нормальный ответ для кадра без людей.
func (c *DetectorClient) Detect(ctx context.Context, f *frame.Frame) ([]danger.Detection, error) {
	payload, err := f.EncodeJPEG()
	if err != nil {
		return nil, err
	}

	// Создаем multipart form-data
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	frameWriter, err := writer.CreateFormFile("frame", fmt.Sprintf("frame_%06d.jpg", f.Seq))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания form field для кадра: %w", err)
	}
	if _, err := frameWriter.Write(payload); err != nil {
		return nil, fmt.Errorf("ошибка записи кадра: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ошибка закрытия multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/detect", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debugf("Отправка кадра %d на %s", f.Seq, url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("детектор вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(respBody))
	}

	var detectResp models.DetectResponse
	if err := json.Unmarshal(respBody, &detectResp); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	if detectResp.Status != "success" {
		return nil, fmt.Errorf("детектор вернул статус %q: %s", detectResp.Status, detectResp.Message)
	}

	return toDetections(detectResp)
}

// toDetections проверяет контракт ответа и собирает пары рамка-уверенность
func toDetections(resp models.DetectResponse) ([]danger.Detection, error) {
	if len(resp.Boxes) != len(resp.Confidences) {
		return nil, fmt.Errorf("%w: %d boxes but %d confidences", ErrMalformedResponse, len(resp.Boxes), len(resp.Confidences))
	}

	detections := make([]danger.Detection, 0, len(resp.Boxes))
	for i, box := range resp.Boxes {
		if len(box) != 4 {
			return nil, fmt.Errorf("%w: box %d has %d coordinates", ErrMalformedResponse, i, len(box))
		}
		conf := resp.Confidences[i]
		if conf < 0 || conf > 1 {
			return nil, fmt.Errorf("%w: confidence %d out of range: %f", ErrMalformedResponse, i, conf)
		}
		detections = append(detections, danger.Detection{
			Box:        danger.BBox{X1: box[0], Y1: box[1], X2: box[2], Y2: box[3]},
			Confidence: conf,
		})
	}
	return detections, nil
}

// CheckHealth проверяет состояние детектора
func (c *DetectorClient) CheckHealth(ctx context.Context) (*models.HealthResponse, error) {
	c.logger.Debug("Проверка здоровья детектора")

	url := fmt.Sprintf("%s/health", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("детектор вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(respBody))
	}

	var healthResponse models.HealthResponse
	if err := json.Unmarshal(respBody, &healthResponse); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	return &healthResponse, nil
}
