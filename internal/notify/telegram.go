package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"roof-watch-go/internal/alert"
)

// DefaultTelegramAPI адрес Bot API
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramNotifier отправляет текст и кадр-доказательство в чат Telegram
type TelegramNotifier struct {
	client *resty.Client
	token  string
	chatID string
	logger *logrus.Logger
}

// NewTelegramNotifier создает клиента Bot API
func NewTelegramNotifier(apiURL, token, chatID string, logger *logrus.Logger) *TelegramNotifier {
	if apiURL == "" {
		apiURL = DefaultTelegramAPI
	}
	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(15 * time.Second)

	return &TelegramNotifier{
		client: client,
		token:  token,
		chatID: chatID,
		logger: logger,
	}
}

// Name имя канала
func (n *TelegramNotifier) Name() string { return "telegram" }

// Send отправляет сообщение, затем фото. Успех только если прошли оба запроса.
func (n *TelegramNotifier) Send(ctx context.Context, ev alert.Event) bool {
	if err := n.sendMessage(ctx, ev); err != nil {
		n.logger.Errorf("Не удалось отправить SOS: %v", err)
		return false
	}

	if ev.EvidencePath == "" {
		return true
	}

	if err := n.sendPhoto(ctx, ev); err != nil {
		n.logger.Errorf("Не удалось отправить фото SOS: %v", err)
		return false
	}
	return true
}

func (n *TelegramNotifier) sendMessage(ctx context.Context, ev alert.Event) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id":    n.chatID,
			"text":       FormatSOS(ev),
			"parse_mode": "HTML",
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", n.token))
	if err != nil {
		return fmt.Errorf("sendMessage request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sendMessage returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func (n *TelegramNotifier) sendPhoto(ctx context.Context, ev alert.Event) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetFile("photo", ev.EvidencePath).
		SetFormData(map[string]string{
			"chat_id": n.chatID,
			"caption": fmt.Sprintf("Danger Score: %d", ev.Score),
		}).
		Post(fmt.Sprintf("/bot%s/sendPhoto", n.token))
	if err != nil {
		return fmt.Errorf("sendPhoto request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sendPhoto returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
