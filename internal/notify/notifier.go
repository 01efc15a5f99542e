// Package notify доставляет экстренные оповещения во внешние каналы.
package notify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"roof-watch-go/internal/alert"
)

// Notifier канал доставки оповещений. Send никогда не возвращает ошибку и не паникует:
// неудача сообщается результатом false и логируется.
type Notifier interface {
	Name() string
	Send(ctx context.Context, ev alert.Event) bool
}

// FormatSOS текст экстренного сообщения
func FormatSOS(ev alert.Event) string {
	return fmt.Sprintf("🚨 SOS ALERT 🚨\n\n%s\n\nDanger Score: %d/100", ev.Message, ev.Score)
}

// ConsoleNotifier пишет оповещение в лог. Используется, когда внешние каналы не настроены,
// поэтому доставка считается несостоявшейся.
type ConsoleNotifier struct {
	logger *logrus.Logger
}

// NewConsoleNotifier создает нотификатор-заглушку
func NewConsoleNotifier(logger *logrus.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{logger: logger}
}

// Name имя канала
func (n *ConsoleNotifier) Name() string { return "console" }

// Send логирует оповещение и возвращает false
func (n *ConsoleNotifier) Send(_ context.Context, ev alert.Event) bool {
	n.logger.Warnf("[SOS ALERT] %s | Score: %d | Frame: %s", ev.Message, ev.Score, ev.EvidencePath)
	return false
}

// Multi рассылает оповещение во все каналы; успех, если доставил хотя бы один
type Multi struct {
	notifiers []Notifier
	logger    *logrus.Logger
}

// NewMulti объединяет каналы
func NewMulti(logger *logrus.Logger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, logger: logger}
}

// Name имя канала
func (m *Multi) Name() string { return "multi" }

// Len число каналов
func (m *Multi) Len() int { return len(m.notifiers) }

// Send отправляет во все каналы по очереди
func (m *Multi) Send(ctx context.Context, ev alert.Event) bool {
	delivered := false
	for _, n := range m.notifiers {
		if m.safeSend(ctx, n, ev) {
			delivered = true
		}
	}
	return delivered
}

func (m *Multi) safeSend(ctx context.Context, n Notifier, ev alert.Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Errorf("Канал %s упал при отправке оповещения %s: %v", n.Name(), ev.ID, r)
			ok = false
		}
	}()

	ok = n.Send(ctx, ev)
	if !ok {
		m.logger.Warnf("Канал %s не доставил оповещение %s", n.Name(), ev.ID)
	}
	return ok
}
