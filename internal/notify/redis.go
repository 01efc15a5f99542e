package notify

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"roof-watch-go/internal/alert"
)

// RedisStreamNotifier добавляет оповещения в Redis Stream для диспетчерских систем
type RedisStreamNotifier struct {
	client *redis.Client
	stream string
	logger *logrus.Logger
}

// NewRedisStreamNotifier создает нотификатор поверх клиента Redis
func NewRedisStreamNotifier(client *redis.Client, stream string, logger *logrus.Logger) *RedisStreamNotifier {
	return &RedisStreamNotifier{client: client, stream: stream, logger: logger}
}

// Name имя канала
func (n *RedisStreamNotifier) Name() string { return "redis" }

// Send выполняет XADD с полями события
func (n *RedisStreamNotifier) Send(ctx context.Context, ev alert.Event) bool {
	err := n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]interface{}{
			"id":            ev.ID,
			"stream_id":     ev.StreamID,
			"frame_seq":     ev.FrameSeq,
			"message":       ev.Message,
			"score":         ev.Score,
			"level":         string(ev.Level),
			"evidence_path": ev.EvidencePath,
			"created_at":    ev.CreatedAt.Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		n.logger.Errorf("XADD %s для оповещения %s не удался: %v", n.stream, ev.ID, err)
		return false
	}
	return true
}
