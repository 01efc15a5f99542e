package alert

import (
	"time"

	"github.com/google/uuid"

	"roof-watch-go/internal/danger"
)

// DefaultMessage текст экстренного оповещения
const DefaultMessage = "CRITICAL: Person detected in flood on roof!"

// Event экстренное оповещение о человеке в критической опасности.
// Живет только до передачи нотификатору.
type Event struct {
	ID           string       `json:"id"`
	StreamID     string       `json:"stream_id"`
	FrameSeq     uint64       `json:"frame_seq"`
	Message      string       `json:"message"`
	Score        int          `json:"score"`
	Level        danger.Level `json:"level"`
	Box          danger.BBox  `json:"box"`
	EvidencePath string       `json:"evidence_path"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NewEvent собирает событие с новым идентификатором
func NewEvent(streamID string, seq uint64, message string, a danger.Assessment, box danger.BBox, evidencePath string, at time.Time) Event {
	if message == "" {
		message = DefaultMessage
	}
	return Event{
		ID:           uuid.New().String(),
		StreamID:     streamID,
		FrameSeq:     seq,
		Message:      message,
		Score:        a.Score,
		Level:        a.Level,
		Box:          box,
		EvidencePath: evidencePath,
		CreatedAt:    at,
	}
}
