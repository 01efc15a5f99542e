// Package live хранит последнее состояние каждого потока и рассылает его подписчикам.
package live

import (
	"sort"
	"sync"

	"roof-watch-go/pkg/models"
)

// Broadcaster получает каждое опубликованное состояние
type Broadcaster interface {
	Broadcast(state models.FrameState)
}

// Tracker последнее состояние кадра по каждому потоку
type Tracker struct {
	mu     sync.RWMutex
	states map[string]models.FrameState
	out    Broadcaster
}

// NewTracker создает трекер; out может быть nil
func NewTracker(out Broadcaster) *Tracker {
	return &Tracker{
		states: make(map[string]models.FrameState),
		out:    out,
	}
}

// Publish запоминает состояние и передает его дальше
func (t *Tracker) Publish(state models.FrameState) {
	t.mu.Lock()
	t.states[state.StreamID] = state
	t.mu.Unlock()

	if t.out != nil {
		t.out.Broadcast(state)
	}
}

// Latest последнее состояние потока
func (t *Tracker) Latest(streamID string) (models.FrameState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, ok := t.states[streamID]
	return state, ok
}

// All последние состояния всех потоков, упорядоченные по идентификатору
func (t *Tracker) All() []models.FrameState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	states := make([]models.FrameState, 0, len(t.states))
	for _, s := range t.states {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].StreamID < states[j].StreamID })
	return states
}
