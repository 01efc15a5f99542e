package models

import "time"

// DetectResponse ответ сервиса детекции людей
type DetectResponse struct {
	Status      string    `json:"status"`      // Статус выполнения (success/error)
	Message     string    `json:"message"`     // Сообщение об ошибке
	Boxes       [][]int   `json:"boxes"`       // Рамки людей [x1, y1, x2, y2]
	Confidences []float64 `json:"confidences"` // Уверенность по каждой рамке, тот же порядок
}

// HealthResponse представляет ответ проверки здоровья сервиса
type HealthResponse struct {
	Status      string `json:"status"`       // Статус сервиса (healthy/unhealthy)
	ModelLoaded bool   `json:"model_loaded"` // Загружена ли модель нейронной сети
	Version     string `json:"version"`      // Версия сервиса
}

// PersonState оценка одного человека в кадре
type PersonState struct {
	Box             [4]int  `json:"box"`
	Confidence      float64 `json:"confidence"`
	Score           int     `json:"score"`
	Level           string  `json:"level"`
	WaterOverlap    bool    `json:"water_overlap"`
	RoofEdgeContact bool    `json:"roof_edge_contact"`
	Submerged       bool    `json:"submerged"`
}

// FrameState состояние кадра для отображения: максимум по всем людям
type FrameState struct {
	StreamID  string        `json:"stream_id"`
	FrameSeq  uint64        `json:"frame_seq"`
	Timestamp time.Time     `json:"timestamp"`
	Persons   []PersonState `json:"persons"`
	MaxScore  int           `json:"max_score"`
	MaxLevel  string        `json:"max_level"`
	AlertSent bool          `json:"alert_sent"`
}
