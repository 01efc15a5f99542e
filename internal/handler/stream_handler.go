package handler

import (
	"errors"
	"net/http"

	"roof-watch-go/internal/service"
	"roof-watch-go/pkg/models"

	"github.com/gin-gonic/gin"
)

// StatusResponse состояние всех потоков
type StatusResponse struct {
	Streams []service.StreamStatus `json:"streams"`
}

// GetStatus возвращает состояние потоков и последний обработанный кадр каждого
// @Summary Состояние потоков
// @Tags streams
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /status [get]
func (h *AlertHandler) GetStatus(c *gin.Context) {
	resp := StatusResponse{Streams: make([]service.StreamStatus, 0, len(h.order))}

	for _, id := range h.order {
		status := h.monitors[id].Status()
		if h.tracker != nil {
			if state, ok := h.tracker.Latest(id); ok {
				status.LastFrame = &state
			}
		}
		resp.Streams = append(resp.Streams, status)
	}

	c.JSON(http.StatusOK, resp)
}

// StreamStates передает состояние кадров по websocket
// @Summary Живой поток оценок опасности
// @Tags streams
// @Router /stream [get]
func (h *AlertHandler) StreamStates(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Живой поток отключен"})
		return
	}

	var initial []models.FrameState
	if h.tracker != nil {
		initial = h.tracker.All()
	}
	h.hub.ServeWS(c.Writer, c.Request, initial)
}

// TakeSnapshot сохраняет последний исходный кадр потока
// @Summary Снимок кадра
// @Tags streams
// @Produce json
// @Param id path string true "Идентификатор потока"
// @Success 200 {object} gin.H
// @Failure 404 {object} gin.H
// @Failure 409 {object} gin.H
// @Router /streams/{id}/snapshot [post]
func (h *AlertHandler) TakeSnapshot(c *gin.Context) {
	monitor, ok := h.monitor(c)
	if !ok {
		return
	}

	path, err := monitor.Snapshot()
	if err != nil {
		if errors.Is(err, service.ErrNoFrame) {
			c.JSON(http.StatusConflict, gin.H{"error": "Поток еще не получил кадров"})
			return
		}
		h.logger.Errorf("Ошибка сохранения снимка: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сохранения снимка"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path})
}

// StopStream останавливает обработку потока после текущего кадра
// @Summary Остановка потока
// @Tags streams
// @Produce json
// @Param id path string true "Идентификатор потока"
// @Success 200 {object} gin.H
// @Failure 404 {object} gin.H
// @Failure 409 {object} gin.H
// @Router /streams/{id}/stop [post]
func (h *AlertHandler) StopStream(c *gin.Context) {
	monitor, ok := h.monitor(c)
	if !ok {
		return
	}

	if !monitor.Stop() {
		c.JSON(http.StatusConflict, gin.H{"error": "Поток не запущен"})
		return
	}

	h.logger.Infof("Поток %s остановлен по запросу оператора", monitor.StreamID())
	c.JSON(http.StatusOK, gin.H{"message": "Поток останавливается"})
}

func (h *AlertHandler) monitor(c *gin.Context) (*service.MonitorService, bool) {
	id := c.Param("id")
	m, ok := h.monitors[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Поток не найден"})
		return nil, false
	}
	return m, true
}
