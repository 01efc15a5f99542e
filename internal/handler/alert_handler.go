package handler

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"roof-watch-go/internal/live"
	"roof-watch-go/internal/repository"
	"roof-watch-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AlertHandler обрабатывает HTTP запросы оператора: потоки, история оповещений, здоровье
type AlertHandler struct {
	monitors      map[string]*service.MonitorService
	order         []string
	alertService  *service.AlertService
	healthService *service.HealthService
	tracker       *live.Tracker
	hub           *live.Hub
	logger        *logrus.Logger
}

// NewAlertHandler создает новый экземпляр AlertHandler.
// alertService равен nil, когда история оповещений отключена.
func NewAlertHandler(
	monitors []*service.MonitorService,
	alertService *service.AlertService,
	healthService *service.HealthService,
	tracker *live.Tracker,
	hub *live.Hub,
	logger *logrus.Logger,
) *AlertHandler {
	h := &AlertHandler{
		monitors:      make(map[string]*service.MonitorService, len(monitors)),
		alertService:  alertService,
		healthService: healthService,
		tracker:       tracker,
		hub:           hub,
		logger:        logger,
	}
	for _, m := range monitors {
		h.monitors[m.StreamID()] = m
		h.order = append(h.order, m.StreamID())
	}
	return h
}

// RegisterRoutes регистрирует маршруты API
func (h *AlertHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/health", h.CheckHealth)
		api.GET("/status", h.GetStatus)
		api.GET("/stream", h.StreamStates)
		api.POST("/streams/:id/snapshot", h.TakeSnapshot)
		api.POST("/streams/:id/stop", h.StopStream)

		alerts := api.Group("/alerts", h.requireHistory)
		alerts.GET("", h.ListAlerts)
		alerts.GET("/:id", h.GetAlert)
		alerts.GET("/:id/evidence", h.GetAlertEvidence)
		alerts.DELETE("/:id", h.DeleteAlert)
	}
}

// requireHistory отвечает 503, если база данных отключена
func (h *AlertHandler) requireHistory(c *gin.Context) {
	if h.alertService == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "История оповещений отключена"})
		return
	}
	c.Next()
}

// ListAlerts возвращает список оповещений с пагинацией
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	// Получаем параметры пагинации
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 || size > 100 {
		size = 10
	}

	alerts, total, err := h.alertService.ListAlerts(c.Query("stream"), page, size)
	if err != nil {
		h.logger.Errorf("Ошибка получения списка оповещений: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения списка оповещений"})
		return
	}

	c.JSON(http.StatusOK, service.ListAlertsResponse{
		Alerts: alerts,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// GetAlert возвращает оповещение по ID события
func (h *AlertHandler) GetAlert(c *gin.Context) {
	eventID := c.Param("id")

	a, err := h.alertService.GetAlert(eventID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, a)
}

// GetAlertEvidence возвращает сохраненный кадр оповещения
func (h *AlertHandler) GetAlertEvidence(c *gin.Context) {
	eventID := c.Param("id")

	a, err := h.alertService.GetAlert(eventID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	if a.EvidencePath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Кадр для оповещения не сохранен"})
		return
	}
	if _, err := os.Stat(a.EvidencePath); err != nil {
		h.logger.Warnf("Кадр оповещения %s недоступен: %v", eventID, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Кадр оповещения не найден"})
		return
	}

	// Отправляем файл кадра
	c.File(a.EvidencePath)
}

// DeleteAlert удаляет оповещение и его кадр
func (h *AlertHandler) DeleteAlert(c *gin.Context) {
	eventID := c.Param("id")
	h.logger.Infof("Получен запрос на удаление оповещения %s", eventID)

	if err := h.alertService.DeleteAlert(eventID); err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Оповещение удалено"})
}

// CheckHealth проверяет состояние внешних сервисов
func (h *AlertHandler) CheckHealth(c *gin.Context) {
	report := h.healthService.CheckHealth(c.Request.Context())
	if report.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, report)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AlertHandler) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Оповещение не найдено"})
		return
	}
	h.logger.Errorf("Ошибка работы с историей оповещений: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка работы с историей оповещений"})
}
