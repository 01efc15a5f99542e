package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"roof-watch-go/internal/alert"
	"roof-watch-go/internal/client"
	"roof-watch-go/internal/config"
	"roof-watch-go/internal/database"
	"roof-watch-go/internal/evidence"
	"roof-watch-go/internal/frame"
	"roof-watch-go/internal/handler"
	"roof-watch-go/internal/live"
	"roof-watch-go/internal/notify"
	"roof-watch-go/internal/repository"
	"roof-watch-go/internal/service"
	"roof-watch-go/internal/timeutil"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Инициализируем логгер
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.LoadConfig()
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	logger.Info("Запуск Roof Watch")

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Неверная конфигурация: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Выходной каталог для кадров оповещений и снимков
	store, err := evidence.NewStore(cfg.Monitor.OutputDir, timeutil.RealClock{}, logger)
	if err != nil {
		logger.Fatalf("Ошибка создания выходного каталога: %v", err)
	}

	// История оповещений
	var (
		db           *gorm.DB
		alertService *service.AlertService
		dbHealth     func() error
	)
	if cfg.Database.Enabled {
		db, err = database.Connect(cfg.Database.Config, logger)
		if err != nil {
			logger.Fatalf("Ошибка подключения к базе данных: %v", err)
		}
		defer database.Close(db)

		if err := database.Migrate(db, logger); err != nil {
			logger.Fatalf("Ошибка выполнения миграций: %v", err)
		}
		alertService = service.NewAlertService(repository.NewAlertRepository(db), store, logger)
		dbHealth = func() error { return database.HealthCheck(db) }
	} else {
		logger.Warn("База данных отключена, история оповещений не сохраняется")
	}

	// Клиенты внешних моделей
	detector := client.NewDetectorClient(cfg.Detector.BaseURL, time.Duration(cfg.Detector.Timeout)*time.Second, logger)
	segmenter, err := client.NewSegmenterClient(cfg.Segmenter.Addr, time.Duration(cfg.Segmenter.Timeout)*time.Second, logger)
	if err != nil {
		logger.Fatalf("Ошибка создания клиента сегментации: %v", err)
	}
	defer segmenter.Close()

	notifier, closeNotifiers := buildNotifier(cfg, logger)
	defer closeNotifiers()

	hub := live.NewHub(logger)
	defer hub.Close()
	tracker := live.NewTracker(hub)

	// Один обработчик и один debouncer на поток
	monitors := make([]*service.MonitorService, 0, len(cfg.Monitor.Sources))
	for i := range cfg.Monitor.Sources {
		m := service.NewMonitorService(
			streamID(i), cfg.Monitor.Message,
			detector, segmenter, notifier, store,
			alert.NewDebouncer(timeutil.RealClock{}, cfg.Cooldown()),
			logger,
		)
		if alertService != nil {
			m.SetRecorder(alertService)
		}
		m.SetPublisher(tracker)
		monitors = append(monitors, m)
	}

	var wg sync.WaitGroup
	for i, m := range monitors {
		wg.Add(1)
		go func(m *service.MonitorService, uri string) {
			defer wg.Done()
			runStream(ctx, m, uri, cfg.SnapshotInterval(), logger)
		}(m, cfg.Monitor.Sources[i])
	}

	healthService := service.NewHealthService(detector, segmenter, dbHealth, logger)
	alertHandler := handler.NewAlertHandler(monitors, alertService, healthService, tracker, hub, logger)

	// Настраиваем Gin router
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	alertHandler.RegisterRoutes(router)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Roof Watch API Server",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: serverAddr, Handler: router}

	go func() {
		logger.Infof("API доступно по адресу: http://%s/api/v1", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Получен сигнал остановки, завершаем потоки")

	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Ошибка остановки сервера: %v", err)
	}

	logger.Info("Roof Watch остановлен")
}

// runStream открывает источник и обрабатывает его до конца; ошибка останавливает только этот поток
func runStream(ctx context.Context, m *service.MonitorService, uri string, interval time.Duration, logger *logrus.Logger) {
	src, err := frame.Open(uri, interval, logger)
	if err != nil {
		logger.Errorf("Не удалось открыть источник %s для потока %s: %v", uri, m.StreamID(), err)
		return
	}

	if err := m.Run(ctx, src); err != nil {
		logger.Errorf("Поток %s остановлен с ошибкой: %v", m.StreamID(), err)
	}
}

// buildNotifier собирает настроенные каналы оповещения; без них используется вывод в лог
func buildNotifier(cfg *config.Config, logger *logrus.Logger) (notify.Notifier, func()) {
	var (
		notifiers []notify.Notifier
		closers   []func()
	)

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		notifiers = append(notifiers, notify.NewTelegramNotifier(cfg.Telegram.APIURL, cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger))
	}

	if cfg.MQTT.Broker != "" {
		n, err := notify.NewMQTTNotifier(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic, logger)
		if err != nil {
			logger.Errorf("MQTT оповещения отключены: %v", err)
		} else {
			notifiers = append(notifiers, n)
			closers = append(closers, n.Close)
		}
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		notifiers = append(notifiers, notify.NewRedisStreamNotifier(rdb, cfg.Redis.Stream, logger))
		closers = append(closers, func() { rdb.Close() })
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if len(notifiers) == 0 {
		logger.Warn("Каналы оповещения не настроены, оповещения только в лог")
		return notify.NewConsoleNotifier(logger), closeAll
	}
	return notify.NewMulti(logger, notifiers...), closeAll
}

func streamID(i int) string {
	return fmt.Sprintf("cam%d", i+1)
}

// corsMiddleware добавляет заголовки CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
