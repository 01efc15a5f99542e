package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"roof-watch-go/internal/database"
)

// Config структура конфигурации приложения
type Config struct {
	Server struct {
		Port int
		Host string
	}
	Monitor struct {
		Sources          []string
		SnapshotInterval int // в миллисекундах
		OutputDir        string
		CooldownSeconds  int
		Message          string
	}
	Detector struct {
		BaseURL string
		Timeout int // в секундах
	}
	Segmenter struct {
		Addr    string
		Timeout int // в секундах
	}
	Telegram struct {
		BotToken string
		ChatID   string
		APIURL   string
	}
	MQTT struct {
		Broker   string
		Topic    string
		ClientID string
	}
	Redis struct {
		Addr   string
		Stream string
	}
	Database struct {
		Enabled bool
		database.Config
	}
	Logging struct {
		Level string
	}
	Environment string
}

// LoadConfig загружает конфигурацию из переменных окружения.
// Файл .env, если он есть, подгружается первым и не перекрывает уже заданные переменные.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	// Конфигурация сервера
	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")

	// Конфигурация потоков
	cfg.Monitor.Sources = splitList(getEnv("VIDEO_SOURCES", ""))
	cfg.Monitor.SnapshotInterval = getEnvInt("SNAPSHOT_INTERVAL_MS", 500)
	cfg.Monitor.OutputDir = getEnv("OUTPUT_DIR", "alerts")
	cfg.Monitor.CooldownSeconds = getEnvInt("ALERT_COOLDOWN_SECONDS", 30)
	cfg.Monitor.Message = getEnv("ALERT_MESSAGE", "")

	// Конфигурация внешних моделей
	cfg.Detector.BaseURL = getEnv("DETECTOR_API_BASE_URL", "http://localhost:8000")
	cfg.Detector.Timeout = getEnvInt("DETECTOR_API_TIMEOUT_SECONDS", 30)
	cfg.Segmenter.Addr = getEnv("SEGMENTER_GRPC_ADDR", "localhost:50051")
	cfg.Segmenter.Timeout = getEnvInt("SEGMENTER_TIMEOUT_SECONDS", 30)

	// Каналы оповещения; пустые значения отключают канал
	cfg.Telegram.BotToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.Telegram.ChatID = getEnv("TELEGRAM_CHAT_ID", "")
	cfg.Telegram.APIURL = getEnv("TELEGRAM_API_URL", "https://api.telegram.org")
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "roofwatch/alerts")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "roof-watch")
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Stream = getEnv("REDIS_STREAM", "roofwatch:alerts")

	// Конфигурация базы данных
	cfg.Database.Enabled = getEnvBool("DB_ENABLED", true)
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.Database = getEnv("DB_NAME", "roof_watch")
	cfg.Database.Username = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", "disable")

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Environment = getEnv("ENVIRONMENT", "production")

	return cfg
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if len(c.Monitor.Sources) == 0 {
		return errors.New("VIDEO_SOURCES is empty")
	}
	if c.Monitor.CooldownSeconds < 0 {
		return errors.New("ALERT_COOLDOWN_SECONDS must not be negative")
	}
	if c.Monitor.SnapshotInterval <= 0 {
		return errors.New("SNAPSHOT_INTERVAL_MS must be positive")
	}
	return nil
}

// Cooldown пауза между оповещениями одного потока
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Monitor.CooldownSeconds) * time.Second
}

// SnapshotInterval период опроса камеры снимками
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.Monitor.SnapshotInterval) * time.Millisecond
}

// IsDev запущено ли приложение в режиме разработки
func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool получает bool значение переменной окружения или возвращает значение по умолчанию
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// splitList разбивает список через запятую, пустые элементы отбрасываются
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
