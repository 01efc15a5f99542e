package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"roof-watch-go/internal/alert"
)

const mqttPublishTimeout = 5 * time.Second

// MQTTNotifier публикует событие в JSON в топик брокера (QoS 1)
type MQTTNotifier struct {
	client mqtt.Client
	topic  string
	logger *logrus.Logger
}

// NewMQTTNotifier подключается к брокеру с автопереподключением
func NewMQTTNotifier(broker, clientID, topic string, logger *logrus.Logger) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warnf("Потеряно соединение с MQTT брокером %s: %v", broker, err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}

	logger.Infof("Подключено к MQTT брокеру %s", broker)
	return NewMQTTNotifierWithClient(client, topic, logger), nil
}

// NewMQTTNotifierWithClient использует уже созданный клиент
func NewMQTTNotifierWithClient(client mqtt.Client, topic string, logger *logrus.Logger) *MQTTNotifier {
	return &MQTTNotifier{client: client, topic: topic, logger: logger}
}

// Name имя канала
func (n *MQTTNotifier) Name() string { return "mqtt" }

// Send публикует событие и ждет подтверждения брокера
func (n *MQTTNotifier) Send(_ context.Context, ev alert.Event) bool {
	payload, err := json.Marshal(ev)
	if err != nil {
		n.logger.Errorf("Не удалось сериализовать оповещение %s: %v", ev.ID, err)
		return false
	}

	token := n.client.Publish(n.topic, 1, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		n.logger.Errorf("Таймаут публикации оповещения %s в %s", ev.ID, n.topic)
		return false
	}
	if err := token.Error(); err != nil {
		n.logger.Errorf("Ошибка публикации оповещения %s в %s: %v", ev.ID, n.topic, err)
		return false
	}
	return true
}

// Close отключается от брокера
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}
