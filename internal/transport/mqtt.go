// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type mqttBus struct {
	client mqtt.Client
	logger *slog.Logger
}

// ConnectMQTT connects to an MQTT broker, e.g. tcp://localhost:1883.
// Beacons are published with QoS 0 and not retained.
func ConnectMQTT(broker, clientID string, logger *slog.Logger) (Bus, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("MQTT connection lost", "error", err)
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	logger.Info("connected to MQTT broker", "broker", broker, "client_id", clientID)

	return &mqttBus{client: client, logger: logger}, nil
}

func (b *mqttBus) Publish(topic string, payload []byte) error {
	token := b.client.Publish(topic, 0, false, payload)
	token.Wait()
	return token.Error()
}

func (b *mqttBus) Subscribe(topic string, h Handler) error {
	token := b.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("MQTT subscribe %s: %w", topic, token.Error())
	}
	b.logger.Info("subscribed", "topic", topic)
	return nil
}

func (b *mqttBus) Close() {
	b.client.Disconnect(250)
}
