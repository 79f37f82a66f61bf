// internal/mirror/mqtt_sink.go
package mirror

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tamzrod/vmix-tally/internal/status"
)

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Close() error
}

// MQTTSink publishes the JSON status view, retained, on <prefix>/status.
type MQTTSink struct {
	pub   publisher
	topic string
	qos   byte
}

func NewMQTTSink(pub publisher, prefix string, qos byte) (*MQTTSink, error) {
	if pub == nil {
		return nil, errors.New("mirror mqtt: publisher required")
	}
	if prefix == "" {
		return nil, errors.New("mirror mqtt: topic prefix required")
	}
	if qos > 2 {
		return nil, fmt.Errorf("mirror mqtt: qos %d out of range", qos)
	}
	return &MQTTSink{pub: pub, topic: prefix + "/status", qos: qos}, nil
}

func (m *MQTTSink) Name() string { return "mqtt" }

func (m *MQTTSink) Close() error { return m.pub.Close() }

func (m *MQTTSink) Publish(s status.ConnectionStatus) error {
	b, err := json.Marshal(status.ToView(s))
	if err != nil {
		return err
	}
	if err := m.pub.Publish(m.topic, m.qos, true, b); err != nil {
		return fmt.Errorf("mirror mqtt: %w", err)
	}
	return nil
}
