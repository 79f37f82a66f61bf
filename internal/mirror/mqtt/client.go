// internal/mirror/mqtt/client.go
package mqtt

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	Online  = "online"
	Offline = "offline"
)

type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string

	// Topic is the prefix; availability goes to <Topic>/availability.
	Topic string

	Timeout time.Duration
}

// Client is a paho connection with an availability topic.
type Client struct {
	client  mqtt.Client
	avail   string
	timeout time.Duration
}

// AvailabilityTopic is where online/offline is retained.
func AvailabilityTopic(prefix string) string {
	return prefix + "/availability"
}

// New connects to the broker. Paho keeps reconnecting after later drops.
func New(cfg Config) (*Client, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mirror mqtt: broker required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("mirror mqtt: topic required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "vmix-tally"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	avail := AvailabilityTopic(cfg.Topic)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(cfg.Timeout)
	opts.SetWill(avail, Offline, 0, true)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		c.Publish(avail, 0, true, Online)
	})

	c := mqtt.NewClient(opts)
	if token := c.Connect(); !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("mirror mqtt: connect to %s timed out", cfg.Broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mirror mqtt: connect: %w", err)
	}

	return &Client{client: c, avail: avail, timeout: cfg.Timeout}, nil
}

func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("mirror mqtt: publish to %s timed out", topic)
	}
	return token.Error()
}

// Close marks the device offline and disconnects.
func (c *Client) Close() error {
	token := c.client.Publish(c.avail, 0, true, Offline)
	token.WaitTimeout(c.timeout)
	c.client.Disconnect(250)
	return nil
}
