package mqtt

import (
	"crypto/tls"
	"errors"
	"log/slog"
	"sync"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

const RECONNECT_INTERVAL = 5 * time.Second

type Config struct {
	Server   string
	ClientID string
	Username string
	Password string
	Insecure bool // skip broker certificate verification
}

// Client keeps one MQTT session open, reconnecting when it drops.
// Every new session gets a new ID so callers know when to publish everything again.
type Client struct {
	lock   sync.RWMutex
	client MQTT.Client
	id     int
	closed chan struct{}
	once   sync.Once
}

var ErrNotConnected = errors.New("MQTT client not connected")

func New(config *Config) *Client {
	m := &Client{
		closed: make(chan struct{}),
	}

	connOpts := MQTT.NewClientOptions().
		AddBroker(config.Server).
		SetClientID(config.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(false)

	if config.Username != "" {
		connOpts.SetUsername(config.Username)
		if config.Password != "" {
			connOpts.SetPassword(config.Password)
		}
	}

	tlsConfig := &tls.Config{InsecureSkipVerify: config.Insecure, ClientAuth: tls.NoClientCert}
	connOpts.SetTLSConfig(tlsConfig)

	connOpts.OnConnectionLost = func(c MQTT.Client, err error) {
		slog.Warn("MQTT disconnected", "error", err)
	}

	connect := func() {
		slog.Info("Trying to connect to MQTT", "server", config.Server)
		newClient := MQTT.NewClient(connOpts)
		token := newClient.Connect()
		token.Wait()
		if err := token.Error(); err != nil {
			slog.Warn("Cannot connect to MQTT", "server", config.Server, "error", err)
			return
		}
		m.lock.Lock()
		m.client = newClient
		m.id++
		id := m.id
		m.lock.Unlock()
		slog.Info("Connected to MQTT", "session", id)
	}

	connect()
	go func() {
		ticker := time.NewTicker(RECONNECT_INTERVAL)
		defer ticker.Stop()
		for {
			select {
			case <-m.closed:
				m.lock.RLock()
				client := m.client
				m.lock.RUnlock()
				if client != nil {
					client.Disconnect(100)
				}
				return
			case <-ticker.C:
				m.lock.RLock()
				client := m.client
				m.lock.RUnlock()
				if client == nil || !client.IsConnectionOpen() {
					connect()
				}
			}
		}
	}()
	return m
}

// SessionID returns the number of the current session, 0 before the first connection
func (m *Client) SessionID() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.id
}

func (m *Client) current() MQTT.Client {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.client
}

func (m *Client) Publish(topic string, qos byte, retained bool, payload string) error {
	client := m.current()
	if client == nil {
		return ErrNotConnected
	}
	token := client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

func (m *Client) Subscribe(topic string, callback func(message string)) error {
	client := m.current()
	if client == nil {
		return ErrNotConnected
	}
	token := client.Subscribe(topic, 0, func(c MQTT.Client, m MQTT.Message) {
		callback(string(m.Payload()))
	})
	token.Wait()
	return token.Error()
}

func (m *Client) Close() error {
	m.once.Do(func() {
		close(m.closed)
	})
	return nil
}
