package mqtt

import (
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"topicmux/internal/infrastructure/config"
	"topicmux/internal/routing"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20

// Client wraps paho.mqtt.golang and implements routing.Transport.
//
// It provides connection management, message publishing, subscription
// handling with automatic restoration after reconnect, and translation of
// paho connection callbacks into routing lifecycle events.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig

	// subscriptions tracks active filters (and their QoS) for
	// re-subscription on reconnect.
	subscriptions map[string]byte
	subMu         sync.RWMutex

	// connected tracks current connection state.
	connected bool
	connMu    sync.RWMutex

	// Handlers installed by the coordinator via SetMessageHandler /
	// SetLifecycleHandler.
	onMessage   func(routing.Message)
	onLifecycle func(routing.LifecycleEvent, error)
	handlerMu   sync.RWMutex

	// logger for error/panic logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// compile-time interface check
var _ routing.Transport = (*Client)(nil)

// New creates an MQTT transport from config. No network activity happens
// until Connect is called.
func New(cfg config.MQTTConfig) *Client {
	opts := buildClientOptions(cfg)

	c := &Client{
		cfg:           cfg,
		options:       opts,
		subscriptions: make(map[string]byte),
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})
	opts.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		c.emitLifecycle(routing.EventReconnect, nil)
	})

	c.client = pahomqtt.NewClient(opts)
	return c
}

// Connect establishes the broker connection. It implements
// routing.Transport.
//
// Returns an error wrapping ErrConnectionFailed if the connection cannot be
// established within the connect timeout.
func (c *Client) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// Set connected state immediately after successful connection. The
	// OnConnectHandler callback runs asynchronously and may not have
	// executed yet.
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	return nil
}

// Disconnect tears down the broker connection and emits a close lifecycle
// event. A graceful disconnect waits the quiesce period for pending
// operations; force skips the wait.
func (c *Client) Disconnect(force bool) error {
	if c.client == nil {
		return nil
	}

	quiesce := uint(defaultDisconnectQuiesce)
	if force {
		quiesce = 0
	}
	c.client.Disconnect(quiesce)

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	c.subMu.Lock()
	c.subscriptions = make(map[string]byte)
	c.subMu.Unlock()

	c.emitLifecycle(routing.EventClose, nil)
	return nil
}

// Subscribe registers a wildcard filter with the broker. Received messages
// are delivered through the handler installed with SetMessageHandler.
//
// Subscriptions are tracked and automatically restored if the connection is
// lost and reconnected.
func (c *Client) Subscribe(filter string, qos byte) error {
	if filter == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subMu.Lock()
	c.subscriptions[filter] = qos
	c.subMu.Unlock()

	token := c.client.Subscribe(filter, qos, c.pahoHandler())
	if !token.WaitTimeout(defaultRequestTimeout) {
		c.dropSubscription(filter)
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultRequestTimeout)
	}
	if err := token.Error(); err != nil {
		c.dropSubscription(filter)
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	return nil
}

// Unsubscribe removes a filter subscription. Messages already in flight may
// still be delivered.
func (c *Client) Unsubscribe(filter string) error {
	if filter == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.dropSubscription(filter)

	token := c.client.Unsubscribe(filter)
	if !token.WaitTimeout(defaultRequestTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrUnsubscribeFailed, defaultRequestTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsubscribeFailed, err)
	}

	return nil
}

// Publish sends a payload to a concrete topic.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultRequestTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultRequestTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// SetMessageHandler installs the inbound message callback. It implements
// routing.Transport; the coordinator installs its dispatcher here.
func (c *Client) SetMessageHandler(handler func(routing.Message)) {
	c.handlerMu.Lock()
	c.onMessage = handler
	c.handlerMu.Unlock()
}

// SetLifecycleHandler installs the lifecycle event callback.
func (c *Client) SetLifecycleHandler(handler func(routing.LifecycleEvent, error)) {
	c.handlerMu.Lock()
	c.onLifecycle = handler
	c.handlerMu.Unlock()
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// SubscriptionCount returns the number of active subscriptions.
func (c *Client) SubscriptionCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscriptions)
}

// SetLogger sets a logger for error and panic logging.
// If not set, handler panics are recovered silently.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// handleConnect is called by paho when a connection is established, both
// initially and after every reconnect.
func (c *Client) handleConnect() {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	c.restoreSubscriptions()

	c.emitLifecycle(routing.EventConnect, nil)
}

// handleConnectionLost is called by paho when the connection drops
// unexpectedly. paho's auto-reconnect takes over afterwards.
func (c *Client) handleConnectionLost(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	c.emitLifecycle(routing.EventOffline, err)
}

// restoreSubscriptions re-subscribes all tracked filters after reconnect.
func (c *Client) restoreSubscriptions() {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for filter, qos := range c.subscriptions {
		// Errors during restoration are logged, not surfaced; the broker
		// round-trip happens inside the reconnect callback.
		token := c.client.Subscribe(filter, qos, c.pahoHandler())
		if token.WaitTimeout(defaultRequestTimeout) && token.Error() != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Warn("failed to restore subscription",
					"filter", filter,
					"error", token.Error(),
				)
			}
		}
	}
}

// dropSubscription removes a filter from the restore set.
func (c *Client) dropSubscription(filter string) {
	c.subMu.Lock()
	delete(c.subscriptions, filter)
	c.subMu.Unlock()
}

// emitLifecycle forwards a lifecycle event to the installed handler.
func (c *Client) emitLifecycle(event routing.LifecycleEvent, err error) {
	c.handlerMu.RLock()
	handler := c.onLifecycle
	c.handlerMu.RUnlock()

	if handler != nil {
		handler(event, err)
	}
}

// pahoHandler adapts the installed message handler to paho's callback
// signature, with panic recovery so a misbehaving listener cannot kill the
// paho receive loop.
func (c *Client) pahoHandler() pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := c.getLogger(); logger != nil {
					logger.Error("message handler panic recovered",
						"topic", msg.Topic(),
						"panic", r,
					)
				}
			}
		}()

		c.handlerMu.RLock()
		handler := c.onMessage
		c.handlerMu.RUnlock()
		if handler == nil {
			return
		}

		handler(routing.Message{
			Topic:     msg.Topic(),
			Payload:   msg.Payload(),
			QoS:       msg.Qos(),
			Retained:  msg.Retained(),
			Duplicate: msg.Duplicate(),
			MessageID: msg.MessageID(),
		})
	}
}
