package routing

// LifecycleEvent is a connection lifecycle notification from the transport.
type LifecycleEvent string

// Lifecycle events delivered through Transport.SetLifecycleHandler.
const (
	// EventConnect signals an (re-)established broker connection.
	EventConnect LifecycleEvent = "connect"

	// EventReconnect signals the transport has started a reconnect attempt.
	EventReconnect LifecycleEvent = "reconnect"

	// EventOffline signals the connection was lost; the accompanying error
	// describes why, when known.
	EventOffline LifecycleEvent = "offline"

	// EventClose signals the connection was closed for good.
	EventClose LifecycleEvent = "close"

	// EventError signals a transport-level error outside any pending request.
	EventError LifecycleEvent = "error"
)

// Message is one inbound publication delivered to listeners.
//
// Topic, Payload and the protocol metadata come from the transport; Label
// and Params are filled in by the dispatcher for the matching route.
type Message struct {
	Topic     string
	Payload   []byte
	QoS       byte
	Retained  bool
	Duplicate bool
	MessageID uint16

	// Label is the registered label whose pattern matched Topic.
	Label string

	// Params holds the parameter values extracted from Topic.
	Params Params
}

// Transport is the underlying MQTT session client the Coordinator drives.
//
// Implementations own connect/reconnect timing, QoS handling and wire
// encoding. All methods block until the corresponding broker round-trip
// completes or fails; the Coordinator never retries a failed request.
//
// The transport must not invoke two message or lifecycle callbacks
// concurrently for the same connection; dispatch ordering relies on it.
type Transport interface {
	// Connect establishes the broker connection.
	Connect() error

	// Disconnect tears the connection down. force skips waiting for
	// in-flight acknowledgement-pending messages.
	Disconnect(force bool) error

	// Subscribe registers the wildcard filter with the broker.
	Subscribe(filter string, qos byte) error

	// Unsubscribe removes the wildcard filter from the broker.
	Unsubscribe(filter string) error

	// Publish sends a payload to a concrete topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// SetMessageHandler installs the callback for inbound publications.
	SetMessageHandler(handler func(msg Message))

	// SetLifecycleHandler installs the callback for connection lifecycle
	// events.
	SetLifecycleHandler(handler func(event LifecycleEvent, err error))
}

// SubscribeOptions carries per-subscribe settings.
type SubscribeOptions struct {
	// QoS is the maximum QoS level for received messages (0, 1, or 2).
	QoS byte
}

// PublishOptions carries per-publish settings.
type PublishOptions struct {
	// QoS is the delivery QoS level (0, 1, or 2).
	QoS byte

	// Retained asks the broker to retain the message for new subscribers.
	Retained bool
}
