package routing

import (
	"fmt"
	"sort"
	"sync"
)

// Logger is the optional logging interface accepted by the Coordinator.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger attaches a logger for dropped-message and dispatch diagnostics.
// Without one, unmatched traffic is dropped without a trace.
func WithLogger(logger Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithDropHandler installs a callback invoked with the topic of every inbound
// message no registered label matched. Dropping such traffic is normal when
// broker-side filters are broader than the registered patterns; the handler
// exists so callers can count it. It runs outside all locks and may call back
// into the Coordinator.
func WithDropHandler(fn func(topic string)) Option {
	return func(c *Coordinator) {
		c.onDrop = fn
	}
}

// Coordinator is the public façade: it owns the label registry, the
// connection state machine and the active subscription set, and drives one
// Transport.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Transport-touching operations (Connect, End, Subscribe, Unsubscribe,
//     Publish, RemovePattern) are serialised against each other; message
//     dispatch and lifecycle handling only contend for the short state lock,
//     so listeners keep receiving messages while a broker round-trip is in
//     flight.
//   - Listeners are invoked outside all locks and may freely call back into
//     the Coordinator. The status observer runs inside operations and must
//     not (see StatusObserver).
type Coordinator struct {
	transport Transport
	state     *stateMachine
	logger    Logger
	onDrop    func(topic string)

	// opMu serialises operations that perform transport round-trips, so the
	// registry and subscription set can never be committed out of order.
	opMu sync.Mutex

	// mu guards routes and subs. Held only for in-memory work, never across
	// a transport call.
	mu     sync.Mutex
	routes *registry
	subs   map[string]struct{}
}

// New creates a Coordinator driving the given transport. The transport's
// message and lifecycle handlers are attached on Connect.
func New(transport Transport, opts ...Option) *Coordinator {
	c := &Coordinator{
		transport: transport,
		state:     newStateMachine(),
		routes:    newRegistry(),
		subs:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// Pattern registration
// =============================================================================

// RegisterPattern compiles patternString and stores it under label.
//
// Fails with ErrDuplicateLabel if the label is taken, or with an
// ErrInvalidPattern-wrapping error for a malformed pattern.
func (c *Coordinator) RegisterPattern(label, patternString string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.routes.register(label, patternString)
}

// RemovePattern removes the label and its pattern.
//
// Fails with ErrUnknownLabel if the label is absent. If the label is
// currently subscribed, it is unsubscribed from the transport first; its
// listeners are cleared in any case.
func (c *Coordinator) RemovePattern(label string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	entry, err := c.routes.lookup(label)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	subscribed := entry.subscribed
	filter := entry.pattern.Filter()
	c.mu.Unlock()

	if subscribed {
		if err := c.transport.Unsubscribe(filter); err != nil {
			return fmt.Errorf("unsubscribing %q: %w", label, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, filter)
	entry.subscribed = false
	entry.listeners = nil
	_, err = c.routes.unregister(label)
	return err
}

// Pattern returns the compiled pattern registered under label.
func (c *Coordinator) Pattern(label string) (*Pattern, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.routes.lookup(label)
	if err != nil {
		return nil, err
	}
	return entry.pattern, nil
}

// =============================================================================
// Connection lifecycle
// =============================================================================

// Connect attaches the message and lifecycle handlers to the transport and
// establishes the broker connection.
//
// Fails with ErrAlreadyConnected when already connected or reconnecting. A
// coordinator whose previous connection reached Closed is fully reset (back
// to Ready, subscriptions cleared) before reconnecting; registered patterns
// and listeners persist.
func (c *Coordinator) Connect() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	switch c.state.current() {
	case StatusConnected, StatusReconnecting, StatusConnecting:
		return ErrAlreadyConnected
	case StatusClosed:
		c.state.reset()
		c.clearSubscriptions()
	}

	c.transport.SetMessageHandler(c.handleMessage)
	c.transport.SetLifecycleHandler(c.handleLifecycle)

	c.state.transition(StatusConnecting, nil)

	if err := c.transport.Connect(); err != nil {
		c.state.transition(StatusError, err)
		return fmt.Errorf("connecting transport: %w", err)
	}

	c.state.transition(StatusConnected, nil)
	return nil
}

// End disconnects from the broker and performs a full reset: status back to
// Ready, last error cleared, active subscriptions dropped. Listeners and
// registered patterns are untouched and survive a later Connect.
//
// force skips waiting for in-flight acknowledgement-pending messages.
// Fails with ErrNotConnected when there is no active connection.
func (c *Coordinator) End(force bool) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	switch c.state.current() {
	case StatusConnected, StatusReconnecting, StatusOffline, StatusError:
		// Session still live (an error event does not end it); proceed.
	default:
		return ErrNotConnected
	}

	if err := c.transport.Disconnect(force); err != nil {
		return fmt.Errorf("disconnecting transport: %w", err)
	}

	c.state.reset()
	c.clearSubscriptions()
	return nil
}

// Status returns the current connection status.
func (c *Coordinator) Status() Status {
	return c.state.current()
}

// LastError returns the last error observed by the state machine. It is
// retained across non-error transitions and cleared only by a full reset.
func (c *Coordinator) LastError() error {
	return c.state.lastError()
}

// OnStatusChange installs the status observer. There is a single slot; the
// last registration wins. Pass nil to remove the observer.
func (c *Coordinator) OnStatusChange(fn StatusObserver) {
	c.state.setObserver(fn)
}

// =============================================================================
// Subscriptions and publishing
// =============================================================================

// Subscribe registers the label's wildcard filter with the broker and adds
// it to the active subscription set.
//
// Fails with ErrNotConnected, ErrUnknownLabel or ErrAlreadySubscribed, or
// passes through the transport's subscribe error.
func (c *Coordinator) Subscribe(label string, opts SubscribeOptions) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.state.current() != StatusConnected {
		return ErrNotConnected
	}

	c.mu.Lock()
	entry, err := c.routes.lookup(label)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	filter := entry.pattern.Filter()
	if _, active := c.subs[filter]; active {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrAlreadySubscribed, label)
	}
	c.mu.Unlock()

	if err := c.transport.Subscribe(filter, opts.QoS); err != nil {
		return fmt.Errorf("subscribing %q: %w", label, err)
	}

	c.mu.Lock()
	c.subs[filter] = struct{}{}
	entry.subscribed = true
	c.mu.Unlock()
	return nil
}

// Unsubscribe removes the label's filter from the broker and from the
// active subscription set. When removeListeners is true the label's
// listener list is cleared as well.
//
// Fails with ErrNotConnected, ErrUnknownLabel or ErrNotSubscribed, or
// passes through the transport's unsubscribe error.
func (c *Coordinator) Unsubscribe(label string, removeListeners bool) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.state.current() != StatusConnected {
		return ErrNotConnected
	}

	c.mu.Lock()
	entry, err := c.routes.lookup(label)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	filter := entry.pattern.Filter()
	if _, active := c.subs[filter]; !active {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotSubscribed, label)
	}
	c.mu.Unlock()

	if err := c.transport.Unsubscribe(filter); err != nil {
		return fmt.Errorf("unsubscribing %q: %w", label, err)
	}

	c.mu.Lock()
	delete(c.subs, filter)
	entry.subscribed = false
	if removeListeners {
		entry.listeners = nil
	}
	c.mu.Unlock()
	return nil
}

// Publish builds the concrete topic from the label's pattern and the
// supplied parameter values, then forwards the payload to the transport.
//
// The parameter count is validated before anything else; a mismatch fails
// with ErrParameterCount and performs no transport call. Also fails with
// ErrNotConnected, ErrUnknownLabel, ErrMissingParameter or
// ErrInvalidParameterValue, or passes through the transport's publish error.
func (c *Coordinator) Publish(label string, params Params, payload []byte, opts PublishOptions) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.state.current() != StatusConnected {
		return ErrNotConnected
	}

	c.mu.Lock()
	entry, err := c.routes.lookup(label)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	topic, err := entry.pattern.BuildTopic(params)
	if err != nil {
		return err
	}

	if err := c.transport.Publish(topic, payload, opts.QoS, opts.Retained); err != nil {
		return fmt.Errorf("publishing %q: %w", label, err)
	}
	return nil
}

// Subscriptions returns a sorted snapshot of the active subscription
// filters.
func (c *Coordinator) Subscriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	filters := make([]string, 0, len(c.subs))
	for filter := range c.subs {
		filters = append(filters, filter)
	}
	sort.Strings(filters)
	return filters
}

// Subscribed reports whether the label is currently subscribed.
func (c *Coordinator) Subscribed(label string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.routes.lookup(label)
	if err != nil {
		return false, err
	}
	return entry.subscribed, nil
}

// =============================================================================
// Listener management
// =============================================================================

// AddListener appends a callback to the label's listener list and returns
// its ID for later removal. Listeners run in registration order on every
// message dispatched to the label.
func (c *Coordinator) AddListener(label string, fn ListenerFunc) (ListenerID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.routes.addListener(label, fn, false)
}

// AddOnceListener appends a callback that is removed immediately before its
// single invocation; it never fires twice.
func (c *Coordinator) AddOnceListener(label string, fn ListenerFunc) (ListenerID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.routes.addListener(label, fn, true)
}

// RemoveListener removes the listener with the given ID from the label's
// list. Removing an ID that is no longer present is a no-op.
func (c *Coordinator) RemoveListener(label string, id ListenerID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.routes.removeListener(label, id)
}

// RemoveAllListeners clears the label's listener list.
func (c *Coordinator) RemoveAllListeners(label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.routes.removeAllListeners(label)
}

// =============================================================================
// Transport callbacks
// =============================================================================

// handleMessage routes one inbound message to the first registered label
// whose pattern matches its topic, then invokes that label's listeners in
// registration order with the parameter-enriched message.
//
// The listener list is snapshotted (and once-listeners removed) under the
// lock; invocation happens outside it, so listeners may modify the registry
// or call any Coordinator method without corrupting the dispatch.
func (c *Coordinator) handleMessage(msg Message) {
	c.mu.Lock()
	entry, params, ok := c.routes.match(msg.Topic)
	if !ok {
		c.mu.Unlock()
		// Designed no-op: broad broker filters deliver traffic no label
		// claims.
		if c.logger != nil {
			c.logger.Debug("no label matched inbound topic", "topic", msg.Topic)
		}
		if c.onDrop != nil {
			c.onDrop(msg.Topic)
		}
		return
	}
	msg.Label = entry.label
	msg.Params = params
	snapshot := entry.snapshotListeners()
	c.mu.Unlock()

	for _, l := range snapshot {
		l.fn(msg)
	}
}

// handleLifecycle maps transport lifecycle events onto status transitions.
//
// EventConnect is only meaningful as a reconnect notification here: the
// initial Connecting→Connected transition happens synchronously inside
// Connect when the transport call returns.
func (c *Coordinator) handleLifecycle(event LifecycleEvent, err error) {
	switch event {
	case EventConnect:
		switch c.state.current() {
		case StatusReconnecting, StatusOffline:
			c.state.transition(StatusConnected, nil)
		}

	case EventReconnect:
		c.state.transition(StatusReconnecting, nil)

	case EventOffline:
		c.state.transition(StatusOffline, err)

	case EventClose:
		c.state.transition(StatusClosed, nil)
		c.mu.Lock()
		c.clearSubscriptionsLocked()
		c.mu.Unlock()

	case EventError:
		c.state.transition(StatusError, err)

	default:
		if c.logger != nil {
			c.logger.Warn("unknown transport lifecycle event", "event", string(event))
		}
	}
}

// clearSubscriptions empties the active subscription set and the per-route
// subscribed flags. Listener lists are left alone: listeners persist across
// reconnects, only subscriptions and status reset.
func (c *Coordinator) clearSubscriptions() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearSubscriptionsLocked()
}

func (c *Coordinator) clearSubscriptionsLocked() {
	c.subs = make(map[string]struct{})
	for _, entry := range c.routes.order {
		entry.subscribed = false
	}
}
