package routing

import "fmt"

// ListenerID identifies a registered listener for later removal. Go functions
// have no identity, so AddListener hands back an ID instead of expecting the
// caller to pass the same function value again.
type ListenerID uint64

// ListenerFunc is the callback signature for dispatched messages. The
// message carries the matched label and extracted parameters.
type ListenerFunc func(msg Message)

// listener is one registered callback for a label.
type listener struct {
	id   ListenerID
	fn   ListenerFunc
	once bool
}

// route is a registry entry: a label, its compiled pattern, the ordered
// listener list and the subscribed flag. The listener list exists (possibly
// empty) for the whole lifetime of the entry.
type route struct {
	label      string
	pattern    *Pattern
	listeners  []listener
	subscribed bool
}

// registry maps labels to routes while preserving registration order.
// Dispatch traverses routes in insertion order; that order is externally
// observable through first-match semantics, so it is kept explicitly rather
// than relying on map iteration.
//
// The registry is not safe for concurrent use; the Coordinator serialises
// all access behind its own mutex.
type registry struct {
	routes map[string]*route
	order  []*route
	nextID ListenerID
}

func newRegistry() *registry {
	return &registry{
		routes: make(map[string]*route),
	}
}

// register compiles the pattern string and stores it under label.
// Fails with ErrDuplicateLabel if the label exists, or with the compile
// error for a malformed pattern.
func (r *registry) register(label, pattern string) error {
	if _, exists := r.routes[label]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
	}

	compiled, err := Compile(pattern)
	if err != nil {
		return err
	}

	entry := &route{label: label, pattern: compiled}
	r.routes[label] = entry
	r.order = append(r.order, entry)
	return nil
}

// unregister removes the label's entry and returns it so the caller can
// unwind any active subscription. Fails with ErrUnknownLabel if absent.
func (r *registry) unregister(label string) (*route, error) {
	entry, exists := r.routes[label]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}

	delete(r.routes, label)
	for i, candidate := range r.order {
		if candidate == entry {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return entry, nil
}

// lookup returns the label's entry or ErrUnknownLabel.
func (r *registry) lookup(label string) (*route, error) {
	entry, exists := r.routes[label]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return entry, nil
}

// addListener appends a callback to the label's listener list and returns
// its ID. Duplicate callbacks are permitted; each registration gets its own
// entry and ID.
func (r *registry) addListener(label string, fn ListenerFunc, once bool) (ListenerID, error) {
	entry, err := r.lookup(label)
	if err != nil {
		return 0, err
	}

	r.nextID++
	id := r.nextID
	entry.listeners = append(entry.listeners, listener{id: id, fn: fn, once: once})
	return id, nil
}

// removeListener removes the listener with the given ID from the label's
// list. Removing an ID that is not present is a no-op; only the label must
// exist.
func (r *registry) removeListener(label string, id ListenerID) error {
	entry, err := r.lookup(label)
	if err != nil {
		return err
	}

	for i, candidate := range entry.listeners {
		if candidate.id == id {
			entry.listeners = append(entry.listeners[:i], entry.listeners[i+1:]...)
			return nil
		}
	}
	return nil
}

// removeAllListeners clears the label's listener list.
func (r *registry) removeAllListeners(label string) error {
	entry, err := r.lookup(label)
	if err != nil {
		return err
	}
	entry.listeners = nil
	return nil
}

// match returns the first route, in registration order, whose pattern
// matches the topic, together with the extracted parameters.
func (r *registry) match(topic string) (*route, Params, bool) {
	for _, entry := range r.order {
		if params, ok := entry.pattern.Match(topic); ok {
			return entry, params, true
		}
	}
	return nil, nil, false
}

// snapshotListeners copies the route's current listener list for dispatch
// and removes once-listeners from the stored list before they run. The copy
// keeps an in-progress dispatch immune to listener add/remove calls made by
// the listeners themselves.
func (entry *route) snapshotListeners() []listener {
	if len(entry.listeners) == 0 {
		return nil
	}

	snapshot := make([]listener, len(entry.listeners))
	copy(snapshot, entry.listeners)

	remaining := entry.listeners[:0]
	for _, candidate := range entry.listeners {
		if !candidate.once {
			remaining = append(remaining, candidate)
		}
	}
	entry.listeners = remaining

	return snapshot
}
