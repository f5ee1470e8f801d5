package routing

import "sync"

// Status is the connection lifecycle state of a Coordinator.
type Status string

// Connection statuses. Ready is the initial state and the state after a
// full reset; Closed is terminal for one connection attempt and is left only
// by a fresh Connect call.
const (
	StatusReady        Status = "ready"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
	StatusOffline      Status = "offline"
	StatusClosed       Status = "closed"
	StatusError        Status = "error"
)

// StatusObserver is invoked synchronously on every status transition.
// err is non-nil only for transitions that carry an error.
//
// The observer runs on whatever goroutine drove the transition (a caller or
// a transport callback) and must not call back into the Coordinator.
type StatusObserver func(status Status, err error)

// stateMachine tracks the connection status and the last observed error,
// and notifies a single observer slot on every transition.
//
// The last error is deliberately not cleared when leaving the error state:
// it carries forward as diagnostic context until the next full reset.
type stateMachine struct {
	mu       sync.Mutex
	status   Status
	lastErr  error
	observer StatusObserver
}

func newStateMachine() *stateMachine {
	return &stateMachine{status: StatusReady}
}

// transition records the new status, overwrites the last error when err is
// non-nil, and invokes the observer if one is set. The observer is called
// outside the internal lock so it may read status and last error.
func (m *stateMachine) transition(status Status, err error) {
	m.mu.Lock()
	m.status = status
	if err != nil {
		m.lastErr = err
	}
	observer := m.observer
	m.mu.Unlock()

	if observer != nil {
		observer(status, err)
	}
}

// reset returns the machine to Ready and clears the last error. Reset is
// silent: the observer is not notified, matching the distinction between a
// lifecycle transition and a full teardown.
func (m *stateMachine) reset() {
	m.mu.Lock()
	m.status = StatusReady
	m.lastErr = nil
	m.mu.Unlock()
}

// setObserver installs the observer callback. There is a single slot; the
// last registration wins.
func (m *stateMachine) setObserver(fn StatusObserver) {
	m.mu.Lock()
	m.observer = fn
	m.mu.Unlock()
}

// current returns the current status.
func (m *stateMachine) current() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// lastError returns the most recent error-carrying transition's error, or
// nil if none occurred since the last reset.
func (m *stateMachine) lastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}
