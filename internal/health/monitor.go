package health

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State of the monitored endpoint.
type State int

const (
	Unknown State = iota
	Online
	Offline
)

func (s State) String() string {
	switch s {
	case Online:
		return "online"
	case Offline:
		return "offline"
	default:
		return "unknown"
	}
}

const (
	defaultInterval = 5 * time.Second
	probeTimeout    = 3 * time.Second
	stopTimeout     = 10 * time.Second
)

// Monitor probes an HTTP endpoint on an interval and reports reachability
// transitions. Any HTTP response counts as online; only transport failures
// count as offline.
type Monitor struct {
	client   *http.Client
	interval time.Duration
	log      *zap.Logger

	mu       sync.Mutex
	endpoint string
	state    State
	onChange func(State)
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewMonitor(endpoint string, interval time.Duration, log *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{
		client:   &http.Client{Timeout: probeTimeout},
		interval: interval,
		log:      log,
		endpoint: endpoint,
		state:    Unknown,
	}
}

// OnChange installs the transition callback. It fires only when the state
// actually changes, from the monitor goroutine.
func (m *Monitor) OnChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// SetEndpoint retargets the monitor. State falls back to Unknown until the
// next probe.
func (m *Monitor) SetEndpoint(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if endpoint == m.endpoint {
		return
	}
	m.endpoint = endpoint
	m.state = Unknown
}

// State returns the last observed state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start launches the probe loop. Calling Start on a running monitor is a
// no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopCh != nil {
		return
	}
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	go m.loop(m.stopCh, m.doneCh)
}

// Stop halts the probe loop and waits for it, bounded by stopTimeout.
// Calling Stop on an idle monitor is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	stopCh := m.stopCh
	doneCh := m.doneCh
	m.stopCh = nil
	m.doneCh = nil
	m.mu.Unlock()
	if stopCh == nil {
		return
	}
	close(stopCh)
	select {
	case <-doneCh:
	case <-time.After(stopTimeout):
		m.log.Warn("health monitor did not stop in time")
	}
}

// CheckNow probes immediately, outside the loop schedule, and returns the
// resulting state.
func (m *Monitor) CheckNow() State {
	return m.probe()
}

func (m *Monitor) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	m.probe()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.probe()
		}
	}
}

func (m *Monitor) probe() State {
	m.mu.Lock()
	endpoint := m.endpoint
	m.mu.Unlock()

	next := Offline
	if endpoint == "" {
		next = Unknown
	} else {
		resp, err := m.client.Get(endpoint)
		if err == nil {
			resp.Body.Close()
			next = Online
		}
	}

	m.mu.Lock()
	prev := m.state
	m.state = next
	fn := m.onChange
	m.mu.Unlock()

	if prev != next {
		m.log.Info("endpoint health changed",
			zap.String("endpoint", endpoint),
			zap.String("from", prev.String()),
			zap.String("to", next.String()))
		if fn != nil {
			fn(next)
		}
	}
	return next
}
