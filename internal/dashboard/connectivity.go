package dashboard

import (
	"context"
	"sync"

	"trade-dashboard-sync/internal/analytics"

	"go.uber.org/zap"
)

// ConnectivityState is the API reachability as last observed.
type ConnectivityState string

const (
	Checking     ConnectivityState = "CHECKING"
	Connected    ConnectivityState = "CONNECTED"
	Disconnected ConnectivityState = "DISCONNECTED"
)

// HealthChecker is the part of the analytics API the monitor needs.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*analytics.HealthResponse, error)
}

// Monitor tracks whether the analytics API is reachable. Its state gates every
// snapshot fetch.
type Monitor struct {
	mu      sync.RWMutex
	api     HealthChecker
	baseURL string
	logger  *zap.Logger
	state   ConnectivityState
}

// NewMonitor creates a monitor in the Checking state.
func NewMonitor(api HealthChecker, baseURL string, logger *zap.Logger) *Monitor {
	return &Monitor{
		api:     api,
		baseURL: baseURL,
		logger:  logger,
		state:   Checking,
	}
}

// State returns the current connectivity state.
func (m *Monitor) State() ConnectivityState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Check calls the health endpoint and records the outcome. A failure yields
// Disconnected and a connectivity *Error.
func (m *Monitor) Check(ctx context.Context) (ConnectivityState, error) {
	_, err := m.api.HealthCheck(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		if m.state != Disconnected {
			m.logger.Warn("Analytics API unreachable", zap.String("base_url", m.baseURL), zap.Error(err))
		}
		m.state = Disconnected
		return m.state, NewConnectivityError(m.baseURL, err)
	}

	if m.state != Connected {
		m.logger.Info("Analytics API connected", zap.String("base_url", m.baseURL))
	}
	m.state = Connected
	return m.state, nil
}
