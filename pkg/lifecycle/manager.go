package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Manager coordinates the lifetime of a group of background services.
// An owning module (such as shutdown) creates one and hands a Handle
// to every service it supervises.
type Manager struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	services map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a ready-to-use lifecycle manager.
func NewManager() *Manager {
	m := &Manager{
		services: make(map[string]bool),
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// NewServiceHandle registers a named service and returns its Handle.
// The manager tracks the service in its WaitGroup until the handle is
// closed.
func (m *Manager) NewServiceHandle(name string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.services[name] {
		return nil, fmt.Errorf("lifecycle manager: service '%s' is already registered", name)
	}
	m.services[name] = true
	m.wg.Add(1)
	fmt.Printf("lifecycle manager: service [%s] registered\n", name)

	return &Handle{
		ctx: m.ctx,
		Close: func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, exists := m.services[name]; !exists {
				return
			}
			delete(m.services, name)
			m.wg.Done()
		},
	}, nil
}

// Shutdown broadcasts the stop signal to every registered service.
func (m *Manager) Shutdown() {
	fmt.Println("lifecycle manager: broadcasting shutdown signal...")
	m.cancel()
}

// WaitWithTimeout waits for all registered services to finish, up to
// the given timeout. It returns the names of services still running
// when the timeout fired, or nil when everything stopped in time.
func (m *Manager) WaitWithTimeout(timeout time.Duration) []string {
	doneChan := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(doneChan)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-doneChan:
		return nil
	case <-timer.C:
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.remainingServices()
	}
}

func (m *Manager) remainingServices() []string {
	remaining := make([]string, 0, len(m.services))
	for name := range m.services {
		remaining = append(remaining, name)
	}
	return remaining
}
