package tracker

import (
	"context"
	"fmt"
	"sync"

	"github.com/trolley-tracker/internal/catalog"
	"github.com/trolley-tracker/internal/common/alert"
	"github.com/trolley-tracker/internal/common/config"
	"github.com/trolley-tracker/internal/common/logger"
	"github.com/trolley-tracker/internal/tracker/eta"
	"github.com/trolley-tracker/internal/tracker/poller"
	"github.com/trolley-tracker/internal/tracker/state"
)

// Manager owns the selection coordinator and the location poller and
// ties their lifecycles together.
type Manager struct {
	config      config.TrackerConfig
	logger      logger.Logger
	coordinator *state.Coordinator
	poller      *poller.Poller

	mu        sync.RWMutex
	isRunning bool
	cancelFn  context.CancelFunc
	wg        sync.WaitGroup
}

func NewManager(cfg config.TrackerConfig, cat *catalog.Catalog, alerts *alert.Client, failureThreshold int, log logger.Logger) *Manager {
	fetcher := eta.NewClient(cfg.BaseURL, cfg.HTTPTimeout, log)
	coordinator := state.NewCoordinator(cat, fetcher, log)
	p := poller.NewPoller(poller.Config{
		BaseURL:          cfg.BaseURL,
		Interval:         cfg.PollInterval,
		Timeout:          cfg.HTTPTimeout,
		FailureThreshold: failureThreshold,
	}, coordinator, alerts, log)

	return &Manager{
		config:      cfg,
		logger:      log,
		coordinator: coordinator,
		poller:      p,
	}
}

// Coordinator exposes the selection state to the presentation surface.
func (m *Manager) Coordinator() *state.Coordinator {
	return m.coordinator
}

func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("tracker manager is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFn = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.poller.Start(ctx); err != nil {
			m.logger.Error("Location poller error", "error", err)
		}
	}()

	m.isRunning = true
	m.logger.Info("Tracker manager started", "base_url", m.config.BaseURL)
	return nil
}

func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return
	}

	m.logger.Info("Stopping tracker manager")

	if m.cancelFn != nil {
		m.cancelFn()
	}
	m.wg.Wait()

	m.isRunning = false
	m.logger.Info("Tracker manager stopped")
}

func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isRunning
}
