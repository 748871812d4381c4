package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/trolley-tracker/internal/common/alert"
	"github.com/trolley-tracker/internal/common/logger"
	"github.com/trolley-tracker/internal/tracker/state"
)

const UserAgent = "trolley-tracker/1.0"

// Sink receives each successful poll result as a wholesale replacement.
type Sink interface {
	SetVehicles([]state.Vehicle)
}

// Config for the location poller.
type Config struct {
	BaseURL          string
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold int
}

// Poller fetches live trolley locations from the tracking service on a
// fixed interval and hands them to the sink. A tick that fires while
// the previous request is still running is skipped, so at most one
// poll is in flight.
type Poller struct {
	config     Config
	httpClient *http.Client
	sink       Sink
	alerts     *alert.Client
	logger     logger.Logger

	mu          sync.Mutex
	running     bool
	inFlight    bool
	consecFails int
	cancel      context.CancelFunc
}

func NewPoller(cfg Config, sink Sink, alerts *alert.Client, log logger.Logger) *Poller {
	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     30 * time.Second,
		},
	}

	return &Poller{
		config:     cfg,
		httpClient: client,
		sink:       sink,
		alerts:     alerts,
		logger:     log,
	}
}

// Start polls immediately, then on every tick until the context is
// cancelled or Stop is called. It blocks; run it on its own goroutine.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.mu.Unlock()

	p.logger.Info("Starting location poller",
		"url", p.config.BaseURL,
		"interval", p.config.Interval)

	// Initial fetch
	p.poll(ctx)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Location poller stopped")
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			return nil
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// Stop cancels the polling loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

// IsRunning reports whether the polling loop is active.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// poll dispatches one fetch unless the previous one is still running.
func (p *Poller) poll(ctx context.Context) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		p.logger.Debug("previous poll still in flight, skipping tick")
		return
	}
	p.inFlight = true
	p.mu.Unlock()

	go func() {
		err := p.fetch(ctx)

		p.mu.Lock()
		p.inFlight = false
		if err != nil && ctx.Err() != nil {
			// Shutdown, not a service failure.
			p.mu.Unlock()
			return
		}
		if err != nil {
			p.consecFails++
			fails := p.consecFails
			p.mu.Unlock()

			p.logger.Warn("location poll failed, keeping previous snapshot",
				"error", err, "consecutive_failures", fails)
			if fails == p.config.FailureThreshold {
				if alertErr := p.alerts.SendPollFailure(fails, err); alertErr != nil {
					p.logger.Error("failed to send poll failure alert", "error", alertErr)
				}
			}
			return
		}
		p.consecFails = 0
		p.mu.Unlock()
	}()
}

// fetch retrieves the active trolley list and pushes it to the sink.
func (p *Poller) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", p.config.BaseURL+"/api/active_trolley_locations", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch locations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var vehicles []state.Vehicle
	if err := json.NewDecoder(resp.Body).Decode(&vehicles); err != nil {
		return fmt.Errorf("failed to decode locations: %w", err)
	}

	p.sink.SetVehicles(vehicles)
	p.logger.Debug("location poll succeeded", "vehicles", len(vehicles))
	return nil
}
