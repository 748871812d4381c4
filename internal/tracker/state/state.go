package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/trolley-tracker/internal/catalog"
	"github.com/trolley-tracker/internal/common/logger"
)

// Vehicle is a tracked trolley as reported by the location endpoint.
type Vehicle struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Fetcher resolves an ETA display string for a stop and direction.
type Fetcher interface {
	Fetch(ctx context.Context, stop string, route catalog.Direction) (string, error)
}

// ETAStatus describes what the ETA display value currently holds.
type ETAStatus string

const (
	ETAIdle    ETAStatus = "idle"    // no stop selected
	ETAPending ETAStatus = "pending" // fetch dispatched, not yet resolved
	ETAReady   ETAStatus = "ready"   // text holds the service's answer
	ETAError   ETAStatus = "error"   // the request itself failed
)

// ETAErrorText is shown when the ETA request fails in transit, as a
// state distinct from any previously displayed value.
const ETAErrorText = "ETA unavailable. Check your connection."

// Snapshot is an immutable view of the coordinator for renderers.
// SelectedCar is derived: the selected id resolved against the latest
// vehicle list, nil when the id is not currently reported.
type Snapshot struct {
	Route        catalog.Direction `json:"route"`
	Stops        []string          `json:"stops"`
	SelectedStop string            `json:"selectedStop,omitempty"`
	ETAStatus    ETAStatus         `json:"etaStatus"`
	ETAText      string            `json:"etaText,omitempty"`
	Vehicles     []Vehicle         `json:"vehicles"`
	SelectedCar  *Vehicle          `json:"selectedCar,omitempty"`
	SidebarOpen  bool              `json:"sidebarOpen"`
}

// Coordinator is the single source of truth for rider-facing selection
// state. All mutations go through it; the location poller and the
// presentation surface run on separate goroutines, so every access
// holds the mutex.
type Coordinator struct {
	catalog *catalog.Catalog
	fetcher Fetcher
	logger  logger.Logger

	mu            sync.RWMutex
	route         catalog.Direction
	selectedStop  string
	selectedCarID string
	sidebarOpen   bool
	vehicles      []Vehicle
	etaStatus     ETAStatus
	etaText       string
	etaSeq        uint64
	subs          []chan struct{}
}

func NewCoordinator(cat *catalog.Catalog, fetcher Fetcher, log logger.Logger) *Coordinator {
	return &Coordinator{
		catalog:   cat,
		fetcher:   fetcher,
		logger:    log,
		route:     catalog.DefaultDirection,
		etaStatus: ETAIdle,
	}
}

// SetRoute switches the active direction. A selected stop that also
// exists on the new direction's sequence is kept and its ETA
// re-fetched (direction is an input to the ETA); otherwise selection
// and ETA are cleared.
func (c *Coordinator) SetRoute(dir catalog.Direction) {
	c.mu.Lock()
	if dir == c.route {
		c.mu.Unlock()
		return
	}
	c.route = dir

	var refetch string
	if c.selectedStop != "" {
		if c.catalog.Contains(dir, c.selectedStop) {
			refetch = c.selectedStop
		} else {
			c.logger.Debug("selected stop not on new direction, clearing",
				"stop", c.selectedStop, "route", dir)
			c.clearStopLocked()
		}
	}
	if refetch != "" {
		c.dispatchFetchLocked(refetch, dir)
	}
	c.notifyLocked()
	c.mu.Unlock()
}

// SelectStop updates the selected stop and dispatches an ETA fetch.
// The stop name shows immediately while the fetch is pending. An empty
// name clears the selection; a name outside the active direction's
// sequence is rejected and leaves state unchanged.
func (c *Coordinator) SelectStop(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if name == "" {
		c.clearStopLocked()
		c.notifyLocked()
		return nil
	}
	if !c.catalog.Contains(c.route, name) {
		return fmt.Errorf("stop %q is not on the %s route", name, c.route)
	}

	c.selectedStop = name
	c.dispatchFetchLocked(name, c.route)
	c.notifyLocked()
	return nil
}

// dispatchFetchLocked tags the fetch with the next sequence number so
// a response that resolves after a newer selection is discarded
// instead of overwriting it. Caller holds the lock.
func (c *Coordinator) dispatchFetchLocked(stop string, route catalog.Direction) {
	c.etaSeq++
	seq := c.etaSeq
	c.etaStatus = ETAPending
	c.etaText = ""

	go func() {
		text, err := c.fetcher.Fetch(context.Background(), stop, route)
		c.applyETA(seq, text, err)
	}()
}

func (c *Coordinator) applyETA(seq uint64, text string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.etaSeq {
		c.logger.Debug("discarding stale ETA response", "seq", seq, "current", c.etaSeq)
		return
	}
	if err != nil {
		c.logger.Warn("ETA fetch failed", "stop", c.selectedStop, "error", err)
		c.etaStatus = ETAError
		c.etaText = ETAErrorText
	} else {
		c.etaStatus = ETAReady
		c.etaText = text
	}
	c.notifyLocked()
}

func (c *Coordinator) clearStopLocked() {
	c.selectedStop = ""
	c.etaStatus = ETAIdle
	c.etaText = ""
	c.etaSeq++ // invalidates any fetch still in flight
}

// SelectCar records the tapped trolley by id. An id not present in the
// current vehicle list resets the selection to none. Returns whether a
// vehicle was selected.
func (c *Coordinator) SelectCar(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selectedCarID = ""
	if id != "" {
		for _, v := range c.vehicles {
			if v.ID == id {
				c.selectedCarID = id
				break
			}
		}
		if c.selectedCarID == "" {
			c.logger.Debug("car id not in current vehicle list", "id", id)
		}
	}
	c.notifyLocked()
	return c.selectedCarID != ""
}

// ToggleSidebar flips sidebar visibility and returns the new value.
func (c *Coordinator) ToggleSidebar() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sidebarOpen = !c.sidebarOpen
	c.notifyLocked()
	return c.sidebarOpen
}

// SetVehicles replaces the vehicle list wholesale. Called by the
// location poller on every successful poll.
func (c *Coordinator) SetVehicles(vehicles []Vehicle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vehicles = make([]Vehicle, len(vehicles))
	copy(c.vehicles, vehicles)
	c.notifyLocked()
}

// Snapshot returns a copy of the current state for renderers.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		Route:        c.route,
		Stops:        c.catalog.Stops(c.route),
		SelectedStop: c.selectedStop,
		ETAStatus:    c.etaStatus,
		ETAText:      c.etaText,
		Vehicles:     make([]Vehicle, len(c.vehicles)),
		SidebarOpen:  c.sidebarOpen,
	}
	copy(snap.Vehicles, c.vehicles)

	if c.selectedCarID != "" {
		for i := range snap.Vehicles {
			if snap.Vehicles[i].ID == c.selectedCarID {
				car := snap.Vehicles[i]
				snap.SelectedCar = &car
				break
			}
		}
	}
	return snap
}

// Subscribe returns a channel that receives a coalesced signal after
// every state change.
func (c *Coordinator) Subscribe() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan struct{}, 1)
	c.subs = append(c.subs, ch)
	return ch
}

func (c *Coordinator) notifyLocked() {
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
