package discovery

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pingwarden/pingwarden/internal/logger"
	"github.com/pingwarden/pingwarden/internal/models"
)

// CoordinatorRequest selects which discovery methods run and their
// parameters, per spec.md §4.9.
type CoordinatorRequest struct {
	MDNS    bool
	IPScan  bool
	IPScanParams IPScanParams
}

type vendorState int

const (
	vendorNone vendorState = iota
	vendorInFlight
	vendorDone
)

// RunCoordinator multiplexes the requested discovery methods onto out,
// de-duplicating devices by primary IP and triggering asynchronous vendor
// enrichment, per spec.md §4.9. It closes out when every active method has
// completed, after first emitting a single Completed event.
func RunCoordinator(ctx context.Context, req CoordinatorRequest, log logger.Logger, out chan<- models.DiscoveryEvent) {
	defer close(out)

	out <- models.DiscoveryEvent{EventType: models.EventStarted}

	internal := make(chan models.DiscoveryEvent, 64)

	var wg sync.WaitGroup

	if req.MDNS {
		wg.Add(1)

		go func() {
			defer wg.Done()
			RunMDNSDiscovery(ctx, log, internal)
		}()
	}

	if req.IPScan {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if err := ScanIPRange(ctx, req.IPScanParams, internal); err != nil {
				internal <- models.DiscoveryEvent{EventType: models.EventError, Message: err.Error()}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(internal)
	}()

	merger := newMerger(log)
	merger.run(ctx, internal, out)
}

type merger struct {
	log         logger.Logger
	mu          sync.Mutex
	devices     map[string]*models.DiscoveredDevice
	vendorState map[string]vendorState
	enrichWG    sync.WaitGroup
}

func newMerger(log logger.Logger) *merger {
	return &merger{
		log:         log,
		devices:     make(map[string]*models.DiscoveredDevice),
		vendorState: make(map[string]vendorState),
	}
}

func (m *merger) run(ctx context.Context, internal <-chan models.DiscoveryEvent, out chan<- models.DiscoveryEvent) {
	for {
		select {
		case ev, ok := <-internal:
			if !ok {
				// Every in-flight Sonos enrichment must land (or give up)
				// before RunCoordinator's deferred close(out) runs, or its
				// send in maybeEnrich panics on a closed channel.
				m.enrichWG.Wait()

				m.mu.Lock()
				count := len(m.devices)
				m.mu.Unlock()

				out <- models.DiscoveryEvent{EventType: models.EventCompleted, DeviceCount: count}

				return
			}

			m.handle(ctx, ev, out)

		case <-ctx.Done():
			m.enrichWG.Wait()
			return
		}
	}
}

func (m *merger) handle(ctx context.Context, ev models.DiscoveryEvent, out chan<- models.DiscoveryEvent) {
	if ev.EventType != models.EventDeviceFound && ev.EventType != models.EventDeviceUpdated {
		out <- ev
		return
	}

	if ev.Device == nil {
		return
	}

	incoming := ev.Device.DiscoveredDevice

	m.mu.Lock()

	existing, ok := m.devices[incoming.PrimaryIP]
	if !ok {
		stored := incoming
		m.devices[incoming.PrimaryIP] = &stored
		m.mu.Unlock()

		out <- models.DiscoveryEvent{EventType: models.EventDeviceFound, Device: identified(stored)}

		m.maybeEnrich(ctx, stored, out)

		return
	}

	changed := mergeDevices(existing, incoming)
	device := *existing

	m.mu.Unlock()

	if changed {
		out <- models.DiscoveryEvent{EventType: models.EventDeviceUpdated, Device: identified(device)}
	}

	m.maybeEnrich(ctx, device, out)
}

// mergeDevices applies the rules from spec.md §4.9 and reports whether
// anything actually changed.
func mergeDevices(existing *models.DiscoveredDevice, incoming models.DiscoveredDevice) bool {
	changed := false

	if incoming.Name != "" && incoming.Name != incoming.PrimaryIP && existing.Name != incoming.Name {
		if existing.Name == "" || existing.Name == existing.PrimaryIP {
			existing.Name = incoming.Name
			changed = true
		}
	}

	if incoming.Hostname != "" && incoming.Hostname != incoming.PrimaryIP && existing.Hostname != incoming.Hostname {
		if existing.Hostname == "" || existing.Hostname == existing.PrimaryIP {
			existing.Hostname = incoming.Hostname
			changed = true
		}
	}

	for _, addr := range incoming.Addresses {
		if !containsString(existing.Addresses, addr) {
			existing.Addresses = append(existing.Addresses, addr)
			changed = true
		}
	}

	for _, svc := range incoming.Services {
		found := false

		for _, e := range existing.Services {
			if e.Key() == svc.Key() {
				found = true
				break
			}
		}

		if !found {
			existing.Services = append(existing.Services, svc)
			changed = true
		}
	}

	if len(incoming.TXT) > 0 {
		if existing.TXT == nil {
			existing.TXT = make(map[string]string)
		}

		for k, v := range incoming.TXT {
			if _, ok := existing.TXT[k]; !ok {
				existing.TXT[k] = v
				changed = true
			}
		}
	}

	if incoming.DiscoveryMethod != "" && !hasDiscoveryMethod(existing.DiscoveryMethod, incoming.DiscoveryMethod) {
		if existing.DiscoveryMethod == "" {
			existing.DiscoveryMethod = incoming.DiscoveryMethod
		} else {
			existing.DiscoveryMethod += "," + incoming.DiscoveryMethod
		}

		changed = true
	}

	existing.LastSeen = time.Now()

	return changed
}

func (m *merger) maybeEnrich(ctx context.Context, device models.DiscoveredDevice, out chan<- models.DiscoveryEvent) {
	if !IsSonos(device.Services) {
		return
	}

	m.mu.Lock()
	state := m.vendorState[device.PrimaryIP]

	if state != vendorNone {
		m.mu.Unlock()
		return
	}

	m.vendorState[device.PrimaryIP] = vendorInFlight
	m.mu.Unlock()

	m.enrichWG.Add(1)

	go func() {
		defer m.enrichWG.Done()

		record, err := EnrichSonos(ctx, device.PrimaryIP)

		m.mu.Lock()
		defer m.mu.Unlock()

		m.vendorState[device.PrimaryIP] = vendorDone

		if err != nil {
			m.log.Warn().Err(err).Str("ip", device.PrimaryIP).Msg("sonos enrichment failed")
			return
		}

		stored, ok := m.devices[device.PrimaryIP]
		if !ok {
			return
		}

		stored.Vendor = &record

		if zoneName, ok := record.Fields["zone_name"]; ok && zoneName != "" {
			stored.Name = zoneName
		}

		updated := *stored

		out <- models.DiscoveryEvent{EventType: models.EventDeviceUpdated, Device: identified(updated)}
	}()
}

// identified wraps a DiscoveredDevice with its parsed DeviceInfo, per
// spec.md §4.10. Every event leaving the coordinator carries this so
// consumers never have to call Identify themselves.
func identified(device models.DiscoveredDevice) *models.IdentifiedDevice {
	return &models.IdentifiedDevice{
		DiscoveredDevice: device,
		Info:             Identify(device),
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}

	return false
}

func hasDiscoveryMethod(haystack, needle string) bool {
	if needle == "" || haystack == "" {
		return false
	}

	for _, part := range strings.Split(haystack, ",") {
		if part == needle {
			return true
		}
	}

	return false
}
