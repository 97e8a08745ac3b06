package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/mdns"

	"github.com/pingwarden/pingwarden/internal/logger"
	"github.com/pingwarden/pingwarden/internal/models"
)

const (
	metaServiceQuery = "_services._dns-sd._udp"
	mdnsDomain       = "local"
	pollIdleSleep    = 50 * time.Millisecond
)

type mdnsBrowser struct {
	log       logger.Logger
	devices   map[string]*models.DiscoveredDevice
	browsers  map[string]chan *mdns.ServiceEntry
}

func newMDNSBrowser(log logger.Logger) *mdnsBrowser {
	return &mdnsBrowser{
		log:      log,
		devices:  make(map[string]*models.DiscoveredDevice),
		browsers: make(map[string]chan *mdns.ServiceEntry),
	}
}

// RunMDNSDiscovery implements spec.md §4.7: a DNS-SD meta-query enumerates
// service types, a parallel browser channel is opened per newly observed
// type, and the loop polls every channel non-blockingly, sleeping 50ms only
// when nothing arrived. Termination is driven by out being closed by the
// consumer (ctx cancellation).
func RunMDNSDiscovery(ctx context.Context, log logger.Logger, out chan<- models.DiscoveryEvent) {
	b := newMDNSBrowser(log)

	metaCh := make(chan *mdns.ServiceEntry, 32)

	go func() {
		err := mdns.Query(&mdns.QueryParam{
			Service: metaServiceQuery,
			Domain:  mdnsDomain,
			Timeout: 0,
			Entries: metaCh,
		})
		if err != nil {
			log.Warn().Err(err).Msg("mdns meta-query failed")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		progressed := b.pollMeta(metaCh, out)
		progressed = b.pollBrowsers(out) || progressed

		if !progressed {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollIdleSleep):
			}
		}
	}
}

func (b *mdnsBrowser) pollMeta(metaCh chan *mdns.ServiceEntry, out chan<- models.DiscoveryEvent) bool {
	select {
	case entry, ok := <-metaCh:
		if !ok {
			return false
		}

		serviceType := strings.TrimSuffix(entry.Name, "."+mdnsDomain+".")

		if _, started := b.browsers[serviceType]; started {
			return true
		}

		ch := make(chan *mdns.ServiceEntry, 32)
		b.browsers[serviceType] = ch

		go func(svcType string) {
			err := mdns.Query(&mdns.QueryParam{
				Service: svcType,
				Domain:  mdnsDomain,
				Timeout: 0,
				Entries: ch,
			})
			if err != nil {
				b.log.Warn().Err(err).Str("service_type", svcType).Msg("mdns browse failed")
			}
		}(serviceType)

		return true
	default:
		return false
	}
}

func (b *mdnsBrowser) pollBrowsers(out chan<- models.DiscoveryEvent) bool {
	progressed := false

	for serviceType, ch := range b.browsers {
		select {
		case entry, ok := <-ch:
			if !ok {
				continue
			}

			b.handleEntry(serviceType, entry, out)
			progressed = true
		default:
		}
	}

	return progressed
}

func (b *mdnsBrowser) handleEntry(serviceType string, entry *mdns.ServiceEntry, out chan<- models.DiscoveryEvent) {
	ip := primaryIP(entry)
	if ip == "" {
		return
	}

	svc := models.ServiceDescriptor{
		ServiceType: serviceType,
		FullName:    entry.Name,
		Port:        entry.Port,
	}

	txt := parseTXT(entry.InfoFields)

	now := time.Now()

	device, existed := b.devices[ip]
	if !existed {
		device = &models.DiscoveredDevice{
			PrimaryIP:       ip,
			Addresses:       []string{ip},
			Hostname:        entry.Host,
			Services:        []models.ServiceDescriptor{svc},
			TXT:             txt,
			DiscoveryMethod: "mdns",
			FirstSeen:       now,
			LastSeen:        now,
		}

		b.devices[ip] = device

		emit(out, models.EventDeviceFound, device)

		return
	}

	changed := mergeService(device, svc)
	changed = mergeTXT(device, txt) || changed
	device.LastSeen = now

	if changed {
		emit(out, models.EventDeviceUpdated, device)
	}
}

func emit(out chan<- models.DiscoveryEvent, eventType models.DiscoveryEventType, device *models.DiscoveredDevice) {
	identified := models.IdentifiedDevice{DiscoveredDevice: *device}
	out <- models.DiscoveryEvent{EventType: eventType, Device: &identified}
}

func mergeService(device *models.DiscoveredDevice, svc models.ServiceDescriptor) bool {
	for _, existing := range device.Services {
		if existing.Key() == svc.Key() {
			return false
		}
	}

	device.Services = append(device.Services, svc)

	return true
}

func mergeTXT(device *models.DiscoveredDevice, txt map[string]string) bool {
	if len(txt) == 0 {
		return false
	}

	if device.TXT == nil {
		device.TXT = make(map[string]string)
	}

	changed := false

	for k, v := range txt {
		if _, ok := device.TXT[k]; !ok {
			device.TXT[k] = v
			changed = true
		}
	}

	return changed
}

func primaryIP(entry *mdns.ServiceEntry) string {
	if entry.AddrV4 != nil {
		return entry.AddrV4.String()
	}

	if entry.AddrV6 != nil {
		return entry.AddrV6.String()
	}

	return ""
}

func parseTXT(fields []string) map[string]string {
	if len(fields) == 0 {
		return nil
	}

	out := make(map[string]string, len(fields))

	for _, f := range fields {
		k, v, found := strings.Cut(f, "=")
		if !found {
			out[f] = ""
			continue
		}

		out[k] = v
	}

	return out
}
