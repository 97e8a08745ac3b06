// Package discovery implements the mDNS browser, CIDR/range TCP scanner,
// vendor enrichment, device identification, and the unified coordinator
// that multiplexes them described in spec.md §4.7-§4.10.
package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pingwarden/pingwarden/internal/models"
)

// IPScanParams configures one CIDR/range TCP sweep.
type IPScanParams struct {
	CIDR        string
	StartIP     string
	EndIP       string
	Ports       []int
	Timeout     time.Duration
	Concurrency int
}

// DefaultPorts is used when a scan request omits a port list.
var DefaultPorts = []int{80, 443, 22}

const (
	defaultScanTimeout     = 500 * time.Millisecond
	defaultScanConcurrency = 50
)

func (p IPScanParams) withDefaults() IPScanParams {
	if len(p.Ports) == 0 {
		p.Ports = DefaultPorts
	}

	if p.Timeout <= 0 {
		p.Timeout = defaultScanTimeout
	}

	if p.Concurrency <= 0 {
		p.Concurrency = defaultScanConcurrency
	}

	return p
}

// ExpandAddresses resolves a CIDR or explicit start/end IPv4 range into the
// concrete list of addresses to scan, per spec.md §4.8: CIDR prefixes of
// /30 and shorter exclude the network and broadcast addresses; /31 and /32
// use the full range.
func ExpandAddresses(p IPScanParams) ([]net.IP, error) {
	if p.CIDR != "" {
		return expandCIDR(p.CIDR)
	}

	if p.StartIP != "" && p.EndIP != "" {
		return expandRange(p.StartIP, p.EndIP)
	}

	return nil, fmt.Errorf("must specify either cidr or start_ip/end_ip")
}

func expandCIDR(cidr string) ([]net.IP, error) {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid cidr %q: %w", cidr, err)
	}

	ip4 := ipNet.IP.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("cidr %q is not ipv4", cidr)
	}

	ones, bits := ipNet.Mask.Size()

	var addrs []net.IP

	for a := cloneIP(ip4); ipNet.Contains(a); incIP(a) {
		addrs = append(addrs, cloneIP(a))
	}

	if bits-ones >= 2 && len(addrs) > 2 {
		addrs = addrs[1 : len(addrs)-1]
	}

	return addrs, nil
}

func expandRange(startStr, endStr string) ([]net.IP, error) {
	start := net.ParseIP(startStr).To4()
	end := net.ParseIP(endStr).To4()

	if start == nil || end == nil {
		return nil, fmt.Errorf("invalid ipv4 range %q-%q", startStr, endStr)
	}

	if ipToUint32(start) > ipToUint32(end) {
		return nil, fmt.Errorf("start_ip %q is after end_ip %q", startStr, endStr)
	}

	var addrs []net.IP

	for a := cloneIP(start); ipToUint32(a) <= ipToUint32(end); incIP(a) {
		addrs = append(addrs, cloneIP(a))

		if ipToUint32(a) == ipToUint32(end) {
			break
		}
	}

	return addrs, nil
}

func cloneIP(ip net.IP) net.IP {
	out := make(net.IP, len(ip))
	copy(out, ip)

	return out
}

func incIP(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++

		if ip[i] != 0 {
			break
		}
	}
}

func ipToUint32(ip net.IP) uint32 {
	ip4 := ip.To4()

	return uint32(ip4[0])<<24 | uint32(ip4[1])<<16 | uint32(ip4[2])<<8 | uint32(ip4[3])
}

// ScanIPRange attempts a TCP connect to each port, in order, against every
// address in the expanded range; the first successful connect for an
// address emits one DeviceFound event on out. The scan aborts early if out
// is closed by its consumer (spec.md §4.8).
func ScanIPRange(ctx context.Context, p IPScanParams, out chan<- models.DiscoveryEvent) error {
	p = p.withDefaults()

	addrs, err := ExpandAddresses(p)
	if err != nil {
		return err
	}

	sem := make(chan struct{}, p.Concurrency)

	var wg sync.WaitGroup

	for _, addr := range addrs {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		default:
		}

		sem <- struct{}{}
		wg.Add(1)

		go func(ip net.IP) {
			defer wg.Done()
			defer func() { <-sem }()

			scanOneAddress(ctx, ip.String(), p, out)
		}(addr)
	}

	wg.Wait()

	return nil
}

func scanOneAddress(ctx context.Context, ip string, p IPScanParams, out chan<- models.DiscoveryEvent) {
	for _, port := range p.Ports {
		if ctx.Err() != nil {
			return
		}

		addr := net.JoinHostPort(ip, fmt.Sprintf("%d", port))

		conn, err := net.DialTimeout("tcp", addr, p.Timeout)
		if err != nil {
			continue
		}

		_ = conn.Close()

		now := time.Now()
		device := models.IdentifiedDevice{
			DiscoveredDevice: models.DiscoveredDevice{
				PrimaryIP:       ip,
				Addresses:       []string{ip},
				DiscoveryMethod: fmt.Sprintf("ip_scan:%d", port),
				FirstSeen:       now,
				LastSeen:        now,
			},
		}

		select {
		case out <- models.DiscoveryEvent{EventType: models.EventDeviceFound, Device: &device}:
		case <-ctx.Done():
		}

		return
	}
}
