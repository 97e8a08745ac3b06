package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingwarden/pingwarden/internal/logger"
	"github.com/pingwarden/pingwarden/internal/models"
)

func TestParseTXT_SplitsKeyValuePairs(t *testing.T) {
	got := parseTXT([]string{"model=Echo", "fw=1.2", "noequals"})

	assert.Equal(t, "Echo", got["model"])
	assert.Equal(t, "1.2", got["fw"])
	assert.Equal(t, "", got["noequals"])
}

func TestParseTXT_EmptyFieldsReturnsNil(t *testing.T) {
	assert.Nil(t, parseTXT(nil))
}

func TestMergeTXT_OnlyAddsNewKeys(t *testing.T) {
	device := &models.DiscoveredDevice{TXT: map[string]string{"model": "Echo"}}

	changed := mergeTXT(device, map[string]string{"model": "Dot", "fw": "2.0"})

	require.True(t, changed)
	assert.Equal(t, "Echo", device.TXT["model"], "existing keys are not overwritten")
	assert.Equal(t, "2.0", device.TXT["fw"])
}

func TestMergeTXT_NoopOnEmptyInput(t *testing.T) {
	device := &models.DiscoveredDevice{}
	assert.False(t, mergeTXT(device, nil))
}

func TestMergeService_DedupesByKey(t *testing.T) {
	device := &models.DiscoveredDevice{
		Services: []models.ServiceDescriptor{{ServiceType: "_http._tcp", FullName: "a"}},
	}

	changed := mergeService(device, models.ServiceDescriptor{ServiceType: "_http._tcp", FullName: "a"})
	assert.False(t, changed)
	assert.Len(t, device.Services, 1)

	changed = mergeService(device, models.ServiceDescriptor{ServiceType: "_sonos._tcp", FullName: "b"})
	assert.True(t, changed)
	assert.Len(t, device.Services, 2)
}

func TestPrimaryIP_PrefersV4OverV6(t *testing.T) {
	entry := &mdns.ServiceEntry{AddrV4: mustIPv4(t, "10.0.0.5")}
	assert.Equal(t, "10.0.0.5", primaryIP(entry))

	entry = &mdns.ServiceEntry{}
	assert.Equal(t, "", primaryIP(entry))
}

func TestHandleEntry_FirstSightingEmitsDeviceFound(t *testing.T) {
	b := newMDNSBrowser(logger.NewNop())
	out := make(chan models.DiscoveryEvent, 1)

	entry := &mdns.ServiceEntry{Name: "device._http._tcp.local.", Host: "device.local", Port: 80, AddrV4: mustIPv4(t, "192.168.1.10")}

	b.handleEntry("_http._tcp", entry, out)

	ev := <-out
	require.Equal(t, models.EventDeviceFound, ev.EventType)
	require.NotNil(t, ev.Device)
	assert.Equal(t, "192.168.1.10", ev.Device.PrimaryIP)
	assert.Len(t, ev.Device.Services, 1)
}

func TestHandleEntry_RepeatSightingWithNoNewDataEmitsNothing(t *testing.T) {
	b := newMDNSBrowser(logger.NewNop())
	out := make(chan models.DiscoveryEvent, 2)

	entry := &mdns.ServiceEntry{Name: "device._http._tcp.local.", Host: "device.local", AddrV4: mustIPv4(t, "192.168.1.10")}

	b.handleEntry("_http._tcp", entry, out)
	<-out // drain the device_found event

	b.handleEntry("_http._tcp", entry, out)

	select {
	case ev := <-out:
		t.Fatalf("unexpected second event: %+v", ev)
	default:
	}
}

func mustIPv4(t *testing.T, s string) net.IP {
	t.Helper()

	ip := net.ParseIP(s)
	require.NotNil(t, ip)

	return ip
}
