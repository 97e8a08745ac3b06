package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pingwarden/pingwarden/internal/logger"
	"github.com/pingwarden/pingwarden/internal/models"
)

func TestMergeDevices_UnionsServicesAndAddresses(t *testing.T) {
	existing := &models.DiscoveredDevice{
		PrimaryIP:       "10.0.0.1",
		Addresses:       []string{"10.0.0.1"},
		Services:        []models.ServiceDescriptor{{ServiceType: "_http._tcp", FullName: "a"}},
		DiscoveryMethod: "mdns",
	}

	incoming := models.DiscoveredDevice{
		PrimaryIP:       "10.0.0.1",
		Addresses:       []string{"10.0.0.1", "fe80::1"},
		Services:        []models.ServiceDescriptor{{ServiceType: "_sonos._tcp", FullName: "b"}},
		DiscoveryMethod: "ip_scan:80",
	}

	changed := mergeDevices(existing, incoming)

	assert.True(t, changed)
	assert.Contains(t, existing.Addresses, "fe80::1")
	assert.Len(t, existing.Services, 2)
	assert.Equal(t, "mdns,ip_scan:80", existing.DiscoveryMethod)
}

func TestMergeDevices_NoChangeWhenDuplicate(t *testing.T) {
	existing := &models.DiscoveredDevice{
		PrimaryIP:       "10.0.0.1",
		Addresses:       []string{"10.0.0.1"},
		Services:        []models.ServiceDescriptor{{ServiceType: "_http._tcp", FullName: "a"}},
		DiscoveryMethod: "mdns",
	}

	incoming := models.DiscoveredDevice{
		PrimaryIP:       "10.0.0.1",
		Addresses:       []string{"10.0.0.1"},
		Services:        []models.ServiceDescriptor{{ServiceType: "_http._tcp", FullName: "a"}},
		DiscoveryMethod: "mdns",
	}

	changed := mergeDevices(existing, incoming)
	assert.False(t, changed)
}

func TestMergeDevices_PromotesNonIPName(t *testing.T) {
	existing := &models.DiscoveredDevice{PrimaryIP: "10.0.0.1", Name: "10.0.0.1"}
	incoming := models.DiscoveredDevice{PrimaryIP: "10.0.0.1", Name: "Kitchen Speaker"}

	changed := mergeDevices(existing, incoming)

	assert.True(t, changed)
	assert.Equal(t, "Kitchen Speaker", existing.Name)
}

func TestIsSonos(t *testing.T) {
	assert.True(t, IsSonos([]models.ServiceDescriptor{{ServiceType: "_sonos._tcp"}}))
	assert.False(t, IsSonos([]models.ServiceDescriptor{{ServiceType: "_http._tcp"}}))
}

// TestMerger_Run_WaitsForInFlightEnrichmentBeforeReturning proves run's
// ctx.Done() exit path blocks on enrichWG: if it didn't, RunCoordinator's
// deferred close(out) could run while maybeEnrich's goroutine is still
// about to send to out, panicking on a send to a closed channel.
func TestMerger_Run_WaitsForInFlightEnrichmentBeforeReturning(t *testing.T) {
	m := newMerger(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	out := make(chan models.DiscoveryEvent, 8)
	internal := make(chan models.DiscoveryEvent)

	m.enrichWG.Add(1)
	enrichDone := make(chan struct{})

	go func() {
		defer m.enrichWG.Done()
		<-enrichDone
	}()

	runReturned := make(chan struct{})

	go func() {
		m.run(ctx, internal, out)
		close(runReturned)
	}()

	cancel()

	select {
	case <-runReturned:
		t.Fatal("run returned while an enrichment goroutine was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(enrichDone)

	select {
	case <-runReturned:
	case <-time.After(time.Second):
		t.Fatal("run did not return once the in-flight enrichment finished")
	}
}
