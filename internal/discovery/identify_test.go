package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pingwarden/pingwarden/internal/models"
)

func TestIdentify_AirPlayDefaultsManufacturerToApple(t *testing.T) {
	device := models.DiscoveredDevice{
		Services: []models.ServiceDescriptor{{ServiceType: "_airplay._tcp", FullName: "Living Room._airplay._tcp.local."}},
	}

	info := Identify(device)
	assert.Equal(t, "Apple", info.Manufacturer)
}

func TestIdentify_VendorParserWinsOverServiceParser(t *testing.T) {
	device := models.DiscoveredDevice{
		Services: []models.ServiceDescriptor{{ServiceType: "_sonos._tcp"}},
		Vendor:   &models.VendorRecord{Vendor: "sonos-custom", Fields: map[string]string{}},
	}

	info := Identify(device)
	assert.Equal(t, "sonos-custom", info.Manufacturer)
}

func TestIdentify_GenericHTTPKeyword(t *testing.T) {
	device := models.DiscoveredDevice{
		Name:     "Office Printer",
		Services: []models.ServiceDescriptor{{ServiceType: "_http._tcp"}},
	}

	info := Identify(device)
	assert.Equal(t, "Printer", info.DeviceType)
}

func TestIdentify_IconHintFallsBackToDeviceType(t *testing.T) {
	device := models.DiscoveredDevice{
		Name:     "Kitchen Camera",
		Services: []models.ServiceDescriptor{{ServiceType: "_http._tcp"}},
	}

	info := Identify(device)
	assert.Equal(t, "camera", info.IconHint)
}
