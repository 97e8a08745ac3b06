package discovery

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pingwarden/pingwarden/internal/models"
)

// VendorEnrichmentTimeout bounds the total time a vendor-enrichment HTTP
// round trip may take, per spec.md §5.
const VendorEnrichmentTimeout = 3 * time.Second

// SonosServiceType identifies devices eligible for Sonos enrichment.
const SonosServiceType = "_sonos._tcp"

type sonosZoneStatus struct {
	XMLName            xml.Name `xml:"ZPSupportInfo"`
	ZoneName           string   `xml:"ZoneName"`
	LocalUID           string   `xml:"LocalUID"`
	SerialNumber       string   `xml:"SerialNumber"`
	SoftwareVersion    string   `xml:"SoftwareVersion"`
	HardwareVersion    string   `xml:"HardwareVersion"`
	SeriesID           string   `xml:"SeriesID"`
	IPAddress          string   `xml:"IPAddress"`
	MACAddress         string   `xml:"MACAddress"`
	HouseholdControlID string   `xml:"HouseholdControlID"`
}

type sonosDeviceDescription struct {
	XMLName xml.Name `xml:"root"`
	Device  struct {
		DisplayName   string `xml:"displayName"`
		ModelName     string `xml:"modelName"`
		ModelNumber   string `xml:"modelNumber"`
		ModelURL      string `xml:"modelURL"`
		APIVersion    string `xml:"apiVersion"`
		DisplayVersion string `xml:"displayVersion"`
		ZoneType      string `xml:"zoneType"`
		IconList      struct {
			Icon []struct {
				URL string `xml:"url"`
			} `xml:"icon"`
		} `xml:"iconList"`
	} `xml:"device"`
}

// IsSonos reports whether any of the given services is a Sonos service,
// per spec.md §4.9's vendor-detection rule.
func IsSonos(services []models.ServiceDescriptor) bool {
	for _, s := range services {
		if strings.Contains(s.ServiceType, "_sonos") {
			return true
		}
	}

	return false
}

// EnrichSonos performs the two-GET Sonos vendor probe described in
// spec.md §6: the zone status fetch is mandatory, the device-description
// fetch is best-effort and its failure does not fail the call.
func EnrichSonos(ctx context.Context, ip string) (models.VendorRecord, error) {
	client := &http.Client{Timeout: VendorEnrichmentTimeout}

	status, err := fetchSonosStatus(ctx, client, ip)
	if err != nil {
		return models.VendorRecord{}, fmt.Errorf("fetch sonos status: %w", err)
	}

	if status.ZoneName == "" {
		return models.VendorRecord{}, fmt.Errorf("sonos status missing ZoneName")
	}

	fields := map[string]string{
		"zone_name":            status.ZoneName,
		"local_uid":            status.LocalUID,
		"serial_number":        status.SerialNumber,
		"software_version":     status.SoftwareVersion,
		"hardware_version":     status.HardwareVersion,
		"series_id":            status.SeriesID,
		"ip_address":           status.IPAddress,
		"mac_address":          status.MACAddress,
		"household_control_id": status.HouseholdControlID,
	}

	desc, descErr := fetchSonosDescription(ctx, client, ip)
	if descErr == nil {
		displayName := desc.Device.DisplayName
		if displayName == "" {
			displayName = strings.TrimPrefix(desc.Device.ModelName, "Sonos ")
		}

		fields["display_name"] = displayName
		fields["model_number"] = desc.Device.ModelNumber
		fields["model_url"] = desc.Device.ModelURL
		fields["api_version"] = desc.Device.APIVersion
		fields["display_version"] = desc.Device.DisplayVersion

		if zt, err := strconv.Atoi(desc.Device.ZoneType); err == nil {
			fields["zone_type"] = strconv.Itoa(zt)
		}

		if len(desc.Device.IconList.Icon) > 0 {
			fields["icon_url"] = desc.Device.IconList.Icon[0].URL
		}
	}

	return models.VendorRecord{Vendor: "sonos", Fields: fields}, nil
}

func fetchSonosStatus(ctx context.Context, client *http.Client, ip string) (sonosZoneStatus, error) {
	url := fmt.Sprintf("http://%s:1400/status/zp", ip)

	var status sonosZoneStatus
	if err := getXML(ctx, client, url, &status); err != nil {
		return sonosZoneStatus{}, err
	}

	return status, nil
}

func fetchSonosDescription(ctx context.Context, client *http.Client, ip string) (sonosDeviceDescription, error) {
	url := fmt.Sprintf("http://%s:1400/xml/device_description.xml", ip)

	var desc sonosDeviceDescription
	if err := getXML(ctx, client, url, &desc); err != nil {
		return sonosDeviceDescription{}, err
	}

	return desc, nil
}

func getXML(ctx context.Context, client *http.Client, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return xml.NewDecoder(resp.Body).Decode(target)
}
