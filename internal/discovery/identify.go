package discovery

import (
	"strconv"
	"strings"

	"github.com/pingwarden/pingwarden/internal/models"
)

var homekitCategories = map[string]string{
	"1":  "Other",
	"2":  "Bridge",
	"3":  "Fan",
	"4":  "Garage Door Opener",
	"5":  "Lighting",
	"7":  "Door Lock",
	"8":  "Outlet",
	"9":  "Switch",
	"10": "Thermostat",
	"12": "Security System",
	"17": "Camera",
	"28": "Speaker",
}

var shellyModels = map[string]string{
	"SHSW-1":  "Shelly 1",
	"SHSW-25": "Shelly 2.5",
	"SHPLG-S": "Shelly Plug S",
	"SHDM-2":  "Shelly Dimmer 2",
}

var hueModels = map[string]string{
	"BSB002": "Hue Bridge",
	"LCT001": "Hue White and Color A19",
	"LWB010": "Hue White A19",
}

var xiaomiPrefixes = map[string]string{
	"yeelink": "Yeelight",
	"lumi":    "Aqara",
	"chuangmi": "Mi",
}

var genericKeywords = []string{"printer", "router", "camera", "tv", "nas"}

// Identify is the pure device-identification function described in
// spec.md §4.10: vendor parser first, then per-service parser by
// service-type substring, then generic TXT parsing. Earlier parsers win
// per field; unset fields fall through to later ones.
func Identify(device models.DiscoveredDevice) models.DeviceInfo {
	var info models.DeviceInfo

	if device.Vendor != nil {
		fillFromVendor(&info, *device.Vendor)
	}

	for _, svc := range device.Services {
		fillFromService(&info, svc, device)
	}

	fillFromTXT(&info, device.TXT)

	fillIconHint(&info)

	return info
}

func fillFromVendor(info *models.DeviceInfo, v models.VendorRecord) {
	setIfEmpty(&info.Manufacturer, v.Vendor)
	setIfEmpty(&info.FriendlyName, v.Fields["zone_name"])
	setIfEmpty(&info.Model, v.Fields["model"])
	setIfEmpty(&info.MACAddress, v.Fields["mac_address"])
	setIfEmpty(&info.FirmwareVersion, v.Fields["software_version"])
}

func fillFromService(info *models.DeviceInfo, svc models.ServiceDescriptor, device models.DiscoveredDevice) {
	t := strings.ToLower(svc.ServiceType)
	name := strings.ToLower(device.Name)
	if name == "" {
		name = strings.ToLower(svc.FullName)
	}

	switch {
	case strings.Contains(t, "_hap") || strings.Contains(t, "_homekit"):
		if cat, ok := device.TXT["ci"]; ok {
			setIfEmpty(&info.DeviceType, homekitCategories[cat])
		}

	case strings.Contains(t, "_airplay") || strings.Contains(t, "_raop"):
		setIfEmpty(&info.Manufacturer, "Apple")

	case strings.Contains(t, "_googlecast"):
		setIfEmpty(&info.Manufacturer, "Google")
		setIfEmpty(&info.DeviceType, "Cast")

	case strings.Contains(t, "_ipp") || strings.Contains(t, "_printer") || strings.Contains(t, "_pdl-datastream"):
		setIfEmpty(&info.DeviceType, "Printer")

	case strings.Contains(t, "_sonos"):
		setIfEmpty(&info.Manufacturer, "Sonos")
		setIfEmpty(&info.DeviceType, "Speaker")

	case strings.Contains(t, "_shelly"):
		setIfEmpty(&info.Manufacturer, "Shelly")

		if model, ok := device.TXT["model"]; ok {
			setIfEmpty(&info.Model, shellyModels[model])
		}

	case strings.Contains(t, "_esphomelib"):
		setIfEmpty(&info.Manufacturer, "ESPHome")

	case strings.Contains(t, "spotify-connect"):
		setIfEmpty(&info.DeviceType, "Spotify Connect")

	case strings.Contains(t, "_hue"):
		setIfEmpty(&info.Manufacturer, "Philips Hue")

		if modelID, ok := device.TXT["modelid"]; ok {
			if model, known := hueModels[modelID]; known {
				setIfEmpty(&info.Model, model)
			}
		}

		if info.Model == "" {
			setIfEmpty(&info.Model, device.Name)
		}

	case strings.Contains(t, "wiz"):
		setIfEmpty(&info.Manufacturer, "WiZ")

	case strings.Contains(t, "_miio"):
		for prefix, brand := range xiaomiPrefixes {
			if strings.HasPrefix(name, prefix) {
				setIfEmpty(&info.Manufacturer, brand)
				break
			}
		}

	case strings.Contains(t, "aqara"):
		setIfEmpty(&info.Manufacturer, "Aqara")

		switch {
		case strings.Contains(name, "motion"):
			setIfEmpty(&info.DeviceType, "Motion Sensor")
		case strings.Contains(name, "door") || strings.Contains(name, "window"):
			setIfEmpty(&info.DeviceType, "Contact Sensor")
		case strings.Contains(name, "hub"):
			setIfEmpty(&info.DeviceType, "Hub")
		}

	case strings.Contains(t, "_http") || strings.Contains(t, "_https"):
		for _, keyword := range genericKeywords {
			if strings.Contains(name, keyword) {
				setIfEmpty(&info.DeviceType, capitalize(keyword))
				break
			}
		}
	}
}

func fillFromTXT(info *models.DeviceInfo, txt map[string]string) {
	if txt == nil {
		return
	}

	if mac, ok := txt["mac"]; ok {
		setIfEmpty(&info.MACAddress, mac)
	}

	if fw, ok := txt["fw"]; ok {
		setIfEmpty(&info.FirmwareVersion, fw)
	} else if fw, ok := txt["fw_ver"]; ok {
		setIfEmpty(&info.FirmwareVersion, fw)
	}

	if name, ok := txt["fn"]; ok {
		setIfEmpty(&info.FriendlyName, name)
	}

	if cat, ok := txt["ci"]; ok {
		if _, err := strconv.Atoi(cat); err == nil {
			setIfEmpty(&info.DeviceType, homekitCategories[cat])
		}
	}
}

func fillIconHint(info *models.DeviceInfo) {
	if info.IconHint != "" {
		return
	}

	if info.Manufacturer != "" {
		info.IconHint = strings.ToLower(info.Manufacturer)
		return
	}

	if info.DeviceType != "" {
		info.IconHint = strings.ToLower(info.DeviceType)
	}
}

func setIfEmpty(field *string, value string) {
	if *field == "" && value != "" {
		*field = value
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
