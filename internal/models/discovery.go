package models

import "time"

// ServiceDescriptor is one mDNS/DNS-SD service instance observed on a device.
type ServiceDescriptor struct {
	ServiceType string `json:"service_type"`
	FullName    string `json:"full_name"`
	Port        int    `json:"port,omitempty"`
}

// Key identifies a ServiceDescriptor for dedup purposes: (service_type, fullname).
func (s ServiceDescriptor) Key() string {
	return s.ServiceType + "|" + s.FullName
}

// VendorRecord holds the result of vendor-specific enrichment (e.g. Sonos).
type VendorRecord struct {
	Vendor string                 `json:"vendor"`
	Fields map[string]string      `json:"fields"`
	Raw    map[string]interface{} `json:"raw,omitempty"`
}

// DiscoveredDevice is keyed by primary IPv4 (or first IPv6 if none present),
// with accumulated service descriptors, merged TXT attributes, a
// discovery-method trail, and an optional vendor record.
type DiscoveredDevice struct {
	PrimaryIP       string              `json:"primary_ip"`
	Addresses       []string            `json:"addresses"`
	Hostname        string              `json:"hostname,omitempty"`
	Name            string              `json:"name,omitempty"`
	Services        []ServiceDescriptor `json:"services"`
	TXT             map[string]string   `json:"txt,omitempty"`
	DiscoveryMethod string              `json:"discovery_method"`
	FirstSeen       time.Time           `json:"first_seen"`
	LastSeen        time.Time           `json:"last_seen"`
	Vendor          *VendorRecord       `json:"vendor,omitempty"`
}

// DeviceInfo is the output of device identification: manufacturer, model,
// device type, and any other identity fields a parser could infer.
type DeviceInfo struct {
	Manufacturer    string `json:"manufacturer,omitempty"`
	Model           string `json:"model,omitempty"`
	DeviceType      string `json:"device_type,omitempty"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
	MACAddress      string `json:"mac_address,omitempty"`
	FriendlyName    string `json:"friendly_name,omitempty"`
	IconHint        string `json:"icon_hint,omitempty"`
}

// IdentifiedDevice is a DiscoveredDevice enriched with a parsed DeviceInfo
// and the raw discovery payload that produced it.
type IdentifiedDevice struct {
	DiscoveredDevice
	Info       DeviceInfo             `json:"info"`
	RawPayload map[string]interface{} `json:"raw_payload,omitempty"`
}

// DiscoveryEventType enumerates the SSE event kinds emitted by the unified
// discovery coordinator.
type DiscoveryEventType string

const (
	EventStarted        DiscoveryEventType = "started"
	EventDeviceFound     DiscoveryEventType = "device_found"
	EventDeviceUpdated   DiscoveryEventType = "device_updated"
	EventCompleted       DiscoveryEventType = "completed"
	EventError           DiscoveryEventType = "error"
)

// DiscoveryEvent is one JSON object in the server-sent-event stream.
type DiscoveryEvent struct {
	EventType   DiscoveryEventType `json:"event_type"`
	Device      *IdentifiedDevice  `json:"device,omitempty"`
	DeviceCount int                `json:"device_count,omitempty"`
	Message     string             `json:"message,omitempty"`
}
