// Package models holds the shared data types for pingwarden: configured
// probe targets, probe outcomes, metric rows, and discovered devices.
package models

const (
	// DefaultPingCount is used when a target omits ping_count.
	DefaultPingCount uint16 = 3
	// DefaultPingInterval is used when a target omits ping_interval, in seconds.
	DefaultPingInterval uint64 = 1
)

// SocketType selects the ICMP socket implementation used by every supervisor.
type SocketType string

const (
	SocketDgram SocketType = "dgram"
	SocketRaw   SocketType = "raw"
)

// Target is a configured probe destination. Identity is ID, which is stable
// across edits and is the sole join key with storage labels.
type Target struct {
	ID           string `json:"id" toml:"id"`
	Address      string `json:"address" toml:"address"`
	Name         string `json:"name,omitempty" toml:"name,omitempty"`
	PingCount    uint16 `json:"ping_count" toml:"ping_count,omitempty"`
	PingInterval uint64 `json:"ping_interval" toml:"ping_interval,omitempty"`
}

// WithDefaults returns a copy of t with zero-valued optional fields filled in.
func (t Target) WithDefaults() Target {
	if t.PingCount == 0 {
		t.PingCount = DefaultPingCount
	}

	if t.PingInterval == 0 {
		t.PingInterval = DefaultPingInterval
	}

	return t
}

// ServerConfig is the [server] section of the config file.
type ServerConfig struct {
	Host             string `json:"host" toml:"host"`
	Port             int    `json:"port" toml:"port"`
	IngressOnly      bool   `json:"ingress_only" toml:"home_assistant_ingress_only"`
}

// LoggingConfig is the [logging] section of the config file.
type LoggingConfig struct {
	Level string `json:"level" toml:"level"`
	File  string `json:"file" toml:"file"`
}

// DatabaseConfig is the [database] section of the config file.
type DatabaseConfig struct {
	Path string `json:"path" toml:"path"`
}

// PingConfig is the [ping] section of the config file.
type PingConfig struct {
	SocketType SocketType `json:"socket_type" toml:"socket_type"`
}

// AppConfig is the typed view over the on-disk document. The file is the
// source of truth; this is a cache guarded by a single readers-writer lock.
type AppConfig struct {
	Server   ServerConfig    `json:"server" toml:"server"`
	Logging  LoggingConfig   `json:"logging" toml:"logging"`
	Database DatabaseConfig  `json:"database" toml:"database"`
	Ping     PingConfig      `json:"ping" toml:"ping"`
	Targets  []Target        `json:"targets" toml:"targets"`
}

// TargetByID returns the target with the given id, if present.
func (c *AppConfig) TargetByID(id string) (Target, bool) {
	for _, t := range c.Targets {
		if t.ID == id {
			return t, true
		}
	}

	return Target{}, false
}
