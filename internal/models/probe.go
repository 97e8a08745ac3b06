package models

import "time"

// ProbeOutcome is the result of one ICMP echo attempt for one target.
type ProbeOutcome struct {
	Timestamp     time.Time
	TargetID      string
	TargetAddress string
	TargetName    string
	Sequence      uint16
	Success       bool
	LatencyMs     *float64
}

const (
	// MetricPingLatency is the stream a successful probe is written to.
	MetricPingLatency = "ping_latency"
	// MetricPingFailed is the stream a failed probe is written to.
	MetricPingFailed = "ping_failed"
)

// LabelTarget, LabelTargetID, LabelSequence, and LabelTargetName are the
// well-known label keys carried on every metric row (spec.md §4.2).
const (
	LabelTarget     = "target"
	LabelTargetID   = "target_id"
	LabelSequence   = "sequence"
	LabelTargetName = "target_name"
)

// MetricRow is the contract with the embedded time-series store.
type MetricRow struct {
	MetricName string
	Labels     []Label
	Timestamp  int64 // milliseconds since epoch
	Value      float64
}

// Label is a single key/value annotation on a metric row.
type Label struct {
	Name  string
	Value string
}

// LabelValue returns the value of the first label with the given name.
func (r MetricRow) LabelValue(name string) (string, bool) {
	for _, l := range r.Labels {
		if l.Name == name {
			return l.Value, true
		}
	}

	return "", false
}
