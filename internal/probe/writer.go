package probe

import (
	"strconv"

	"github.com/pingwarden/pingwarden/internal/models"
)

// ToMetricRow maps a ProbeOutcome to the one row it produces, per spec.md
// §4.2: success writes ping_latency with the measured value; failure writes
// ping_failed with value 0.
func ToMetricRow(o models.ProbeOutcome) models.MetricRow {
	metric := models.MetricPingFailed
	value := 0.0

	if o.Success {
		metric = models.MetricPingLatency

		if o.LatencyMs != nil {
			value = *o.LatencyMs
		}
	}

	labels := []models.Label{
		{Name: models.LabelTarget, Value: o.TargetAddress},
		{Name: models.LabelSequence, Value: strconv.Itoa(int(o.Sequence))},
		{Name: models.LabelTargetID, Value: o.TargetID},
	}

	if o.TargetName != "" {
		labels = append(labels, models.Label{Name: models.LabelTargetName, Value: o.TargetName})
	}

	return models.MetricRow{
		MetricName: metric,
		Labels:     labels,
		Timestamp:  o.Timestamp.UnixMilli(),
		Value:      value,
	}
}
