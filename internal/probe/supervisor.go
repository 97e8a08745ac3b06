package probe

import (
	"context"
	"time"

	"github.com/pingwarden/pingwarden/internal/logger"
	"github.com/pingwarden/pingwarden/internal/models"
)

// Writer persists one metric row. Storage errors are logged and dropped;
// they never break the supervisor loop (spec.md §4.1/§7).
type Writer interface {
	Insert(row models.MetricRow) error
}

// SocketTypeSource is read once per burst so a hot-reloaded socket type
// takes effect without restarting the supervisor for unrelated reasons.
// In practice the reconciler always restarts supervisors on a socket type
// change (spec.md §4.4), but reading it live keeps the loop itself honest
// about where the setting comes from.
type SocketTypeSource func() models.SocketType

// Supervise runs the per-target probe loop described in spec.md §4.1: a
// burst of ping_count probes executed back to back, then a sleep of
// ping_interval seconds, forever until ctx is cancelled. The in-flight
// probe is allowed to complete (bounded by its own 2s timeout); no partial
// outcome is written after cancellation is observed.
func Supervise(
	ctx context.Context,
	target models.Target,
	socketType SocketTypeSource,
	w Writer,
	log logger.Logger,
) {
	target = target.WithDefaults()

	for {
		st := socketType()

		for seq := uint16(1); seq <= target.PingCount; seq++ {
			if ctx.Err() != nil {
				return
			}

			outcome := Execute(ctx, target.ID, target.Address, seq, target.Name, st)

			if ctx.Err() != nil {
				// Cancellation observed while probing: the in-flight probe
				// was allowed to complete, but its outcome is discarded.
				return
			}

			row := ToMetricRow(outcome)

			if err := w.Insert(row); err != nil {
				log.Error().Err(err).Str("target_id", target.ID).Msg("storage write failed")
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(target.PingInterval) * time.Second):
		}
	}
}
