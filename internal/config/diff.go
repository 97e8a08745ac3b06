package config

import "github.com/pingwarden/pingwarden/internal/models"

// Delta is the result of comparing two AppConfig snapshots by target id,
// per spec.md §4.4.
type Delta struct {
	Removed           []models.Target // present in old, absent in new
	Changed           []models.Target // present in both, some field differs (new value)
	Added             []models.Target // present only in new
	SocketTypeChanged bool
}

// Diff computes the delta between an old and new AppConfig, compared by
// target id.
func Diff(oldCfg, newCfg *models.AppConfig) Delta {
	oldByID := make(map[string]models.Target, len(oldCfg.Targets))
	for _, t := range oldCfg.Targets {
		oldByID[t.ID] = t
	}

	newByID := make(map[string]models.Target, len(newCfg.Targets))
	for _, t := range newCfg.Targets {
		newByID[t.ID] = t
	}

	var d Delta

	for id, ot := range oldByID {
		nt, ok := newByID[id]
		if !ok {
			d.Removed = append(d.Removed, ot)
			continue
		}

		if nt != ot {
			d.Changed = append(d.Changed, nt)
		}
	}

	for id, nt := range newByID {
		if _, ok := oldByID[id]; !ok {
			d.Added = append(d.Added, nt)
		}
	}

	d.SocketTypeChanged = oldCfg.Ping.SocketType != newCfg.Ping.SocketType

	if d.SocketTypeChanged {
		// Every still-running target must restart with the new socket type,
		// even if no field of the target itself changed.
		changedIDs := make(map[string]struct{}, len(d.Changed))
		for _, t := range d.Changed {
			changedIDs[t.ID] = struct{}{}
		}

		for id, nt := range newByID {
			if _, presentInOld := oldByID[id]; !presentInOld {
				continue
			}

			if _, alreadyChanged := changedIDs[id]; alreadyChanged {
				continue
			}

			d.Changed = append(d.Changed, nt)
		}
	}

	return d
}
