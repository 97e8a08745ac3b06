package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pingwarden/pingwarden/internal/models"
)

func TestDiff_DetectsRemovedChangedAdded(t *testing.T) {
	oldCfg := &models.AppConfig{
		Targets: []models.Target{
			{ID: "a", Address: "1.1.1.1"},
			{ID: "b", Address: "2.2.2.2"},
		},
	}

	newCfg := &models.AppConfig{
		Targets: []models.Target{
			{ID: "a", Address: "1.1.1.1", Name: "renamed"},
			{ID: "c", Address: "3.3.3.3"},
		},
	}

	d := Diff(oldCfg, newCfg)

	assert.Len(t, d.Removed, 1)
	assert.Equal(t, "b", d.Removed[0].ID)

	assert.Len(t, d.Changed, 1)
	assert.Equal(t, "a", d.Changed[0].ID)

	assert.Len(t, d.Added, 1)
	assert.Equal(t, "c", d.Added[0].ID)

	assert.False(t, d.SocketTypeChanged)
}

func TestDiff_SocketTypeChangeRestartsAllSurvivingTargets(t *testing.T) {
	oldCfg := &models.AppConfig{
		Ping: models.PingConfig{SocketType: models.SocketDgram},
		Targets: []models.Target{
			{ID: "a", Address: "1.1.1.1"},
			{ID: "b", Address: "2.2.2.2"},
		},
	}

	newCfg := &models.AppConfig{
		Ping: models.PingConfig{SocketType: models.SocketRaw},
		Targets: []models.Target{
			{ID: "a", Address: "1.1.1.1"},
			{ID: "b", Address: "2.2.2.2"},
		},
	}

	d := Diff(oldCfg, newCfg)

	assert.True(t, d.SocketTypeChanged)
	assert.Len(t, d.Changed, 2)
}

func TestDiff_NoChanges(t *testing.T) {
	cfg := &models.AppConfig{
		Targets: []models.Target{{ID: "a", Address: "1.1.1.1"}},
	}

	d := Diff(cfg, cfg)

	assert.Empty(t, d.Removed)
	assert.Empty(t, d.Changed)
	assert.Empty(t, d.Added)
	assert.False(t, d.SocketTypeChanged)
}
