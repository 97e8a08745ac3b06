package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingwarden/pingwarden/internal/models"
)

const sampleTOML = `
[server]
host = "127.0.0.1"
port = 8080

[[targets]]
id = "a"
address = "127.0.0.1"
`

func TestDocument_AddThenRemove_RoundTrips(t *testing.T) {
	doc, err := LoadDocument([]byte(sampleTOML))
	require.NoError(t, err)

	before, err := doc.Bytes()
	require.NoError(t, err)

	added, err := doc.AddTarget(models.Target{Address: "8.8.8.8"}, func() string { return "generated-id" })
	require.NoError(t, err)
	assert.Equal(t, "generated-id", added.ID)

	require.NoError(t, doc.RemoveTarget("generated-id"))

	after, err := doc.Bytes()
	require.NoError(t, err)

	assert.Equal(t, string(before), string(after))
}

func TestDocument_UpdateTarget_UnknownID(t *testing.T) {
	doc, err := LoadDocument([]byte(sampleTOML))
	require.NoError(t, err)

	err = doc.UpdateTarget(models.Target{ID: "missing", Address: "1.2.3.4"})
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestDocument_FillBlankTargetIDs_AssignsInOrder(t *testing.T) {
	doc, err := LoadDocument([]byte(`
[[targets]]
address = "1.1.1.1"

[[targets]]
id = "kept"
address = "2.2.2.2"

[[targets]]
address = "3.3.3.3"
`))
	require.NoError(t, err)

	ids := []string{"first", "second"}
	next := 0

	changed := doc.FillBlankTargetIDs(func() string {
		id := ids[next]
		next++
		return id
	})
	assert.True(t, changed)

	cfg, err := doc.Typed()
	require.NoError(t, err)
	require.Len(t, cfg.Targets, 3)
	assert.Equal(t, "first", cfg.Targets[0].ID)
	assert.Equal(t, "kept", cfg.Targets[1].ID)
	assert.Equal(t, "second", cfg.Targets[2].ID)
}

func TestDocument_FillBlankTargetIDs_NoopWhenAllPresent(t *testing.T) {
	doc, err := LoadDocument([]byte(sampleTOML))
	require.NoError(t, err)

	changed := doc.FillBlankTargetIDs(func() string { return "unused" })
	assert.False(t, changed)
}

func TestDocument_Typed_DecodesTargets(t *testing.T) {
	doc, err := LoadDocument([]byte(sampleTOML))
	require.NoError(t, err)

	cfg, err := doc.Typed()
	require.NoError(t, err)

	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, "127.0.0.1", cfg.Targets[0].Address)
	assert.Equal(t, 8080, cfg.Server.Port)
}
