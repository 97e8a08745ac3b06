package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingwarden/pingwarden/internal/models"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestEditor_AddUpdateRemove(t *testing.T) {
	path := writeTempConfig(t, sampleTOML)
	editor := NewEditor(path)

	added, err := editor.AddTarget(models.Target{Address: "8.8.8.8"})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)

	doc, err := editor.Read()
	require.NoError(t, err)

	cfg, err := doc.Typed()
	require.NoError(t, err)
	assert.Len(t, cfg.Targets, 2)

	added.Name = "Google DNS"
	require.NoError(t, editor.UpdateTarget(added))

	doc, err = editor.Read()
	require.NoError(t, err)
	cfg, err = doc.Typed()
	require.NoError(t, err)

	updated, ok := cfg.TargetByID(added.ID)
	require.True(t, ok)
	assert.Equal(t, "Google DNS", updated.Name)

	require.NoError(t, editor.RemoveTarget(added.ID))

	doc, err = editor.Read()
	require.NoError(t, err)
	cfg, err = doc.Typed()
	require.NoError(t, err)
	assert.Len(t, cfg.Targets, 1)
}

func TestEditor_CommitDocument_PersistsBlankIDFill(t *testing.T) {
	path := writeTempConfig(t, "[[targets]]\naddress = \"1.1.1.1\"\n")
	editor := NewEditor(path)

	doc, err := editor.Read()
	require.NoError(t, err)

	require.True(t, doc.FillBlankTargetIDs(func() string { return "generated" }))
	require.NoError(t, editor.CommitDocument(doc))

	reread, err := editor.Read()
	require.NoError(t, err)

	cfg, err := reread.Typed()
	require.NoError(t, err)
	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, "generated", cfg.Targets[0].ID)
}

func TestEditor_WriteSetsAndClearsInProgressFlag(t *testing.T) {
	path := writeTempConfig(t, sampleTOML)
	editor := NewEditor(path)

	_, err := editor.AddTarget(models.Target{Address: "1.1.1.1"})
	require.NoError(t, err)

	assert.False(t, WriteInProgress())
}
