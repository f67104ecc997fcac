package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	return NewManager(dir)
}

func TestCreateAndLoad(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("lab bench", "a test rig"))

	path := m.Path
	assert.Equal(t, filepath.Join(m.Dir(), "lab_bench.json"), path)
	assert.False(t, m.Dirty)

	loaded := NewManager(m.Dir())
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, "lab bench", loaded.Workspace.Name)
	assert.Equal(t, "a test rig", loaded.Workspace.Description)
	assert.False(t, loaded.Dirty)
}

func TestCreateRejectsCollision(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("dup", ""))
	err := m.Create("dup", "")
	assert.Error(t, err)
}

func TestSaveOverwriteCurrentRequiresPath(t *testing.T) {
	m := newTestManager(t)
	err := m.SaveOverwriteCurrent()
	assert.Error(t, err)
}

func TestSaveAsThenScanLists(t *testing.T) {
	m := newTestManager(t)
	m.Workspace.Plugins = []PluginDefinition{{ID: 1, Kind: "csv_recorder"}, {ID: 2, Kind: "live_plotter"}}
	require.NoError(t, m.SaveAs("bench a", "desc"))

	require.NoError(t, m.Scan())
	entries := m.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "bench a", entries[0].Name)
	assert.Equal(t, 2, entries[0].PluginCount)
	assert.ElementsMatch(t, []string{"csv_recorder", "live_plotter"}, entries[0].PluginKinds)
}

func TestRenameMovesFile(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("old name", ""))
	oldPath := m.Path

	require.NoError(t, m.Rename("new name"))
	assert.Equal(t, "new name", m.Workspace.Name)
	_, err := os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(m.Path)
	assert.NoError(t, err)
}

func TestDeleteResetsCurrentWorkspace(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("gone soon", ""))

	require.NoError(t, m.Delete("gone soon"))
	assert.Equal(t, "default", m.Workspace.Name)
	assert.Empty(t, m.Path)
	assert.True(t, m.Dirty)
}

func TestDeleteMissingWorkspace(t *testing.T) {
	m := newTestManager(t)
	err := m.Delete("does not exist")
	assert.Error(t, err)
}

func TestImportRejectsNameCollision(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("existing", ""))

	srcDir := t.TempDir()
	srcPath := filepath.Join(srcDir, "import.json")
	require.NoError(t, os.WriteFile(srcPath, []byte(`{"name":"existing","settings":{"frequency_value":1,"frequency_unit":"khz","period_value":1,"period_unit":"ms","selected_cores":[0],"max_integration_steps":1}}`), 0o644))

	err := m.Import(srcPath)
	assert.Error(t, err)
}
