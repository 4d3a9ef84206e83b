package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDefinition(t *testing.T, root, dataset, name, file, content string) {
	t.Helper()
	dir := filepath.Join(root, dataset, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	root := t.TempDir()

	writeDefinition(t, root, "util", "mode", RoutineFile,
		"CREATE OR REPLACE FUNCTION util.mode(arr ARRAY) RETURNS INT AS 'SELECT 1';")
	writeDefinition(t, root, "telemetry", "jackknife_sum_ci", RoutineFile,
		"CREATE OR REPLACE FUNCTION telemetry.jackknife_sum_ci(n INT, counts ARRAY) RETURNS OBJECT AS 'SELECT util.mode(counts)';")
	writeDefinition(t, root, "telemetry", "usage_daily", ViewFile,
		"CREATE OR REPLACE VIEW telemetry.usage_daily AS SELECT 1;")
	writeDefinition(t, root, "telemetry", "usage_daily", MetadataFile, scheduledMetadata)

	// examples directories are reference material, not definitions
	writeDefinition(t, root, "telemetry", "jackknife_sum_ci", "notes.sql", "SELECT broken")
	exampleDirPath := filepath.Join(root, "telemetry", "jackknife_sum_ci", exampleDir)
	require.NoError(t, os.MkdirAll(exampleDirPath, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(exampleDirPath, RoutineFile), []byte("not sql"), 0o644))

	cat, err := Load(root, nil)
	require.NoError(t, err)

	assert.Len(t, cat.Routines, 2)
	assert.Len(t, cat.Views, 1)
	assert.Equal(t, []string{"telemetry", "util"}, cat.Datasets())

	jackknife := cat.Routines["telemetry.jackknife_sum_ci"]
	require.NotNil(t, jackknife)
	assert.Equal(t, []string{"util.mode"}, jackknife.Dependencies)

	view := cat.Views[0]
	assert.Equal(t, "telemetry.usage_daily", view.Name)
	require.NotNil(t, view.Metadata)
	require.NotNil(t, view.Metadata.Scheduling)

	scheduled := cat.Scheduled()
	require.Len(t, scheduled, 1)
	assert.Equal(t, "telemetry.usage_daily", scheduled[0].Name)
}

func TestLoadDatasetFilter(t *testing.T) {
	root := t.TempDir()

	writeDefinition(t, root, "util", "mode", RoutineFile,
		"CREATE OR REPLACE FUNCTION util.mode() RETURNS INT AS 'SELECT 1';")
	writeDefinition(t, root, "telemetry", "usage_daily", ViewFile,
		"CREATE OR REPLACE VIEW telemetry.usage_daily AS SELECT 1;")

	cat, err := Load(root, []string{"util"})
	require.NoError(t, err)

	assert.Len(t, cat.Routines, 1)
	assert.Empty(t, cat.Views)
}

func TestLoadDuplicateRoutine(t *testing.T) {
	root := t.TempDir()

	def := "CREATE OR REPLACE FUNCTION util.mode() RETURNS INT AS 'SELECT 1';"
	writeDefinition(t, root, "util", "mode", RoutineFile, def)

	// same qualified name reachable through a second tree
	writeDefinition(t, filepath.Join(root, "copy"), "util", "mode", RoutineFile, def)

	_, err := Load(root, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined in both")
}

func TestLoadReportsAllBrokenDefinitions(t *testing.T) {
	root := t.TempDir()

	writeDefinition(t, root, "util", "mode", RoutineFile,
		"SELECT no_function_here;")
	writeDefinition(t, root, "telemetry", "bad_view", ViewFile, "SELECT 1;")
	writeDefinition(t, root, "telemetry", "good_view", ViewFile,
		"CREATE OR REPLACE VIEW telemetry.good_view AS SELECT 1;")

	_, err := Load(root, nil)
	require.Error(t, err)

	// one run reports every broken definition, not just the first
	assert.Contains(t, err.Error(), "2 definition(s) failed to parse")
	assert.Contains(t, err.Error(), filepath.Join("util", "mode"))
	assert.Contains(t, err.Error(), "CREATE OR REPLACE VIEW")
}

func TestLoadMissingRoot(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"), nil)
	require.Error(t, err)
}

func TestLoadInvalidView(t *testing.T) {
	root := t.TempDir()
	writeDefinition(t, root, "telemetry", "bad_view", ViewFile, "SELECT 1;")

	_, err := Load(root, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CREATE OR REPLACE VIEW")
}
