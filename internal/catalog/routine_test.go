package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqldeck/pkg/errors"
)

const jackknifeSQL = `CREATE OR REPLACE FUNCTION telemetry.jackknife_sum_ci(n_buckets INT, counts ARRAY)
RETURNS OBJECT
AS 'SELECT 1';

SELECT assert.equals(100, telemetry.jackknife_sum_ci(4, [10, 20, 30, 40]):total);
SELECT assert.equals(0, telemetry.jackknife_sum_ci(1, [0]):total);
`

func TestParseRoutine(t *testing.T) {
	routine, err := ParseRoutine(jackknifeSQL, "telemetry", "jackknife_sum_ci")
	require.NoError(t, err)

	assert.Equal(t, "telemetry.jackknife_sum_ci", routine.Name)
	assert.Equal(t, "telemetry", routine.Dataset)
	assert.Equal(t, "jackknife_sum_ci", routine.LocalName)
	assert.Equal(t, "telemetry_jackknife_sum_ci", routine.TempName())
	assert.Len(t, routine.Definitions, 1)
	assert.Len(t, routine.Tests, 2)
}

func TestParseRoutineTempDefinition(t *testing.T) {
	sql := `CREATE TEMP FUNCTION telemetry_mode_last(arr ARRAY) RETURNS STRING AS 'SELECT 1';
SELECT telemetry_mode_last(['a', 'b']);`

	routine, err := ParseRoutine(sql, "telemetry", "mode_last")
	require.NoError(t, err)
	assert.Len(t, routine.Definitions, 1)
	assert.Len(t, routine.Tests, 1)
}

func TestParseRoutineErrors(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		dataset  string
		routine  string
		wantCode errors.ErrorCode
	}{
		{
			name:     "no definition",
			sql:      "SELECT 1",
			dataset:  "telemetry",
			routine:  "missing",
			wantCode: errors.ErrCodeCatalogParse,
		},
		{
			name:     "wrong function name",
			sql:      "CREATE OR REPLACE FUNCTION other.thing() RETURNS INT AS 'SELECT 1'",
			dataset:  "telemetry",
			routine:  "jackknife_sum_ci",
			wantCode: errors.ErrCodeCatalogParse,
		},
		{
			name:     "bad dataset name",
			sql:      jackknifeSQL,
			dataset:  "1telemetry",
			routine:  "jackknife_sum_ci",
			wantCode: errors.ErrCodeCatalogBadName,
		},
		{
			name:     "bad routine name",
			sql:      jackknifeSQL,
			dataset:  "telemetry",
			routine:  "has-dash",
			wantCode: errors.ErrCodeCatalogBadName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoutine(tt.sql, tt.dataset, tt.routine)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetErrorCode(err))
		})
	}
}

func TestParseRoutineFile(t *testing.T) {
	dir := t.TempDir()
	routineDir := filepath.Join(dir, "telemetry", "jackknife_sum_ci")
	require.NoError(t, os.MkdirAll(routineDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(routineDir, RoutineFile), []byte(jackknifeSQL), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(routineDir, MetadataFile),
		[]byte("description: Jackknife resampling CI for a sum\n"), 0o644))

	routine, err := ParseRoutineFile(filepath.Join(routineDir, RoutineFile))
	require.NoError(t, err)

	assert.Equal(t, "telemetry.jackknife_sum_ci", routine.Name)
	require.NotNil(t, routine.Metadata)
	assert.Equal(t, "Jackknife resampling CI for a sum", routine.Metadata.Description)
}
