package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCatalogFile(t *testing.T, root, dataset, name, file, content string) {
	t.Helper()
	dir := filepath.Join(root, dataset, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
}

func TestValidateCommand(t *testing.T) {
	root := t.TempDir()
	writeCatalogFile(t, root, "util", "identity", "udf.sql",
		"CREATE OR REPLACE FUNCTION util.identity(x FLOAT) RETURNS FLOAT AS 'x';\n"+
			"SELECT util.identity(1);\n")
	writeCatalogFile(t, root, "telemetry", "daily", "view.sql",
		"CREATE OR REPLACE VIEW telemetry.daily AS SELECT 1 AS n;\n")

	err := runValidate(validateCmd, []string{root})
	require.NoError(t, err)
}

func TestValidateCommandBadView(t *testing.T) {
	root := t.TempDir()
	writeCatalogFile(t, root, "telemetry", "daily", "view.sql", "SELECT 1;\n")

	err := runValidate(validateCmd, []string{root})
	require.Error(t, err)
}
