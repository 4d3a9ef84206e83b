package gitdiff

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitAll(t *testing.T, wt *git.Worktree, msg string) string {
	t.Helper()
	require.NoError(t, wt.AddGlob("."))
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestChangedDefinitions(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	writeFile(t, dir, "telemetry/jackknife_sum_ci/udf.sql", "CREATE OR REPLACE FUNCTION telemetry.jackknife_sum_ci() RETURNS INT AS 'SELECT 1';")
	writeFile(t, dir, "telemetry/usage_daily/view.sql", "CREATE OR REPLACE VIEW telemetry.usage_daily AS SELECT 1;")
	writeFile(t, dir, "README.md", "docs")
	base := commitAll(t, wt, "initial definitions")

	// modify one definition, add metadata, touch an unrelated file
	writeFile(t, dir, "telemetry/jackknife_sum_ci/udf.sql", "CREATE OR REPLACE FUNCTION telemetry.jackknife_sum_ci() RETURNS INT AS 'SELECT 2';")
	writeFile(t, dir, "telemetry/usage_daily/metadata.yaml", "description: usage\n")
	writeFile(t, dir, "README.md", "docs v2")
	commitAll(t, wt, "update jackknife and add metadata")

	changed, err := ChangedDefinitions(dir, base)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"telemetry/jackknife_sum_ci/udf.sql",
		"telemetry/usage_daily/metadata.yaml",
	}, changed)
}

func TestChangedDefinitionsSkipsDeletes(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	writeFile(t, dir, "util/mode/udf.sql", "CREATE OR REPLACE FUNCTION util.mode() RETURNS INT AS 'SELECT 1';")
	base := commitAll(t, wt, "add util.mode")

	require.NoError(t, os.RemoveAll(filepath.Join(dir, "util")))
	_, err = wt.Remove("util/mode/udf.sql")
	require.NoError(t, err)
	_, err = wt.Commit("drop util.mode", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	changed, err := ChangedDefinitions(dir, base)
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestChangedDefinitionsBadRevision(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	writeFile(t, dir, "util/mode/udf.sql", "CREATE OR REPLACE FUNCTION util.mode() RETURNS INT AS 'SELECT 1';")
	commitAll(t, wt, "initial")

	_, err = ChangedDefinitions(dir, "not-a-rev")
	assert.Error(t, err)
}

func TestChangedDatasets(t *testing.T) {
	qualified := ChangedDatasets([]string{
		"telemetry/jackknife_sum_ci/udf.sql",
		"telemetry/jackknife_sum_ci/metadata.yaml",
		"util/mode/udf.sql",
	})

	assert.Equal(t, []string{"telemetry.jackknife_sum_ci", "util.mode"}, qualified)
}
