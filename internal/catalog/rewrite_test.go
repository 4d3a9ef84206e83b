package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteAsTemp(t *testing.T) {
	known := testCatalog(t)

	sql := "CREATE OR REPLACE FUNCTION histogram.extract() RETURNS INT AS 'SELECT util.mode()'"
	rewritten := RewriteAsTemp(sql, known)

	assert.True(t, strings.HasPrefix(rewritten, "CREATE TEMP FUNCTION"))
	assert.Contains(t, rewritten, "histogram_extract")
	assert.Contains(t, rewritten, "util_mode")
	assert.NotContains(t, rewritten, "histogram.extract")
	assert.NotContains(t, rewritten, "util.mode")
}

func TestRewriteAsTempLeavesUnknownReferences(t *testing.T) {
	known := testCatalog(t)

	rewritten := RewriteAsTemp("SELECT other_db.table_fn()", known)
	assert.Equal(t, "SELECT other_db.table_fn()", rewritten)
}

func TestDependencyDefinitions(t *testing.T) {
	known := testCatalog(t)

	statements := DependencyDefinitions("SELECT histogram.sum()", known)
	require.Len(t, statements, 3)

	// dependency order: leaf definitions come first
	assert.Contains(t, statements[0], "util.mode")
	assert.Contains(t, statements[1], "histogram.extract")
	assert.Contains(t, statements[2], "histogram.sum")
}

func TestDependencyDefinitionsSkipsPresent(t *testing.T) {
	known := testCatalog(t)

	text := known["util.mode"].Definitions[0] + ";\nSELECT util.mode()"
	statements := DependencyDefinitions(text, known)
	assert.Empty(t, statements)
}

func TestTestStatements(t *testing.T) {
	known := testCatalog(t)

	sql := `CREATE OR REPLACE FUNCTION histogram.ci() RETURNS INT AS 'SELECT histogram.sum()';
SELECT assert.equals(1, histogram.ci());`
	routine, err := ParseRoutine(sql, "histogram", "ci")
	require.NoError(t, err)
	known[routine.Name] = routine
	ResolveDependencies(known)

	tests := TestStatements(routine, known)
	require.Len(t, tests, 1)

	// self-contained: the whole chain is defined as temp functions
	assert.Contains(t, tests[0], "CREATE TEMP FUNCTION")
	assert.Contains(t, tests[0], "util_mode")
	assert.Contains(t, tests[0], "histogram_sum")
	assert.Contains(t, tests[0], "histogram_ci")
	assert.NotContains(t, tests[0], "histogram.ci")
}
