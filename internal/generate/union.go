// Package generate renders templated view SQL from enumerated source
// tables so the generated definitions can be registered like any other
// catalog entry.
package generate

import (
	"fmt"
	"strings"
	"text/template"

	"sqldeck/pkg/errors"
)

const unionViewTemplate = `CREATE OR REPLACE VIEW {{.Dataset}}.{{.Name}} AS
{{- range $i, $table := .Tables}}
{{- if $i}}
UNION ALL
{{- end}}
SELECT
  *,
  '{{$table.Version}}' AS _table_version
FROM {{$table.Qualified}}
{{- end}};
`

var unionTmpl = template.Must(template.New("union_view").Parse(unionViewTemplate))

// SourceTable is one versioned source table feeding a union view
type SourceTable struct {
	Version   string
	Qualified string
}

// UnionView renders a view that unions every version of a base table,
// tagging each row with the version it came from. Versions are
// rendered in the order given; the caller enumerates them.
func UnionView(dataset, name, baseTable string, versions []string) (string, error) {
	if len(versions) == 0 {
		return "", errors.InvalidInputError("versions", versions, "at least one table version is required")
	}

	tables := make([]SourceTable, 0, len(versions))
	for _, v := range versions {
		if v == "" {
			return "", errors.InvalidInputError("versions", v, "version must not be empty")
		}
		tables = append(tables, SourceTable{
			Version:   v,
			Qualified: fmt.Sprintf("%s_%s", baseTable, v),
		})
	}

	var b strings.Builder
	err := unionTmpl.Execute(&b, struct {
		Dataset string
		Name    string
		Tables  []SourceTable
	}{dataset, name, tables})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "Failed to render union view")
	}

	return b.String(), nil
}
