package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sqldeck/internal/common"
	"sqldeck/internal/generate"
	"sqldeck/internal/ui"
	"sqldeck/pkg/errors"
)

var (
	generateOut      string
	unionBaseTable   string
	unionVersions    []string
	normalizeSource  string
	normalizeColumn  string
	normalizeMapping []string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate derived view definitions",
}

var generateUnionCmd = &cobra.Command{
	Use:   "union <dataset> <name>",
	Short: "Generate a view unioning versioned tables",
	Long: "Render a CREATE OR REPLACE VIEW statement that unions every version\n" +
		"of a base table, tagging each row with its source version.",
	Args: cobra.ExactArgs(2),
	RunE: runGenerateUnion,
}

var generateNormalizeCmd = &cobra.Command{
	Use:   "normalize <dataset> <name>",
	Short: "Generate a view normalizing a column's raw values",
	Long: "Render a CREATE OR REPLACE VIEW statement mapping raw column values\n" +
		"to display names, with unmapped values falling back to 'Other'.",
	Args: cobra.ExactArgs(2),
	RunE: runGenerateNormalize,
}

func init() {
	generateCmd.PersistentFlags().StringVarP(&generateOut, "out", "o", "", "Write to <out>/<dataset>/<name>/view.sql instead of stdout")

	generateUnionCmd.Flags().StringVar(&unionBaseTable, "base-table", "", "Base table name without version suffix (required)")
	generateUnionCmd.Flags().StringSliceVar(&unionVersions, "version", nil, "Table versions to union (required)")
	_ = generateUnionCmd.MarkFlagRequired("base-table")
	_ = generateUnionCmd.MarkFlagRequired("version")

	generateNormalizeCmd.Flags().StringVar(&normalizeSource, "source", "", "Source table or view (required)")
	generateNormalizeCmd.Flags().StringVar(&normalizeColumn, "column", "", "Column to normalize (required)")
	generateNormalizeCmd.Flags().StringSliceVar(&normalizeMapping, "map", nil, "raw=display value mapping (repeatable)")
	_ = generateNormalizeCmd.MarkFlagRequired("source")
	_ = generateNormalizeCmd.MarkFlagRequired("column")

	generateCmd.AddCommand(generateUnionCmd)
	generateCmd.AddCommand(generateNormalizeCmd)
	rootCmd.AddCommand(generateCmd)
}

func runGenerateUnion(cmd *cobra.Command, args []string) error {
	sql, err := generate.UnionView(args[0], args[1], unionBaseTable, unionVersions)
	if err != nil {
		return err
	}
	return writeGenerated(args[0], args[1], sql)
}

func runGenerateNormalize(cmd *cobra.Command, args []string) error {
	mappings := make(map[string]string, len(normalizeMapping))
	for _, pair := range normalizeMapping {
		raw, display, ok := strings.Cut(pair, "=")
		if !ok {
			return errors.InvalidInputError("map", pair, "expected raw=display")
		}
		mappings[raw] = display
	}

	sql, err := generate.NormalizeView(args[0], args[1], normalizeSource, normalizeColumn, mappings)
	if err != nil {
		return err
	}
	return writeGenerated(args[0], args[1], sql)
}

func writeGenerated(dataset, name, sql string) error {
	if generateOut == "" {
		fmt.Println(sql)
		return nil
	}

	out, err := common.CleanPath(generateOut)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeFilePermission, "Invalid output path")
	}

	dir := filepath.Join(out, dataset, name)
	if err := os.MkdirAll(dir, common.DirPermissionSecure); err != nil {
		return errors.Wrap(err, errors.ErrCodeFilePermission, "Failed to create output directory")
	}

	path := filepath.Join(dir, "view.sql")
	if err := os.WriteFile(path, []byte(sql+"\n"), common.FilePermissionNormal); err != nil {
		return errors.Wrap(err, errors.ErrCodeFilePermission, "Failed to write view file")
	}

	ui.ShowSuccess("Wrote " + path)
	return nil
}
