package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sqldeck/internal/catalog"
	"sqldeck/internal/ui"
	"sqldeck/pkg/errors"
)

var validateDatasets []string

var validateCmd = &cobra.Command{
	Use:   "validate [catalog-root]",
	Short: "Parse and validate the SQL catalog without deploying",
	Long: "Check that every definition parses, names follow the naming rules,\n" +
		"metadata is well formed, and routine dependencies are resolvable. No\n" +
		"warehouse connection is made.",
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringSliceVarP(&validateDatasets, "dataset", "d", nil, "Validate only these datasets")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	term := ui.NewUI(flagVerbose, flagQuiet)

	root := ""
	if len(args) == 1 {
		root = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		root = cfg.Catalog.Root
	}

	cat, err := catalog.Load(root, validateDatasets)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range catalog.DeployOrder(cat.Routines) {
		if r.Metadata != nil {
			if err := r.Metadata.Validate(); err != nil {
				ui.ShowError(err)
				failed++
				continue
			}
		}
		term.VerbosePrintf("  ok %s (%d definitions, %d tests, %d dependencies)\n",
			r.Name, len(r.Definitions), len(r.Tests), len(r.Dependencies))
	}
	for _, v := range cat.Views {
		if v.Metadata != nil {
			if err := v.Metadata.Validate(); err != nil {
				ui.ShowError(err)
				failed++
				continue
			}
		}
		term.VerbosePrintf("  ok %s\n", v.Name)
	}

	if failed > 0 {
		return errors.New(errors.ErrCodeValidationFailed,
			fmt.Sprintf("%d definitions failed validation", failed))
	}

	ui.ShowSuccess(fmt.Sprintf("Validated %d routines and %d views in %s",
		len(cat.Routines), len(cat.Views), root))
	return nil
}
