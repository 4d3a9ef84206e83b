package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sqldeck/internal/catalog"
	"sqldeck/internal/ui"
	"sqldeck/pkg/errors"
)

var (
	testDatasets []string
	testRoutine  string
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run catalog routine tests against the warehouse",
	Long: "Rewrite every routine and its dependencies as temporary functions and\n" +
		"run the test statements from each definition file in a sandboxed\n" +
		"warehouse session. Nothing persistent is created.",
	RunE: runTest,
}

func init() {
	testCmd.Flags().StringSliceVarP(&testDatasets, "dataset", "d", nil, "Test only these datasets")
	testCmd.Flags().StringVar(&testRoutine, "routine", "", "Test a single routine (qualified name)")
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	term := ui.NewUI(flagVerbose, flagQuiet)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	datasets := testDatasets
	if len(datasets) == 0 {
		datasets = cfg.Catalog.Datasets
	}

	cat, err := catalog.Load(cfg.Catalog.Root, datasets)
	if err != nil {
		return err
	}

	routines := catalog.DeployOrder(cat.Routines)
	if testRoutine != "" {
		r, ok := cat.Routines[testRoutine]
		if !ok {
			return errors.New(errors.ErrCodeSQLObjectNotFound,
				fmt.Sprintf("Routine %s not found in catalog", testRoutine)).
				WithSuggestions("Use 'sqldeck list' to see available routines")
		}
		routines = []*catalog.Routine{r}
	}

	service, err := connectWarehouse(cfg)
	if err != nil {
		return err
	}
	defer service.Close()

	passed, failed, skipped := 0, 0, 0
	for _, r := range routines {
		if len(r.Tests) == 0 {
			skipped++
			term.VerbosePrintf("  %s %s (no tests)\n", color.YellowString("skip"), r.Name)
			continue
		}

		results, err := service.RunTests(r, cat.Routines)
		if err != nil {
			return err
		}
		for _, result := range results {
			if result.Passed() {
				passed++
				term.Printf("  %s %s #%d\n", color.GreenString("pass"), result.Routine, result.TestIndex)
			} else {
				failed++
				term.Printf("  %s %s #%d: %v\n", color.RedString("fail"), result.Routine, result.TestIndex, result.Err)
			}
		}
	}

	term.Printf("\n%d passed, %d failed, %d routines without tests\n", passed, failed, skipped)
	if failed > 0 {
		return errors.New(errors.ErrCodeTestFailed,
			fmt.Sprintf("%d routine tests failed", failed))
	}
	return nil
}
