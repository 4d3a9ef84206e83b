package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sqldeck/internal/ui"
	"sqldeck/pkg/errors"
	"sqldeck/pkg/stats"
)

var (
	ciExpected int
	ciLevel    int
	ciVerify   string
)

var ciCmd = &cobra.Command{
	Use:   "ci <count>...",
	Short: "Compute a jackknife confidence interval for a sum of bucket counts",
	Long: "Treat each argument as a per-bucket count, pad with zeros up to the\n" +
		"expected bucket total, and estimate a confidence interval for the sum\n" +
		"using delete-one jackknife resampling.",
	Example: "  sqldeck ci --expected 20 10 20 30 40\n" +
		"  sqldeck ci --expected 20 --level 99 10 20 30 40\n" +
		"  sqldeck ci --expected 20 --verify udf.jackknife_sum_ci 10 20 30 40",
	Args: cobra.MinimumNArgs(1),
	RunE: runCI,
}

func init() {
	ciCmd.Flags().IntVarP(&ciExpected, "expected", "e", 0, "Expected number of buckets (required)")
	ciCmd.Flags().IntVarP(&ciLevel, "level", "l", stats.DefaultConfidenceLevel, "Confidence level (80, 90, 95, 98 or 99)")
	ciCmd.Flags().StringVar(&ciVerify, "verify", "", "Cross-check the result against this deployed routine")
	_ = ciCmd.MarkFlagRequired("expected")
	rootCmd.AddCommand(ciCmd)
}

func runCI(cmd *cobra.Command, args []string) error {
	counts, err := parseCounts(args)
	if err != nil {
		return err
	}

	estimate, err := stats.JackknifeSumCIAt(ciLevel, ciExpected, counts)
	if err != nil {
		return err
	}

	fmt.Printf("total:    %g\n", estimate.Total)
	fmt.Printf("ci:       [%g, %g] at %d%%\n", estimate.Low, estimate.High, ciLevel)
	fmt.Printf("std err:  %g\n", estimate.StdErr)

	if ciVerify != "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		service, err := connectWarehouse(cfg)
		if err != nil {
			return err
		}
		defer service.Close()

		if err := service.VerifyJackknife(ciVerify, ciExpected, counts); err != nil {
			return err
		}
		ui.ShowSuccess(fmt.Sprintf("Routine %s agrees with the native estimate", ciVerify))
	}

	return nil
}

func parseCounts(args []string) ([]float64, error) {
	var counts []float64
	for _, arg := range args {
		// Allow comma-separated lists as well as one count per argument
		for _, field := range strings.Split(arg, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.InvalidInputError("count", field, "not a number")
			}
			counts = append(counts, value)
		}
	}
	return counts, nil
}
