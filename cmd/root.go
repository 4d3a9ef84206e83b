package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	flagVerbose bool
	flagQuiet   bool

	rootCmd = &cobra.Command{
		Use:   "sqldeck",
		Short: "Manage and deploy analytic SQL definitions",
		Long: "sqldeck - A CLI tool for validating, testing and registering a catalog of\n" +
			"analytic SQL definitions (views, routines, scheduled queries) against a\n" +
			"cloud data warehouse",
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress non-essential output")

	// Accept underscores in flag names (--dry_run and --dry-run both work)
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	home, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(home + "/.sqldeck")
	}

	viper.SetEnvPrefix("SQLDECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; setup creates it
	_ = viper.ReadInConfig()
}
