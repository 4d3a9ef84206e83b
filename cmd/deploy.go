package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sqldeck/internal/catalog"
	"sqldeck/internal/gitdiff"
	"sqldeck/internal/ui"
)

var (
	deployDatasets []string
	deploySince    string
	deployDryRun   bool
	deploySchedule bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the SQL catalog to the warehouse",
	Long: "Parse the catalog of SQL definitions, order routines by their\n" +
		"dependencies, and register routines, views and scheduled tasks in the\n" +
		"configured warehouse.",
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().StringSliceVarP(&deployDatasets, "dataset", "d", nil, "Deploy only these datasets")
	deployCmd.Flags().StringVar(&deploySince, "since", "", "Deploy only definitions changed since this git revision")
	deployCmd.Flags().BoolVar(&deployDryRun, "dry-run", false, "Parse and order without executing any SQL")
	deployCmd.Flags().BoolVar(&deploySchedule, "schedule", true, "Register warehouse tasks for scheduled views")

	rootCmd.AddCommand(deployCmd)
}

func runDeploy(cmd *cobra.Command, args []string) error {
	term := ui.NewUI(flagVerbose, flagQuiet)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	datasets := deployDatasets
	if len(datasets) == 0 {
		datasets = cfg.Catalog.Datasets
	}
	if !cmd.Flags().Changed("dry-run") {
		deployDryRun = cfg.Deployment.DryRun
	}

	cat, err := catalog.Load(cfg.Catalog.Root, datasets)
	if err != nil {
		return err
	}

	var changed map[string]bool
	if deploySince != "" {
		paths, err := gitdiff.ChangedDefinitions(cfg.Catalog.Root, deploySince)
		if err != nil {
			return err
		}
		changed = make(map[string]bool)
		for _, name := range gitdiff.ChangedDatasets(paths) {
			changed[name] = true
		}
		term.VerbosePrintf("%d definitions changed since %s\n", len(changed), deploySince)
	}

	routines := catalog.DeployOrder(cat.Routines)
	views := cat.Views
	if changed != nil {
		routines = filterRoutines(routines, changed)
		views = filterViews(views, changed)
	}

	term.Printf("Deploying %d routines and %d views from %s\n",
		len(routines), len(views), cfg.Catalog.Root)

	if deployDryRun {
		for _, r := range routines {
			term.Printf("  %s %s\n", color.YellowString("would deploy"), r.Name)
		}
		for _, v := range views {
			term.Printf("  %s %s\n", color.YellowString("would deploy"), v.Name)
		}
		return nil
	}

	service, err := connectWarehouse(cfg)
	if err != nil {
		return err
	}
	defer service.Close()

	for _, r := range routines {
		term.StartProgress(fmt.Sprintf("Deploying routine %s", r.Name))
		if err := service.DeployRoutine(r); err != nil {
			term.StopProgress(false, fmt.Sprintf("Routine %s failed", r.Name))
			return err
		}
		term.StopProgress(true, fmt.Sprintf("Routine %s deployed", r.Name))
	}

	for _, v := range views {
		term.StartProgress(fmt.Sprintf("Deploying view %s", v.Name))
		if err := service.DeployView(v); err != nil {
			term.StopProgress(false, fmt.Sprintf("View %s failed", v.Name))
			return err
		}
		term.StopProgress(true, fmt.Sprintf("View %s deployed", v.Name))
	}

	if deploySchedule {
		for _, v := range cat.Scheduled() {
			if changed != nil && !changed[v.Name] {
				continue
			}
			if err := service.RegisterSchedule(v); err != nil {
				return err
			}
			term.Printf("  %s schedule for %s\n", color.GreenString("registered"), v.Name)
		}
	}

	ui.ShowSuccess(fmt.Sprintf("Deployed %d routines and %d views", len(routines), len(views)))
	return nil
}

func filterRoutines(routines []*catalog.Routine, wanted map[string]bool) []*catalog.Routine {
	var kept []*catalog.Routine
	for _, r := range routines {
		if wanted[r.Name] {
			kept = append(kept, r)
		}
	}
	return kept
}

func filterViews(views []*catalog.View, wanted map[string]bool) []*catalog.View {
	var kept []*catalog.View
	for _, v := range views {
		if wanted[v.Name] {
			kept = append(kept, v)
		}
	}
	return kept
}
