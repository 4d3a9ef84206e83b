package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"sqldeck/internal/config"
	"sqldeck/internal/secrets"
	"sqldeck/internal/ui"
	"sqldeck/pkg/models"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration setup",
	Run:   runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) {
	ui.ShowHeader("sqldeck setup")

	if config.Exists() {
		var overwrite bool
		prompt := &survey.Confirm{
			Message: "Configuration already exists. Do you want to overwrite it?",
			Default: false,
		}
		_ = survey.AskOne(prompt, &overwrite)
		if !overwrite {
			fmt.Println("Setup cancelled.")
			return
		}
	}

	cfg := &models.Config{}

	warehouseQs := []*survey.Question{
		{
			Name: "account",
			Prompt: &survey.Input{
				Message: "Warehouse account (e.g., xy12345.us-east-1):",
			},
			Validate: survey.Required,
		},
		{
			Name: "username",
			Prompt: &survey.Input{
				Message: "Username:",
			},
			Validate: survey.Required,
		},
		{
			Name: "role",
			Prompt: &survey.Input{
				Message: "Role:",
				Default: "SYSADMIN",
			},
			Validate: survey.Required,
		},
		{
			Name: "warehouse",
			Prompt: &survey.Input{
				Message: "Warehouse:",
				Default: "COMPUTE_WH",
			},
			Validate: survey.Required,
		},
		{
			Name: "database",
			Prompt: &survey.Input{
				Message: "Database:",
			},
			Validate: survey.Required,
		},
		{
			Name: "schema",
			Prompt: &survey.Input{
				Message: "Default schema:",
				Default: "PUBLIC",
			},
			Validate: survey.Required,
		},
	}

	if err := survey.Ask(warehouseQs, &cfg.Warehouse); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var password string
	if err := survey.AskOne(&survey.Password{Message: "Password:"}, &password, survey.WithValidator(survey.Required)); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var useKeyring bool
	_ = survey.AskOne(&survey.Confirm{
		Message: "Store the password in the OS keyring instead of the config file?",
		Default: true,
	}, &useKeyring)

	if useKeyring {
		store, err := secrets.NewStore()
		if err == nil {
			err = store.SetPassword(cfg.Warehouse.Account, cfg.Warehouse.Username, password)
		}
		if err != nil {
			ui.ShowWarning(fmt.Sprintf("Could not store credential securely: %v", err))
			ui.ShowWarning("Falling back to plaintext password in the config file")
			cfg.Warehouse.Password = password
		} else {
			cfg.Warehouse.UseKeyring = true
		}
	} else {
		cfg.Warehouse.Password = password
	}

	catalogQs := []*survey.Question{
		{
			Name: "root",
			Prompt: &survey.Input{
				Message: "Catalog root directory:",
				Default: "sql",
			},
			Validate: survey.Required,
		},
	}
	if err := survey.Ask(catalogQs, &cfg.Catalog); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	cfg.Deployment = models.Deployment{
		Timeout:    "30m",
		MaxRetries: 3,
	}

	if err := config.Save(cfg); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	ui.ShowSuccess("Configuration saved to " + config.GetConfigFile())
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  sqldeck validate    check the catalog parses")
	fmt.Println("  sqldeck test        run routine tests in a sandbox")
	fmt.Println("  sqldeck deploy      register definitions in the warehouse")
}
