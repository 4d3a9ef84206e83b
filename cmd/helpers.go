package cmd

import (
	"time"

	"github.com/spf13/viper"

	"sqldeck/internal/config"
	"sqldeck/internal/secrets"
	"sqldeck/internal/warehouse"
	"sqldeck/pkg/errors"
	"sqldeck/pkg/models"
)

// loadConfig loads the config file, layers viper-bound overrides
// (SQLDECK_* env vars, a config.yaml in the working directory) on top,
// and fails when no warehouse is configured through either.
func loadConfig() (*models.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg)
	if cfg.Warehouse.Account == "" {
		return nil, errors.New(errors.ErrCodeConfigNotFound, "No warehouse configured").
			WithSuggestions("Run 'sqldeck setup' to create a configuration")
	}
	return cfg, nil
}

// applyOverrides replaces config values with any non-empty viper
// values, so environment variables and a working-directory config file
// win over ~/.sqldeck/config.yaml.
func applyOverrides(cfg *models.Config) {
	set := func(key string, dst *string) {
		if v := viper.GetString(key); v != "" {
			*dst = v
		}
	}
	set("warehouse.account", &cfg.Warehouse.Account)
	set("warehouse.username", &cfg.Warehouse.Username)
	set("warehouse.password", &cfg.Warehouse.Password)
	set("warehouse.role", &cfg.Warehouse.Role)
	set("warehouse.warehouse", &cfg.Warehouse.Warehouse)
	set("warehouse.database", &cfg.Warehouse.Database)
	set("warehouse.schema", &cfg.Warehouse.Schema)
	set("catalog.root", &cfg.Catalog.Root)
	set("deployment.timeout", &cfg.Deployment.Timeout)
}

// warehouseConfig builds a connection config, resolving the password
// from the OS keyring when the config says so.
func warehouseConfig(cfg *models.Config) (warehouse.Config, error) {
	password := cfg.Warehouse.Password
	if cfg.Warehouse.UseKeyring {
		store, err := secrets.NewStore()
		if err != nil {
			return warehouse.Config{}, err
		}
		password, err = store.GetPassword(cfg.Warehouse.Account, cfg.Warehouse.Username)
		if err != nil {
			return warehouse.Config{}, err
		}
	}

	timeout := 30 * time.Second
	if cfg.Deployment.Timeout != "" {
		parsed, err := time.ParseDuration(cfg.Deployment.Timeout)
		if err != nil {
			return warehouse.Config{}, errors.ConfigError("Invalid deployment timeout", "deployment.timeout")
		}
		timeout = parsed
	}

	wcfg := warehouse.Config{
		Account:    cfg.Warehouse.Account,
		Username:   cfg.Warehouse.Username,
		Password:   password,
		Database:   cfg.Warehouse.Database,
		Schema:     cfg.Warehouse.Schema,
		Warehouse:  cfg.Warehouse.Warehouse,
		Role:       cfg.Warehouse.Role,
		Timeout:    timeout,
		MaxRetries: cfg.Deployment.MaxRetries,
	}

	if err := warehouse.ValidateConfig(wcfg); err != nil {
		return warehouse.Config{}, errors.ConfigError(err.Error(), "warehouse")
	}

	return wcfg, nil
}

// connectWarehouse builds and connects a warehouse service
func connectWarehouse(cfg *models.Config) (*warehouse.Service, error) {
	wcfg, err := warehouseConfig(cfg)
	if err != nil {
		return nil, err
	}

	service := warehouse.NewService(wcfg)
	if err := service.Connect(); err != nil {
		return nil, err
	}
	return service, nil
}
