package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"sqldeck/internal/common"
	"sqldeck/pkg/models"
)

func GetConfigPath() string {
	if configPath := os.Getenv("SQLDECK_CONFIG"); configPath != "" {
		return filepath.Dir(configPath)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sqldeck")
}

func GetConfigFile() string {
	if configFile := os.Getenv("SQLDECK_CONFIG"); configFile != "" {
		cleaned, err := common.CleanPath(configFile)
		if err != nil {
			return filepath.Join(GetConfigPath(), "config.yaml")
		}
		return cleaned
	}
	return filepath.Join(GetConfigPath(), "config.yaml")
}

func Load() (*models.Config, error) {
	configFile := GetConfigFile()

	cleanedPath, err := common.CleanPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	if _, err := os.Stat(cleanedPath); os.IsNotExist(err) {
		return &models.Config{}, nil
	}

	data, err := os.ReadFile(cleanedPath) // #nosec G304 - path is validated
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config models.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

func Save(config *models.Config) error {
	configPath := GetConfigPath()
	if err := os.MkdirAll(configPath, common.DirPermissionSecure); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(GetConfigFile(), data, common.FilePermissionSecure); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func Exists() bool {
	_, err := os.Stat(GetConfigFile())
	return err == nil
}
