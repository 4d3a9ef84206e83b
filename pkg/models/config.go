package models

type Config struct {
	Catalog      Catalog       `yaml:"catalog"`
	Warehouse    Warehouse     `yaml:"warehouse"`
	Deployment   Deployment    `yaml:"deployment"`
	Environments []Environment `yaml:"environments"`
}

// Catalog locates the SQL definition tree on disk
type Catalog struct {
	Root     string   `yaml:"root"`     // Directory containing <dataset>/<name>/ definitions
	Datasets []string `yaml:"datasets"` // Restrict to these datasets; empty means all
}

type Warehouse struct {
	Account    string `yaml:"account"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`    // Empty when use_keyring is set
	UseKeyring bool   `yaml:"use_keyring"` // Resolve password from the OS keyring
	Role       string `yaml:"role"`
	Warehouse  string `yaml:"warehouse"`
	Database   string `yaml:"database"`
	Schema     string `yaml:"schema"`
}

// Deployment contains deployment-specific configuration
type Deployment struct {
	Timeout    string `yaml:"timeout"`     // e.g., "30m"
	MaxRetries int    `yaml:"max_retries"` // Maximum connection retries
	DryRun     bool   `yaml:"dry_run"`     // Render and validate without executing
}

// Environment represents a deployment environment configuration
type Environment struct {
	Name      string `yaml:"name"` // Environment name (e.g., "dev", "staging", "prod")
	Account   string `yaml:"account"`
	Username  string `yaml:"username"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Warehouse string `yaml:"warehouse"`
	Role      string `yaml:"role"`
}
