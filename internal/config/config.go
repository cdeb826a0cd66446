// Package config defines the JSON pipeline configuration for the ingestion
// CLI and the loose-typed option helpers used by the parsers.
package config

import (
	"os"
	"strings"
)

// Pipeline is the top-level config decoded from the JSON config file.
type Pipeline struct {
	Job     string  `json:"job"`
	Source  Source  `json:"source"`
	Parser  Parser  `json:"parser"`
	Oracle  Oracle  `json:"oracle"`
	Storage Storage `json:"storage"`
	Runtime Runtime `json:"runtime"`
}

type Source struct {
	Kind string      `json:"kind"`
	File *FileSource `json:"file,omitempty"`
}

type FileSource struct {
	Path string `json:"path"`
}

type Parser struct {
	// Kind selects the table reader: "csv" | "xlsx".
	Kind    string  `json:"kind"`
	Options Options `json:"options"`
}

// Oracle configures the external column-mapping service.
//
// The bearer token is read from the environment, never from the config file:
// TokenEnv names the variable (default ORACLE_TOKEN).
type Oracle struct {
	URL            string `json:"url"`
	TokenEnv       string `json:"token_env"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Token resolves the bearer token from the configured environment variable.
func (o Oracle) Token() string {
	name := o.TokenEnv
	if name == "" {
		name = "ORACLE_TOKEN"
	}
	return strings.TrimSpace(os.Getenv(name))
}

type Storage struct {
	// Kind selects a registered store backend: "postgres" | "sqlite" | "mssql".
	Kind string `json:"kind"`
	DSN  string `json:"dsn"`
}

// Runtime controls batch execution behavior.
type Runtime struct {
	// RepairWorkers > 1 enables concurrent row repair. Rows are independent;
	// the identifier allocator serializes internally.
	RepairWorkers int `json:"repair_workers"`

	// PreviewRows caps the preview output. Defaults to 20.
	PreviewRows int `json:"preview_rows"`
}
