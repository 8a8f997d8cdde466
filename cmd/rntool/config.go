package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// config is the content of the file passed with -config. Command line flags
// take precedence over the values it sets.
type config struct {
	// Compression is the codec of the layout documents.
	Compression string `yaml:"compression" validate:"oneof=none gzip snappy brotli zstd lz4"`
	// Workers is the number of files processed concurrently.
	Workers int `yaml:"workers" validate:"min=1,max=1024"`
	// OutputDir receives one report per input file; reports are written to
	// stdout when empty.
	OutputDir string `yaml:"output_dir"`
	// DatabaseURL is the PostgreSQL connection string of the store command.
	DatabaseURL string `yaml:"database_url" validate:"omitempty,url"`
	// Dataset groups the files written by the store command.
	Dataset       string `yaml:"dataset" validate:"required,max=255"`
	UniqueFields  bool   `yaml:"unique_fields"`
	UniqueColumns bool   `yaml:"unique_columns"`
	MetricsFile   string `yaml:"metrics_file"`
}

var validate = validator.New()

func defaultConfig() *config {
	return &config{
		Compression: "gzip",
		Workers:     runtime.NumCPU(),
		Dataset:     "default",
	}
}

// loadConfig reads the YAML file at path on top of the default configuration.
func loadConfig(path string) (*config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return c, nil
}

func (c *config) validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of [%s], got %q", e.Field(), e.Param(), e.Value()))
		case "min", "max":
			messages = append(messages, fmt.Sprintf("%s must be %s %s, got %v", e.Field(), boundName(e.Tag()), e.Param(), e.Value()))
		case "url":
			messages = append(messages, fmt.Sprintf("%s must be a URL, got %q", e.Field(), e.Value()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed %s validation", e.Field(), e.Tag()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

func boundName(tag string) string {
	if tag == "min" {
		return "at least"
	}
	return "at most"
}
