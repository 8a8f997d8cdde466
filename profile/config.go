package profile

import (
	"fmt"
)

const (
	DefaultName     = "layout"
	DefaultExporter = "rntuple-go"
)

// The Config type carries the options used to convert a profile into a
// speedscope document.
//
// Config implements the Option interface so it can be passed directly to
// NewDocument, for example:
//
//	doc := profile.NewDocument(p, &profile.Config{
//		Name: "events.root",
//	})
type Config struct {
	Name     string
	Exporter string
}

// DefaultConfig returns a new Config value initialized with the default
// options.
func DefaultConfig() *Config {
	return &Config{
		Name:     DefaultName,
		Exporter: DefaultExporter,
	}
}

// Apply applies the given list of options to c.
func (c *Config) Apply(options ...Option) {
	for _, opt := range options {
		opt.ConfigureProfile(c)
	}
}

// ConfigureProfile applies configuration options from c to config.
func (c *Config) ConfigureProfile(config *Config) {
	*config = Config{
		Name:     coalesceString(c.Name, config.Name),
		Exporter: coalesceString(c.Exporter, config.Exporter),
	}
}

// Validate returns a non-nil error if the configuration of c is invalid.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("invalid option value: profile.(*Config).Name: %q", c.Name)
	}
	return nil
}

// Option is an interface implemented by types that carry configuration
// options for profile documents.
type Option interface {
	ConfigureProfile(*Config)
}

// Name sets the name of the profile, displayed by viewers.
//
// Defaults to "layout".
func Name(name string) Option {
	return option(func(config *Config) { config.Name = name })
}

// Exporter sets the name of the program which produced the document.
func Exporter(exporter string) Option {
	return option(func(config *Config) { config.Exporter = exporter })
}

type option func(*Config)

func (opt option) ConfigureProfile(config *Config) { opt(config) }

func coalesceString(s1, s2 string) string {
	if s1 != "" {
		return s1
	}
	return s2
}
