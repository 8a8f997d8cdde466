package rntuple

import (
	"fmt"
	"strings"
)

const (
	DefaultPageFrame = "Page"
)

// The LayoutConfig type carries configuration options for the layout walker.
//
// LayoutConfig implements the LayoutOption interface so it can be used
// directly as argument to the WriteLayout function, for example:
//
//	err := rntuple.WriteLayout(builder, file, indexes, &rntuple.LayoutConfig{
//		UniqueFields: true,
//	})
type LayoutConfig struct {
	// UniqueFields gives every field its own frame instead of sharing one
	// frame between fields with the same name and type.
	UniqueFields bool
	// UniqueColumns gives every column its own frame instead of sharing one
	// frame between columns of the same type.
	UniqueColumns bool
	// FileFrame is the name of the outermost frame. Defaults to the name of
	// the file.
	FileFrame string
	// PageFrame is the name of the leaf frame of pages.
	PageFrame string
}

// DefaultLayoutConfig returns a new LayoutConfig value initialized with the
// default layout configuration.
func DefaultLayoutConfig() *LayoutConfig {
	return &LayoutConfig{
		PageFrame: DefaultPageFrame,
	}
}

// Apply applies the given list of options to c.
func (c *LayoutConfig) Apply(options ...LayoutOption) {
	for _, opt := range options {
		opt.ConfigureLayout(c)
	}
}

// ConfigureLayout applies configuration options from c to config.
func (c *LayoutConfig) ConfigureLayout(config *LayoutConfig) {
	*config = LayoutConfig{
		UniqueFields:  c.UniqueFields || config.UniqueFields,
		UniqueColumns: c.UniqueColumns || config.UniqueColumns,
		FileFrame:     coalesceString(c.FileFrame, config.FileFrame),
		PageFrame:     coalesceString(c.PageFrame, config.PageFrame),
	}
}

// Validate returns a non-nil error if the configuration of c is invalid.
func (c *LayoutConfig) Validate() error {
	const baseName = "rntuple.(*LayoutConfig)."
	return errorInvalidConfiguration(
		validateNotEmpty(baseName+"PageFrame", c.PageFrame),
	)
}

// LayoutOption is an interface implemented by types that carry configuration
// options for the layout walker.
type LayoutOption interface {
	ConfigureLayout(*LayoutConfig)
}

// UniqueFields configures the layout walker to create one frame per field.
//
// By default, fields with the same name and type share a frame, which keeps
// the frame table small for files with many similar fields.
func UniqueFields(enabled bool) LayoutOption {
	return layoutOption(func(config *LayoutConfig) { config.UniqueFields = enabled })
}

// UniqueColumns configures the layout walker to create one frame per column.
//
// By default, columns of the same type share a frame.
func UniqueColumns(enabled bool) LayoutOption {
	return layoutOption(func(config *LayoutConfig) { config.UniqueColumns = enabled })
}

// FileFrame sets the name of the outermost frame of the layout.
func FileFrame(name string) LayoutOption {
	return layoutOption(func(config *LayoutConfig) { config.FileFrame = name })
}

type layoutOption func(*LayoutConfig)

func (opt layoutOption) ConfigureLayout(config *LayoutConfig) { opt(config) }

func coalesceString(s1, s2 string) string {
	if s1 != "" {
		return s1
	}
	return s2
}

func validateNotEmpty(optionName, optionValue string) error {
	if optionValue != "" {
		return nil
	}
	return errorInvalidOptionValue(optionName, optionValue)
}

func errorInvalidOptionValue(optionName string, optionValue interface{}) error {
	return fmt.Errorf("invalid option value: %s: %q", optionName, optionValue)
}

func errorInvalidConfiguration(reasons ...error) error {
	var err *invalidConfiguration

	for _, reason := range reasons {
		if reason != nil {
			if err == nil {
				err = new(invalidConfiguration)
			}
			err.reasons = append(err.reasons, reason)
		}
	}

	if err != nil {
		return err
	}

	return nil
}

type invalidConfiguration struct {
	reasons []error
}

func (err *invalidConfiguration) Error() string {
	errorMessage := new(strings.Builder)
	for _, reason := range err.reasons {
		errorMessage.WriteString(reason.Error())
		errorMessage.WriteString("\n")
	}
	errorString := errorMessage.String()
	if errorString != "" {
		errorString = errorString[:len(errorString)-1]
	}
	return errorString
}
