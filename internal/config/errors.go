package config

import "strings"

// MissingError lists required settings that were not provided.
type MissingError struct {
	Settings []string
}

func (e *MissingError) Error() string {
	return "missing required settings: " + strings.Join(e.Settings, ", ")
}

// InvalidError lists settings whose values could not be used.
type InvalidError struct {
	Fields []string
}

func (e *InvalidError) Error() string {
	return "invalid settings: " + strings.Join(e.Fields, "; ")
}
