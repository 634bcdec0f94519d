package models

import (
	"errors"
	"fmt"
)

// ConfigError is the only error kind that aborts a scan before it starts.
// Everything that goes wrong after the first query is absorbed into the
// graph as missing data.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
