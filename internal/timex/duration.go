// Package timex provides a time.Duration that round-trips through YAML
// as a human-readable string ("2h", "30m"), which yaml.v3 does not do
// natively.
package timex

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration with YAML string encoding.
type Duration time.Duration

// Std returns the underlying time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String formats like time.Duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalYAML encodes as a duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts either a duration string or an integer
// nanosecond count.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var ns int64
	if err := value.Decode(&ns); err != nil {
		return fmt.Errorf("duration must be a string like \"2h\" or nanoseconds")
	}
	*d = Duration(ns)
	return nil
}
