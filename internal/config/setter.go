package config

import (
	"fmt"
	"strings"
	"time"

	"racing-telemetry/ingestion/internal/domain"
)

// configSetter applies a value only when it is set and its flag was not given.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt64 applies any value that was present, zero included.
func (s *configSetter) setInt64(flag string, value *int64, dst *int64) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setDuration(flag string, value time.Duration, dst *time.Duration) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) parseDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", domain.ErrConfiguration, flag, err)
	}
	*dst = d
	return nil
}

// setStrings drops blank entries, so "a,,b" and a trailing comma are harmless.
func (s *configSetter) setStrings(flag string, values []string, dst *[]string) {
	if s.changed[flag] {
		return
	}
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return
	}
	*dst = out
}
