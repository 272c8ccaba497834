package config

import (
	"sort"
	"strconv"
	"strings"

	"stepper-delay-table/pkg/errors"
)

// Section provides access to a profile section with access tracking.
type Section struct {
	name     string
	options  map[string]string
	accessed map[string]struct{}
}

func newSection(name string, options map[string]string) *Section {
	opts := make(map[string]string, len(options))
	for k, v := range options {
		opts[strings.ToLower(k)] = v
	}
	return &Section{
		name:     name,
		options:  opts,
		accessed: make(map[string]struct{}),
	}
}

// GetName returns the section name.
func (s *Section) GetName() string {
	return s.name
}

// GetUnusedOptions returns the sorted options that were never read.
func (s *Section) GetUnusedOptions() []string {
	var result []string
	for opt := range s.options {
		if _, ok := s.accessed[opt]; !ok {
			result = append(result, opt)
		}
	}
	sort.Strings(result)
	return result
}

// lookup returns the raw value and marks the option read.
func (s *Section) lookup(option string) (string, bool) {
	key := strings.ToLower(option)
	v, ok := s.options[key]
	if ok {
		s.accessed[key] = struct{}{}
	}
	return strings.TrimSpace(v), ok
}

// Get returns a string option value, the fallback when it is absent, or an
// error when it is absent and no fallback is given.
func (s *Section) Get(option string, fallback ...string) (string, error) {
	if v, ok := s.lookup(option); ok {
		return v, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return "", errors.ConfigOptionError(s.name, option)
}

// GetInt returns an integer option value.
func (s *Section) GetInt(option string, fallback ...int) (int, error) {
	if v, ok := s.lookup(option); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, errors.ConfigTypeError(s.name, option, v, "integer", err)
		}
		return i, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return 0, errors.ConfigOptionError(s.name, option)
}

// GetInt64 returns a 64-bit integer option value.
func (s *Section) GetInt64(option string, fallback ...int64) (int64, error) {
	if v, ok := s.lookup(option); ok {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, errors.ConfigTypeError(s.name, option, v, "integer", err)
		}
		return i, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return 0, errors.ConfigOptionError(s.name, option)
}

// GetFloat returns a float64 option value.
func (s *Section) GetFloat(option string, fallback ...float64) (float64, error) {
	if v, ok := s.lookup(option); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, errors.ConfigTypeError(s.name, option, v, "float", err)
		}
		return f, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return 0, errors.ConfigOptionError(s.name, option)
}

// GetBool returns a boolean option value.
// Accepts: 1, true, yes, on (true) and 0, false, no, off (false).
func (s *Section) GetBool(option string, fallback ...bool) (bool, error) {
	if v, ok := s.lookup(option); ok {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true, nil
		case "0", "false", "no", "off":
			return false, nil
		}
		return false, errors.ConfigTypeError(s.name, option, v, "boolean (true/false/yes/no/on/off/1/0)", nil)
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return false, errors.ConfigOptionError(s.name, option)
}

// GetList returns a list of strings split by sep. Empty items are dropped.
func (s *Section) GetList(option string, sep string, fallback ...[]string) ([]string, error) {
	if v, ok := s.lookup(option); ok {
		result := []string{}
		for _, p := range strings.Split(v, sep) {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		return result, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return nil, errors.ConfigOptionError(s.name, option)
}
