package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"stepper-delay-table/pkg/errors"
)

// LoadTOML reads a TOML profile. Top-level tables become sections; their
// keys become options, so the same typed getters and unknown-option checks
// apply as for INI profiles.
func LoadTOML(path string) (*Config, error) {
	var doc map[string]interface{}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, errors.ConfigFileError(path, err)
	}
	c, err := fromTOML(doc)
	if err != nil {
		return nil, errors.ConfigFileError(path, err)
	}
	return c, nil
}

// LoadTOMLString parses a TOML profile from a string.
func LoadTOMLString(data string) (*Config, error) {
	var doc map[string]interface{}
	if _, err := toml.Decode(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigFile, "invalid TOML")
	}
	return fromTOML(doc)
}

func fromTOML(doc map[string]interface{}) (*Config, error) {
	c := New()

	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		tbl, ok := doc[name].(map[string]interface{})
		if !ok {
			return nil, errors.New(errors.ErrConfigSection, fmt.Sprintf("top-level key '%s' must be a table", name))
		}
		options := make(map[string]string, len(tbl))
		for key, raw := range tbl {
			v, err := tomlValue(raw)
			if err != nil {
				return nil, errors.ConfigTypeError(name, key, fmt.Sprint(raw), "scalar or list", err)
			}
			options[key] = v
		}
		c.addSection(strings.ToLower(name), options)
	}
	return c, nil
}

// tomlValue renders a decoded TOML value in profile syntax. Arrays become
// comma-separated lists; a two-element numeric array becomes "a:b", which
// is how song notes are written.
func tomlValue(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case []interface{}:
		if pair, ok := numericPair(v); ok {
			return pair, nil
		}
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, err := tomlValue(item)
			if err != nil {
				return "", err
			}
			items = append(items, s)
		}
		return strings.Join(items, ", "), nil
	}
	return "", fmt.Errorf("unsupported TOML type %T", raw)
}

func numericPair(v []interface{}) (string, bool) {
	if len(v) != 2 {
		return "", false
	}
	parts := make([]string, 2)
	for i, item := range v {
		switch n := item.(type) {
		case int64:
			parts[i] = strconv.FormatInt(n, 10)
		case float64:
			parts[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			return "", false
		}
	}
	return parts[0] + ":" + parts[1], true
}
