// Package config loads generator profiles: INI-style files of [section]
// headers and "key: value" (or "key = value") options, or TOML files with
// the same tables and keys. Options are tracked as they are read so that
// misspelled or unsupported ones can be reported.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"stepper-delay-table/pkg/errors"
)

// Config provides access to a parsed profile with access tracking.
type Config struct {
	sections map[string]*Section
	order    []string // Maintains section order

	accessedSections map[string]struct{}
}

// New creates a new empty Config.
func New() *Config {
	return &Config{
		sections:         make(map[string]*Section),
		accessedSections: make(map[string]struct{}),
	}
}

// Load reads a profile file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.ConfigFileError(path, err)
	}
	defer f.Close()

	c, err := parse(f)
	if err != nil {
		return nil, errors.ConfigFileError(path, err)
	}
	return c, nil
}

// LoadString parses a profile from a string.
func LoadString(data string) (*Config, error) {
	return parse(strings.NewReader(data))
}

func parse(r io.Reader) (*Config, error) {
	c := New()
	var currentSection string
	var currentOptions map[string]string

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, errors.ConfigSyntaxError(lineNum, "unterminated section header")
			}
			if currentSection != "" {
				c.addSection(currentSection, currentOptions)
			}
			currentSection = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			if currentSection == "" {
				return nil, errors.ConfigSyntaxError(lineNum, "empty section header")
			}
			currentOptions = make(map[string]string)
			continue
		}

		if currentSection == "" {
			return nil, errors.ConfigSyntaxError(lineNum, "option outside of a section")
		}

		// Split on whichever separator comes first so values may contain
		// the other one ("notes: 220:197").
		sep := strings.IndexAny(line, ":=")
		if sep <= 0 {
			return nil, errors.ConfigSyntaxError(lineNum, fmt.Sprintf("expected 'key: value', got %q", line))
		}
		key := strings.TrimSpace(line[:sep])
		value := strings.TrimSpace(line[sep+1:])
		currentOptions[key] = value
	}

	if currentSection != "" {
		c.addSection(currentSection, currentOptions)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// addSection adds a section, merging options into an existing one of the
// same name.
func (c *Config) addSection(name string, options map[string]string) {
	if existing, ok := c.sections[name]; ok {
		for k, v := range options {
			existing.options[strings.ToLower(k)] = v
		}
		return
	}

	c.sections[name] = newSection(name, options)
	c.order = append(c.order, name)
}

// GetSection returns a Section by name, or error if not found.
func (c *Config) GetSection(name string) (*Section, error) {
	sec, ok := c.sections[name]
	if !ok {
		return nil, errors.ConfigSectionError(name)
	}
	c.accessedSections[name] = struct{}{}
	return sec, nil
}

// GetSectionOptional returns a Section if it exists, or nil if not.
func (c *Config) GetSectionOptional(name string) *Section {
	sec, ok := c.sections[name]
	if ok {
		c.accessedSections[name] = struct{}{}
	}
	return sec
}

// GetSectionNames returns all section names in order.
func (c *Config) GetSectionNames() []string {
	result := make([]string, len(c.order))
	copy(result, c.order)
	return result
}

// GetUnusedSections returns the sections that were never accessed.
func (c *Config) GetUnusedSections() []string {
	var result []string
	for name := range c.sections {
		if _, ok := c.accessedSections[name]; !ok {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}

// CheckUnusedSections returns an error if there are unused sections.
func (c *Config) CheckUnusedSections() error {
	if unused := c.GetUnusedSections(); len(unused) > 0 {
		return errors.New(errors.ErrConfigSection, fmt.Sprintf("unknown sections: %v", unused))
	}
	return nil
}

// CheckUnusedOptions returns an error if any accessed section has options
// that were never read.
func (c *Config) CheckUnusedOptions() error {
	var problems []string
	for _, name := range c.order {
		if _, ok := c.accessedSections[name]; !ok {
			continue
		}
		if unused := c.sections[name].GetUnusedOptions(); len(unused) > 0 {
			problems = append(problems, fmt.Sprintf("[%s]: %v", name, unused))
		}
	}
	if len(problems) > 0 {
		return errors.New(errors.ErrConfigOption, "unknown options "+strings.Join(problems, "; "))
	}
	return nil
}
