package config

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"stepper-delay-table/pkg/emit"
	"stepper-delay-table/pkg/errors"
	"stepper-delay-table/pkg/song"
	"stepper-delay-table/pkg/table"
	"stepper-delay-table/pkg/timing"
)

// Profile is everything needed for one generator run.
type Profile struct {
	Constants timing.Constants
	Table     table.Options
	Output    emit.Options
	Song      *SongProfile // nil when the profile has no [song] section
}

// SongProfile is the [song] section.
type SongProfile struct {
	Scale float64
	Notes []song.Note
}

// DefaultProfile returns the compiled-in constants with default table and
// output options.
func DefaultProfile() Profile {
	return Profile{
		Constants: timing.Defaults(),
		Table:     table.DefaultOptions(),
		Output:    emit.DefaultOptions(),
	}
}

// LoadProfile reads a profile file, choosing the syntax by extension:
// ".toml" is TOML, anything else is INI style.
func LoadProfile(path string) (Profile, error) {
	var (
		c   *Config
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		c, err = LoadTOML(path)
	} else {
		c, err = Load(path)
	}
	if err != nil {
		return Profile{}, err
	}
	return c.Profile()
}

// Profile applies the config over DefaultProfile. Unknown sections and
// options are errors.
func (c *Config) Profile() (Profile, error) {
	p := DefaultProfile()

	if sec := c.GetSectionOptional("timing"); sec != nil {
		if err := readTiming(sec, &p.Constants); err != nil {
			return Profile{}, err
		}
	}
	if sec := c.GetSectionOptional("table"); sec != nil {
		if err := readTable(sec, &p.Table); err != nil {
			return Profile{}, err
		}
	}
	if sec := c.GetSectionOptional("output"); sec != nil {
		if err := readOutput(sec, &p.Output); err != nil {
			return Profile{}, err
		}
	}
	if sec := c.GetSectionOptional("song"); sec != nil {
		sp, err := readSong(sec)
		if err != nil {
			return Profile{}, err
		}
		p.Song = sp
	}

	if err := c.CheckUnusedSections(); err != nil {
		return Profile{}, err
	}
	if err := c.CheckUnusedOptions(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func readTiming(sec *Section, c *timing.Constants) error {
	for _, opt := range []struct {
		name string
		dst  *int64
	}{
		{"clock_hz", &c.ClockHz},
		{"move_cycles", &c.MoveCycles},
		{"halt_cycles", &c.HaltCycles},
		{"freq_loop_moves", &c.FreqLoopMoves},
		{"outer_loop_moves", &c.OuterLoopMoves},
	} {
		v, err := sec.GetInt64(opt.name, *opt.dst)
		if err != nil {
			return err
		}
		*opt.dst = v
	}
	// Positivity is checked by timing.Constants.Validate.
	return nil
}

func readTable(sec *Section, o *table.Options) error {
	bits, err := sec.GetInt("register_bits", int(o.Width))
	if err != nil {
		return err
	}
	if o.Width, err = table.ParseWidth(bits); err != nil {
		return err
	}

	enc, err := sec.Get("encoding", o.Encoding.String())
	if err != nil {
		return err
	}
	o.Encoding, err = table.ParseEncoding(enc)
	return err
}

func readOutput(sec *Section, o *emit.Options) error {
	format, err := sec.Get("format", string(o.Format))
	if err != nil {
		return err
	}
	if o.Format, err = emit.ParseFormat(format); err != nil {
		return errors.ConfigValidationError(sec.GetName(), "format", err.Error())
	}

	if o.Name, err = sec.Get("name", o.Name); err != nil {
		return err
	}
	if err := emit.ValidateName(o.Name); err != nil {
		return err
	}

	if o.PerLine, err = sec.GetInt("per_line", o.PerLine); err != nil {
		return err
	}
	if o.PerLine <= 0 {
		return errors.ConfigValidationError(sec.GetName(), "per_line", "must be positive, got "+strconv.Itoa(o.PerLine))
	}

	o.Summary, err = sec.GetBool("summary", o.Summary)
	return err
}

func readSong(sec *Section) (*SongProfile, error) {
	scale, err := sec.GetFloat("scale", 1)
	if err != nil {
		return nil, err
	}
	if !finite(scale) || scale <= 0 {
		return nil, errors.ConfigValidationError(sec.GetName(), "scale", fmt.Sprintf("must be a positive number, got %g", scale))
	}
	items, err := sec.GetList("notes", ",")
	if err != nil {
		return nil, err
	}
	notes, err := ParseNotes(sec.GetName(), items)
	if err != nil {
		return nil, err
	}
	return &SongProfile{Scale: scale, Notes: notes}, nil
}

// ParseNotes parses "frequency:duration_ms" items. A frequency of 0 is a
// rest.
func ParseNotes(section string, items []string) ([]song.Note, error) {
	notes := make([]song.Note, 0, len(items))
	for _, item := range items {
		freqStr, durStr, ok := strings.Cut(item, ":")
		if !ok {
			return nil, errors.ConfigTypeError(section, "notes", item, "frequency:duration_ms", nil)
		}
		freq, err := strconv.ParseFloat(strings.TrimSpace(freqStr), 64)
		if err != nil {
			return nil, errors.ConfigTypeError(section, "notes", item, "frequency:duration_ms", err)
		}
		dur, err := strconv.ParseFloat(strings.TrimSpace(durStr), 64)
		if err != nil {
			return nil, errors.ConfigTypeError(section, "notes", item, "frequency:duration_ms", err)
		}
		if !finite(freq) || !finite(dur) {
			return nil, errors.ConfigTypeError(section, "notes", item, "finite frequency:duration_ms", nil)
		}
		notes = append(notes, song.Note{Frequency: freq, DurationMs: dur})
	}
	return notes, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
