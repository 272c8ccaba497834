// delay-table generates the 256-entry halt-count lookup table that a
// stepper-music firmware uses to turn a note index into a step period.
// Frequencies are spaced logarithmically between the slowest and fastest
// rates the firmware loop can produce.
//
// Usage:
//
//	delay-table [options]
//
// Options:
//
//	-config string    Profile file (.cfg INI style or .toml)
//	-format string    Output format: bytes, gpram, c, go, csv, json (default "bytes")
//	-out string       Output file (default: stdout)
//	-name string      Array name for c/go output (default "delay_table")
//	-bits int         Register width, 8 or 16 (default 8)
//	-encoding string  direct or inverted (default "direct")
//	-per-line int     Values per row (default 16)
//	-no-summary       Omit the T/F summary lines
//	-chart string     Also write an HTML chart of the table
//	-log-level string DEBUG, INFO, WARN or ERROR
//
// Examples:
//
//	# Table with the compiled-in constants
//	delay-table
//
//	# Assembler include for the firmware, with the song from a profile
//	delay-table -config music.cfg -format gpram -encoding inverted -out table.asm
//
//	# C header with a preview chart
//	delay-table -format c -out delay_table.h -chart table.html
package main

import (
	"bytes"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"

	"stepper-delay-table/pkg/chart"
	"stepper-delay-table/pkg/config"
	"stepper-delay-table/pkg/emit"
	"stepper-delay-table/pkg/errors"
	"stepper-delay-table/pkg/log"
	"stepper-delay-table/pkg/song"
	"stepper-delay-table/pkg/table"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

var errUsage = stderrors.New("usage")

type options struct {
	configFile string
	format     string
	out        string
	name       string
	bits       int
	encoding   string
	perLine    int
	noSummary  bool
	chart      string
	logLevel   string
}

func parseFlags(args []string, stderr io.Writer) (*options, map[string]bool, error) {
	defaults := config.DefaultProfile()
	o := &options{}

	fs := flag.NewFlagSet("delay-table", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configFile, "config", "", "Profile file (.cfg INI style or .toml)")
	fs.StringVar(&o.format, "format", string(defaults.Output.Format), "Output format: bytes, gpram, c, go, csv, json")
	fs.StringVar(&o.out, "out", "", "Output file (default: stdout)")
	fs.StringVar(&o.name, "name", defaults.Output.Name, "Array name for c/go output")
	fs.IntVar(&o.bits, "bits", int(defaults.Table.Width), "Register width, 8 or 16")
	fs.StringVar(&o.encoding, "encoding", defaults.Table.Encoding.String(), "direct or inverted")
	fs.IntVar(&o.perLine, "per-line", defaults.Output.PerLine, "Values per row")
	fs.BoolVar(&o.noSummary, "no-summary", false, "Omit the T/F summary lines")
	fs.StringVar(&o.chart, "chart", "", "Also write an HTML chart of the table")
	fs.StringVar(&o.logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return nil, nil, errUsage
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return o, set, nil
}

// run is main without the os.Exit, returning the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	o, set, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	logger := log.New("delay-table")
	logger.SetWriter(stderr)
	log.ConfigureFromEnv(logger)
	if o.logLevel != "" {
		logger.SetLevel(log.ParseLevel(o.logLevel))
	}

	if err := generate(o, set, stdout, logger); err != nil {
		logger.WithError(err).Error("generation failed")
		return 1
	}
	return 0
}

func generate(o *options, set map[string]bool, stdout io.Writer, logger *log.Logger) error {
	profile := config.DefaultProfile()
	if o.configFile != "" {
		p, err := config.LoadProfile(o.configFile)
		if err != nil {
			return err
		}
		profile = p
		logger.Debug("loaded profile %s", o.configFile)
	}
	if err := applyFlags(&profile, o, set); err != nil {
		return err
	}

	c := profile.Constants
	logger.WithFields(log.Fields{
		"clock_hz":        c.ClockHz,
		"move_cycles":     c.MoveCycles,
		"halt_cycles":     c.HaltCycles,
		"freq_loop_moves": c.FreqLoopMoves,
	}).Debug("timing constants")

	tbl, err := table.Generate(c, profile.Table)
	if err != nil {
		return err
	}
	if err := tbl.Check(); err != nil {
		return err
	}
	for _, line := range emit.SummaryLines(tbl.Bounds) {
		logger.Debug("%s", line)
	}

	var seq *song.Sequence
	if profile.Song != nil {
		seq, err = song.Compile(profile.Song.Notes, tbl, profile.Song.Scale)
		if err != nil {
			return err
		}
		logger.Info("compiled song: %d notes, %d bytes", len(seq.Steps), seq.Length())
	}

	var out bytes.Buffer
	if err := emit.Write(&out, tbl, seq, profile.Output); err != nil {
		return err
	}

	var page bytes.Buffer
	if o.chart != "" {
		if err := chart.Render(&page, tbl); err != nil {
			return err
		}
	}

	if o.out == "" {
		if _, err := stdout.Write(out.Bytes()); err != nil {
			return errors.OutputError("stdout", err)
		}
	} else {
		if err := os.WriteFile(o.out, out.Bytes(), 0o644); err != nil {
			return errors.OutputError(o.out, err)
		}
		logger.Info("wrote %s table to %s", profile.Output.Format, o.out)
	}

	if o.chart != "" {
		if err := os.WriteFile(o.chart, page.Bytes(), 0o644); err != nil {
			return errors.OutputError(o.chart, err)
		}
		logger.Info("wrote chart to %s", o.chart)
	}
	return nil
}

// applyFlags overrides profile values with the flags given on the command
// line.
func applyFlags(p *config.Profile, o *options, set map[string]bool) error {
	var err error
	if set["format"] {
		if p.Output.Format, err = emit.ParseFormat(o.format); err != nil {
			return err
		}
	}
	if set["name"] {
		if err := emit.ValidateName(o.name); err != nil {
			return err
		}
		p.Output.Name = o.name
	}
	if set["per-line"] {
		if o.perLine <= 0 {
			return errors.ConfigValidationError("output", "per_line", fmt.Sprintf("must be positive, got %d", o.perLine))
		}
		p.Output.PerLine = o.perLine
	}
	if set["no-summary"] {
		p.Output.Summary = !o.noSummary
	}
	if set["bits"] {
		if p.Table.Width, err = table.ParseWidth(o.bits); err != nil {
			return err
		}
	}
	if set["encoding"] {
		if p.Table.Encoding, err = table.ParseEncoding(o.encoding); err != nil {
			return err
		}
	}
	return nil
}
