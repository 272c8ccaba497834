// Package emit renders a delay table, and optionally a compiled song, as
// text the firmware build can include: byte lists, assembler write
// directives, C or Go array literals, CSV or JSON.
package emit

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"stepper-delay-table/pkg/errors"
	"stepper-delay-table/pkg/song"
	"stepper-delay-table/pkg/table"
	"stepper-delay-table/pkg/timing"
)

// Format names an output syntax.
type Format string

const (
	FormatBytes Format = "bytes"
	FormatGPRAM Format = "gpram"
	FormatC     Format = "c"
	FormatGo    Format = "go"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// writer renders one format into buf.
type writer func(buf *bytes.Buffer, tbl *table.Table, seq *song.Sequence, opts Options) error

var writers = map[Format]writer{
	FormatBytes: writeBytes,
	FormatGPRAM: writeGPRAM,
	FormatC:     writeC,
	FormatGo:    writeGo,
	FormatCSV:   writeCSV,
	FormatJSON:  writeJSON,
}

// Formats returns the supported format names.
func Formats() []string {
	return []string{
		string(FormatBytes), string(FormatGPRAM), string(FormatC),
		string(FormatGo), string(FormatCSV), string(FormatJSON),
	}
}

// ParseFormat converts a format name to a Format.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := writers[f]; !ok {
		return "", errors.FormatError(name, Formats())
	}
	return f, nil
}

// Options controls rendering.
type Options struct {
	Format  Format
	Name    string // array or symbol name for c/go
	PerLine int    // values per row for bytes/c/go
	Summary bool   // emit the T/F bounds lines first
}

// DefaultOptions returns the byte list format with a summary.
func DefaultOptions() Options {
	return Options{
		Format:  FormatBytes,
		Name:    "delay_table",
		PerLine: 16,
		Summary: true,
	}
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reserved holds the C and Go keywords a symbol may not use.
var reserved = map[string]bool{
	"auto": true, "bool": true, "break": true, "case": true, "char": true,
	"chan": true, "const": true, "continue": true, "default": true, "defer": true,
	"do": true, "double": true, "else": true, "enum": true, "extern": true,
	"fallthrough": true, "float": true, "for": true, "func": true, "go": true,
	"goto": true, "if": true, "import": true, "inline": true, "int": true,
	"interface": true, "long": true, "map": true, "package": true, "range": true,
	"register": true, "restrict": true, "return": true, "select": true, "short": true,
	"signed": true, "sizeof": true, "static": true, "struct": true, "switch": true,
	"type": true, "typedef": true, "union": true, "unsigned": true, "var": true,
	"void": true, "volatile": true, "while": true,
}

// ValidateName checks that name can be used as the array symbol in both C
// and Go output.
func ValidateName(name string) error {
	if !identifier.MatchString(name) {
		return errors.ConfigValidationError("output", "name", fmt.Sprintf("'%s' is not a C or Go identifier", name))
	}
	if reserved[name] || reserved[goIdent(name)] {
		return errors.ConfigValidationError("output", "name", fmt.Sprintf("'%s' is a reserved word", name))
	}
	return nil
}

// SummaryLines returns the human-readable bounds lines.
func SummaryLines(b timing.Bounds) []string {
	return []string{
		fmt.Sprintf("T min: %.3f ms, T max: %.3f ms", b.TMin*1000, b.TMax*1000),
		fmt.Sprintf("F min: %.2f Hz, F max: %.2f Hz", b.FMin, b.FMax),
	}
}

// Write renders tbl (and seq, when not nil) to w. Output is rendered in full
// before anything is written, so a failed render writes nothing.
func Write(w io.Writer, tbl *table.Table, seq *song.Sequence, opts Options) error {
	if opts.Format == "" {
		opts.Format = FormatBytes
	}
	render, ok := writers[opts.Format]
	if !ok {
		return errors.FormatError(string(opts.Format), Formats())
	}
	if opts.PerLine <= 0 {
		opts.PerLine = DefaultOptions().PerLine
	}
	if opts.Name == "" {
		opts.Name = DefaultOptions().Name
	}
	if err := ValidateName(opts.Name); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := render(&buf, tbl, seq, opts); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.OutputError(string(opts.Format)+" output", err)
	}
	return nil
}

func writeSummary(buf *bytes.Buffer, tbl *table.Table, opts Options, comment string) {
	if !opts.Summary {
		return
	}
	for _, line := range SummaryLines(tbl.Bounds) {
		buf.WriteString(comment)
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
}

// hexValue formats v as a literal wide enough for the table's register.
func hexValue(v uint16, w table.Width) string {
	if w == table.Width16 {
		return fmt.Sprintf("0x%04X", v)
	}
	return fmt.Sprintf("0x%02X", v)
}

func hexValues(values []uint16, w table.Width) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = hexValue(v, w)
	}
	return out
}

func hexBytes(b []byte) []string {
	out := make([]string, len(b))
	for i, v := range b {
		out[i] = fmt.Sprintf("0x%02X", v)
	}
	return out
}

// writeRows writes items perLine to a row, comma separated. The last item
// gets a trailing comma only when trailing is set.
func writeRows(buf *bytes.Buffer, items []string, indent string, perLine int, trailing bool) {
	for start := 0; start < len(items); start += perLine {
		end := start + perLine
		if end > len(items) {
			end = len(items)
		}
		buf.WriteString(indent)
		buf.WriteString(strings.Join(items[start:end], ", "))
		if end < len(items) || trailing {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
}
