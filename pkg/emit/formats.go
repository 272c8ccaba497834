package emit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"stepper-delay-table/pkg/errors"
	"stepper-delay-table/pkg/song"
	"stepper-delay-table/pkg/table"
)

// writeBytes emits plain summary lines followed by comma-separated rows.
func writeBytes(buf *bytes.Buffer, tbl *table.Table, seq *song.Sequence, opts Options) error {
	writeSummary(buf, tbl, opts, "")
	writeRows(buf, hexValues(tbl.Values(), tbl.Options.Width), "", opts.PerLine, false)
	if seq != nil {
		fmt.Fprintf(buf, "\nSong (%d bytes):\n", seq.Length())
		writeRows(buf, hexBytes(seq.Bytes()), "", opts.PerLine, false)
	}
	return nil
}

// writeGPRAM emits one firmware assembler write per byte. 16-bit entries are
// written low byte first.
func writeGPRAM(buf *bytes.Buffer, tbl *table.Table, seq *song.Sequence, opts Options) error {
	writeSummary(buf, tbl, opts, "# ")
	for _, v := range tbl.Values() {
		if tbl.Options.Width == table.Width16 {
			fmt.Fprintf(buf, "write 0x%02X gpram-inc-addr;\n", byte(v))
			fmt.Fprintf(buf, "write 0x%02X gpram-inc-addr;\n", byte(v>>8))
			continue
		}
		fmt.Fprintf(buf, "write 0x%02X gpram-inc-addr;\n", v)
	}
	if seq != nil {
		buf.WriteString("# Song\n")
		for _, st := range seq.Steps {
			fmt.Fprintf(buf, "write 0x%02X gpram-inc-addr;write 0x%02X gpram-inc-addr;# Duration=%.4f, Freq=%.2f\n",
				st.Repeats, st.Index, st.Seconds, st.Scaled)
		}
		fmt.Fprintf(buf, "write 0x%02X stack-push;\n", seq.Length())
	}
	return nil
}

func writeC(buf *bytes.Buffer, tbl *table.Table, seq *song.Sequence, opts Options) error {
	writeSummary(buf, tbl, opts, "// ")
	ctype := "uint8_t"
	if tbl.Options.Width == table.Width16 {
		ctype = "uint16_t"
	}
	fmt.Fprintf(buf, "static const %s %s[%d] = {\n", ctype, opts.Name, tbl.Len())
	writeRows(buf, hexValues(tbl.Values(), tbl.Options.Width), "    ", opts.PerLine, true)
	buf.WriteString("};\n")
	if seq != nil {
		fmt.Fprintf(buf, "\nstatic const uint8_t %s_song[%d] = {\n", opts.Name, seq.Length())
		writeRows(buf, hexBytes(seq.Bytes()), "    ", opts.PerLine, true)
		buf.WriteString("};\n")
		fmt.Fprintf(buf, "static const uint8_t %s_song_len = %d;\n", opts.Name, seq.Length())
	}
	return nil
}

func writeGo(buf *bytes.Buffer, tbl *table.Table, seq *song.Sequence, opts Options) error {
	writeSummary(buf, tbl, opts, "// ")
	gotype := "uint8"
	if tbl.Options.Width == table.Width16 {
		gotype = "uint16"
	}
	name := goIdent(opts.Name)
	fmt.Fprintf(buf, "var %s = [%d]%s{\n", name, tbl.Len(), gotype)
	writeRows(buf, hexValues(tbl.Values(), tbl.Options.Width), "\t", opts.PerLine, true)
	buf.WriteString("}\n")
	if seq != nil {
		fmt.Fprintf(buf, "\nvar %sSong = [%d]uint8{\n", name, seq.Length())
		writeRows(buf, hexBytes(seq.Bytes()), "\t", opts.PerLine, true)
		buf.WriteString("}\n")
	}
	return nil
}

// goIdent turns snake_case into lowerCamelCase.
func goIdent(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	if len(parts) == 0 {
		return "delayTable"
	}
	var sb strings.Builder
	sb.WriteString(strings.ToLower(parts[0]))
	for _, p := range parts[1:] {
		r, size := utf8.DecodeRuneInString(p)
		sb.WriteRune(unicode.ToUpper(r))
		sb.WriteString(p[size:])
	}
	return sb.String()
}

func writeCSV(buf *bytes.Buffer, tbl *table.Table, seq *song.Sequence, opts Options) error {
	writeSummary(buf, tbl, opts, "# ")

	w := csv.NewWriter(buf)
	w.Write([]string{"index", "frequency_hz", "exact_delay", "delay", "value", "clamped"})
	for _, e := range tbl.Entries() {
		w.Write([]string{
			strconv.Itoa(e.Index),
			strconv.FormatFloat(e.Frequency, 'f', 4, 64),
			strconv.FormatFloat(e.Exact, 'f', 4, 64),
			strconv.Itoa(int(e.Delay)),
			strconv.Itoa(int(tbl.Encode(e.Delay))),
			strconv.FormatBool(e.Clamped),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.OutputError("csv table", err)
	}

	if seq != nil {
		buf.WriteString("\n")
		w.Write([]string{"note", "frequency_hz", "duration_ms", "index", "repeats"})
		for i, st := range seq.Steps {
			w.Write([]string{
				strconv.Itoa(i),
				strconv.FormatFloat(st.Scaled, 'f', -1, 64),
				strconv.FormatFloat(st.Note.DurationMs, 'f', -1, 64),
				strconv.Itoa(st.Index),
				strconv.Itoa(int(st.Repeats)),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return errors.OutputError("csv song", err)
		}
	}
	return nil
}

type jsonBounds struct {
	TMinMs float64 `json:"t_min_ms"`
	TMaxMs float64 `json:"t_max_ms"`
	FMinHz float64 `json:"f_min_hz"`
	FMaxHz float64 `json:"f_max_hz"`
}

type jsonEntry struct {
	Index     int     `json:"index"`
	Frequency float64 `json:"frequency_hz"`
	Delay     uint16  `json:"delay"`
	Value     uint16  `json:"value"`
	Clamped   bool    `json:"clamped,omitempty"`
}

type jsonStep struct {
	Frequency  float64 `json:"frequency_hz"`
	DurationMs float64 `json:"duration_ms"`
	Index      int     `json:"index"`
	Repeats    uint8   `json:"repeats"`
}

type jsonOutput struct {
	Summary      []string    `json:"summary,omitempty"`
	Bounds       jsonBounds  `json:"bounds"`
	RegisterBits int         `json:"register_bits"`
	Encoding     string      `json:"encoding"`
	Entries      []jsonEntry `json:"entries"`
	Song         []jsonStep  `json:"song,omitempty"`
}

func writeJSON(buf *bytes.Buffer, tbl *table.Table, seq *song.Sequence, opts Options) error {
	b := tbl.Bounds
	out := jsonOutput{
		Bounds: jsonBounds{
			TMinMs: b.TMin * 1000,
			TMaxMs: b.TMax * 1000,
			FMinHz: b.FMin,
			FMaxHz: b.FMax,
		},
		RegisterBits: int(tbl.Options.Width),
		Encoding:     tbl.Options.Encoding.String(),
		Entries:      make([]jsonEntry, 0, tbl.Len()),
	}
	if opts.Summary {
		out.Summary = SummaryLines(b)
	}
	for _, e := range tbl.Entries() {
		out.Entries = append(out.Entries, jsonEntry{
			Index:     e.Index,
			Frequency: e.Frequency,
			Delay:     e.Delay,
			Value:     tbl.Encode(e.Delay),
			Clamped:   e.Clamped,
		})
	}
	if seq != nil {
		for _, st := range seq.Steps {
			out.Song = append(out.Song, jsonStep{
				Frequency:  st.Scaled,
				DurationMs: st.Note.DurationMs,
				Index:      st.Index,
				Repeats:    st.Repeats,
			})
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.OutputError("json", err)
	}
	buf.Write(data)
	buf.WriteByte('\n')
	return nil
}
