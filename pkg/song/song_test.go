package song

import (
	"math"
	"testing"

	"stepper-delay-table/pkg/errors"
	"stepper-delay-table/pkg/table"
	"stepper-delay-table/pkg/timing"
)

func defaultTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.Generate(timing.Defaults(), table.DefaultOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return tbl
}

func TestCompileNotesAndRests(t *testing.T) {
	tbl := defaultTable(t)

	seq, err := Compile([]Note{
		{Frequency: 100, DurationMs: 500},
		{Frequency: 0, DurationMs: 500},
		{Frequency: 440, DurationMs: 197},
	}, tbl, 0.5)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(seq.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(seq.Steps))
	}

	note := seq.Steps[0]
	if note.Scaled != 50 {
		t.Errorf("scaled = %v, want 50", note.Scaled)
	}
	if note.Index != tbl.NearestIndex(50) {
		t.Errorf("index = %d, want %d", note.Index, tbl.NearestIndex(50))
	}
	// 0.5s minus the 5.184ms outer loop, at the row's real frequency.
	actual, err := tbl.ActualFrequency(note.Index)
	if err != nil {
		t.Fatalf("ActualFrequency failed: %v", err)
	}
	want := math.Floor((0.5 - 0.005184) * actual)
	if float64(note.Repeats) != want {
		t.Errorf("repeats = %d, want %v", note.Repeats, want)
	}

	rest := seq.Steps[1]
	if rest.Index != 0 {
		t.Errorf("rest index = %d, want 0", rest.Index)
	}
	restFreq, _ := tbl.ActualFrequency(0)
	if want := math.Floor((0.5 - 0.005184) * restFreq); float64(rest.Repeats) != want {
		t.Errorf("rest repeats = %d, want %v", rest.Repeats, want)
	}

	if seq.Steps[2].Scaled != 220 {
		t.Errorf("scaled = %v, want 220", seq.Steps[2].Scaled)
	}
}

func TestBytesAndLength(t *testing.T) {
	tbl := defaultTable(t)
	seq, err := Compile([]Note{{Frequency: 60, DurationMs: 100}, {Frequency: 0, DurationMs: 100}}, tbl, 1)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	b := seq.Bytes()
	if len(b) != 4 {
		t.Fatalf("expected 4 bytes, got %d", len(b))
	}
	if b[0] != seq.Steps[0].Repeats || int(b[1]) != seq.Steps[0].Index {
		t.Errorf("first pair = %v, want (%d, %d)", b[:2], seq.Steps[0].Repeats, seq.Steps[0].Index)
	}
	if seq.Length() != 4 {
		t.Errorf("Length = %d, want 4", seq.Length())
	}
}

func TestCompileErrors(t *testing.T) {
	tbl := defaultTable(t)
	tooMany := make([]Note, MaxNotes+1)
	for i := range tooMany {
		tooMany[i] = Note{Frequency: 100, DurationMs: 10}
	}

	tests := []struct {
		name  string
		notes []Note
		scale float64
	}{
		{"empty", nil, 1},
		{"too many notes", tooMany, 1},
		{"above f_max", []Note{{Frequency: 300, DurationMs: 100}}, 1},
		{"below f_min", []Note{{Frequency: 20, DurationMs: 100}}, 1},
		{"held too long", []Note{{Frequency: 200, DurationMs: 3000}}, 1},
		{"negative duration", []Note{{Frequency: 100, DurationMs: -1}}, 1},
		{"NaN frequency", []Note{{Frequency: math.NaN(), DurationMs: 200}}, 1},
		{"NaN duration", []Note{{Frequency: 100, DurationMs: math.NaN()}}, 1},
		{"infinite frequency", []Note{{Frequency: math.Inf(1), DurationMs: 200}}, 1},
		{"infinite duration", []Note{{Frequency: 100, DurationMs: math.Inf(1)}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.notes, tbl, tt.scale)
			if !errors.Is(err, errors.ErrSong) {
				t.Errorf("error = %v, want SONG", err)
			}
		})
	}
}

func TestCompileRejectsBadScale(t *testing.T) {
	tbl := defaultTable(t)
	_, err := Compile([]Note{{Frequency: 100, DurationMs: 100}}, tbl, 0)
	if !errors.IsConfig(err) {
		t.Errorf("error = %v, want configuration error", err)
	}
}

func TestCompileNeedsOuterLoop(t *testing.T) {
	c := timing.Defaults()
	c.OuterLoopMoves = 0
	tbl, err := table.Generate(c, table.DefaultOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	_, err = Compile([]Note{{Frequency: 100, DurationMs: 100}}, tbl, 1)
	if !errors.IsConfig(err) {
		t.Errorf("error = %v, want configuration error", err)
	}
}

func TestShortNoteHasNoRepeats(t *testing.T) {
	tbl := defaultTable(t)
	seq, err := Compile([]Note{{Frequency: 100, DurationMs: 2}}, tbl, 1)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if seq.Steps[0].Seconds != 0 || seq.Steps[0].Repeats != 0 {
		t.Errorf("expected a note shorter than the outer loop to collapse, got %+v", seq.Steps[0])
	}
}

func TestRestTimedOnClampedRow(t *testing.T) {
	tbl := defaultTable(t)

	// Row 0 holds 255 halts in an 8-bit register, so a rest period is
	// 2568 cycles rather than the 2576 of t_max. 2.057s of rest is 100 such
	// periods but only 99.8 periods of t_max.
	seq, err := Compile([]Note{{Frequency: 0, DurationMs: 2062.184}}, tbl, 1)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if got := seq.Steps[0].Repeats; got != 100 {
		t.Errorf("rest repeats = %d, want 100", got)
	}
}
