// Package song compiles a melody into the byte pairs the firmware's song
// block plays back: for each note, how many output periods to hold it and
// which delay table row sets its pitch.
package song

import (
	"fmt"
	"math"

	"stepper-delay-table/pkg/errors"
	"stepper-delay-table/pkg/table"
)

// MaxNotes is the largest song the firmware's song block holds; the byte
// length 2*MaxNotes must fit a single byte.
const MaxNotes = 127

// MaxRepeats is the largest period count a note can be held for.
const MaxRepeats = math.MaxUint8

// Note is one element of a melody. A zero Frequency is a rest.
type Note struct {
	Frequency  float64 // Hz, before scaling
	DurationMs float64
}

// IsRest reports whether the note is silent.
func (n Note) IsRest() bool {
	return n.Frequency == 0
}

// Step is a compiled note.
type Step struct {
	Note    Note
	Scaled  float64 // requested frequency after scaling, Hz
	Index   int     // delay table row
	Actual  float64 // frequency the firmware produces for Index, Hz; 0 for rests
	Seconds float64 // hold time after the outer loop is taken out
	Repeats uint8   // output periods to hold the note
}

// Sequence is a compiled song.
type Sequence struct {
	Steps []Step
	Scale float64
}

// Compile maps notes onto rows of tbl. Each note frequency is multiplied by
// scale before lookup. Rests use row 0, the longest delay.
func Compile(notes []Note, tbl *table.Table, scale float64) (*Sequence, error) {
	if len(notes) == 0 {
		return nil, errors.SongError("song has no notes")
	}
	if len(notes) > MaxNotes {
		return nil, errors.SongError(fmt.Sprintf("song has %d notes, at most %d fit", len(notes), MaxNotes))
	}
	if !(scale > 0) {
		return nil, errors.ConfigValidationError("song", "scale", fmt.Sprintf("must be above 0, got %g", scale))
	}
	c := tbl.Constants
	if c.OuterLoopMoves <= 0 {
		return nil, errors.NonPositiveError("outer_loop_moves", c.OuterLoopMoves)
	}

	b := tbl.Bounds
	outer := c.OuterLoopSeconds()
	// Rests idle on row 0, which may be clamped below 256 halts.
	restFreq, err := tbl.ActualFrequency(0)
	if err != nil {
		return nil, err
	}
	seq := &Sequence{Steps: make([]Step, 0, len(notes)), Scale: scale}

	for i, n := range notes {
		if !finiteNonNegative(n.Frequency) || !finiteNonNegative(n.DurationMs) {
			return nil, errors.SongError(fmt.Sprintf("note %d: frequency %g and duration %g ms must be finite and not negative", i, n.Frequency, n.DurationMs)).
				SetContext("note", i)
		}

		s := Step{
			Note:    n,
			Scaled:  n.Frequency * scale,
			Seconds: math.Max(0, n.DurationMs/1000-outer),
		}

		var periods float64
		if n.IsRest() {
			s.Index = 0
			s.Actual = 0
			periods = math.Floor(s.Seconds * restFreq)
		} else {
			if !(s.Scaled >= b.FMin && s.Scaled <= b.FMax) {
				return nil, errors.SongError(fmt.Sprintf("note %d: %.2f Hz outside %.2f..%.2f Hz", i, s.Scaled, b.FMin, b.FMax)).
					SetContext("note", i)
			}
			s.Index = tbl.NearestIndex(s.Scaled)
			if s.Actual, err = tbl.ActualFrequency(s.Index); err != nil {
				return nil, err
			}
			periods = math.Floor(s.Seconds * s.Actual)
		}

		if !(periods <= MaxRepeats) {
			return nil, errors.SongError(fmt.Sprintf("note %d: holding %.0f periods, at most %d fit", i, periods, MaxRepeats)).
				SetContext("note", i)
		}
		s.Repeats = uint8(periods)
		seq.Steps = append(seq.Steps, s)
	}
	return seq, nil
}

func finiteNonNegative(x float64) bool {
	return x >= 0 && !math.IsInf(x, 1)
}

// Bytes returns the song block: a (repeats, index) pair per note.
func (s *Sequence) Bytes() []byte {
	out := make([]byte, 0, 2*len(s.Steps))
	for _, st := range s.Steps {
		out = append(out, st.Repeats, byte(st.Index))
	}
	return out
}

// Length returns the song block length in bytes, which the firmware pushes
// after the block.
func (s *Sequence) Length() byte {
	return byte(2 * len(s.Steps))
}
