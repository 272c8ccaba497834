// Package table generates the 256-entry delay lookup table indexed by the
// firmware's speed byte.
//
// Index 0 is the lowest frequency (longest delay) and index 255 the highest.
// Frequencies are spaced logarithmically between the bounds:
//
//	f_i = f_min * (f_max/f_min)^(i/255)
//
// so that adjacent low frequencies are closer together than adjacent high
// ones. Each frequency is converted back to a whole number of halt
// iterations and clamped to the register width.
package table

import (
	"fmt"
	"math"
	"strings"

	"stepper-delay-table/pkg/errors"
	"stepper-delay-table/pkg/timing"
)

// Size is the number of table entries.
const Size = timing.HaltSteps

// Width is the bit width of the firmware register holding a delay.
type Width int

const (
	Width8  Width = 8
	Width16 Width = 16
)

// Max returns the largest value the register holds.
func (w Width) Max() uint16 {
	if w == Width16 {
		return math.MaxUint16
	}
	return math.MaxUint8
}

// ParseWidth converts a bit count to a Width.
func ParseWidth(bits int) (Width, error) {
	switch Width(bits) {
	case Width8, Width16:
		return Width(bits), nil
	}
	return 0, errors.ConfigValidationError("table", "register_bits", fmt.Sprintf("must be 8 or 16, got %d", bits))
}

// Encoding selects how a delay is stored in the register.
type Encoding int

const (
	// Direct stores the halt count itself.
	Direct Encoding = iota
	// Inverted stores max - delay, for firmware that jumps into the halt
	// block at an offset so that a larger value spends less time in it.
	Inverted
)

func (e Encoding) String() string {
	if e == Inverted {
		return "inverted"
	}
	return "direct"
}

// ParseEncoding converts an encoding name to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "direct", "":
		return Direct, nil
	case "inverted":
		return Inverted, nil
	}
	return Direct, errors.ConfigValidationError("table", "encoding", fmt.Sprintf("'%s' is not a valid choice (valid: direct, inverted)", name))
}

// Options controls generation beyond the timing constants.
type Options struct {
	Width    Width
	Encoding Encoding
}

// DefaultOptions matches the firmware's 8-bit direct halt counter.
func DefaultOptions() Options {
	return Options{Width: Width8, Encoding: Direct}
}

// Entry is one row of the table.
type Entry struct {
	Index     int
	Frequency float64 // sampled frequency, Hz
	Exact     float64 // unrounded, unclamped halt count for Frequency
	Delay     uint16  // rounded and clamped halt count
	Clamped   bool    // Delay had to be clamped to the register range
}

// Table is a generated delay table. It is not modified after Generate
// returns.
type Table struct {
	Constants timing.Constants
	Bounds    timing.Bounds
	Options   Options

	entries [Size]Entry
}

// Generate builds the table for the given constants. It fails with a
// configuration error when a constant is non-positive, the cycle counts
// overflow, or the frequency range is too narrow to give every row a
// distinct frequency.
func Generate(c timing.Constants, opts Options) (*Table, error) {
	if opts.Width == 0 {
		opts.Width = Width8
	}
	if _, err := ParseWidth(int(opts.Width)); err != nil {
		return nil, err
	}

	b, err := c.Bounds()
	if err != nil {
		return nil, err
	}

	t := &Table{Constants: c, Bounds: b, Options: opts}
	logMin := math.Log(b.FMin)
	logSpan := math.Log(b.FMax) - logMin
	limit := float64(opts.Width.Max())

	for i := 0; i < Size; i++ {
		var f float64
		switch i {
		case 0:
			f = b.FMin
		case Size - 1:
			f = b.FMax
		default:
			f = math.Exp(logMin + logSpan*float64(i)/float64(Size-1))
		}

		if i > 0 && !(f > t.entries[i-1].Frequency) {
			return nil, errors.NarrowRangeError(b.FMin, b.FMax, i)
		}

		exact := c.DelayForFrequency(f)
		d := math.Round(exact)
		clamped := false
		if d < 0 {
			d, clamped = 0, true
		} else if d > limit {
			d, clamped = limit, true
		}

		t.entries[i] = Entry{
			Index:     i,
			Frequency: f,
			Exact:     exact,
			Delay:     uint16(d),
			Clamped:   clamped,
		}
	}
	return t, nil
}

// Len returns the number of entries, always Size.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entry returns row i.
func (t *Table) Entry(i int) (Entry, error) {
	if i < 0 || i >= Size {
		return Entry{}, errors.TableRangeError(i)
	}
	return t.entries[i], nil
}

// Entries returns a copy of all rows in index order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, Size)
	copy(out, t.entries[:])
	return out
}

// Delays returns the halt counts in index order.
func (t *Table) Delays() []uint16 {
	out := make([]uint16, Size)
	for i, e := range t.entries {
		out[i] = e.Delay
	}
	return out
}

// Frequencies returns the sampled frequencies in index order.
func (t *Table) Frequencies() []float64 {
	out := make([]float64, Size)
	for i, e := range t.entries {
		out[i] = e.Frequency
	}
	return out
}

// Encode returns the register value stored for a delay.
func (t *Table) Encode(delay uint16) uint16 {
	if t.Options.Encoding == Inverted {
		return t.Options.Width.Max() - delay
	}
	return delay
}

// Values returns the register values in index order, after encoding.
func (t *Table) Values() []uint16 {
	out := make([]uint16, Size)
	for i, e := range t.entries {
		out[i] = t.Encode(e.Delay)
	}
	return out
}

// ActualFrequency returns the frequency the firmware really produces for
// row i, after rounding and clamping.
func (t *Table) ActualFrequency(i int) (float64, error) {
	e, err := t.Entry(i)
	if err != nil {
		return 0, err
	}
	return t.Constants.FrequencyForDelay(float64(e.Delay)), nil
}

// NearestIndex returns the index whose sampled frequency is closest to freq
// on the logarithmic scale. Frequencies outside the bounds map to the end
// rows.
func (t *Table) NearestIndex(freq float64) int {
	if !(freq > t.Bounds.FMin) {
		return 0
	}
	if freq >= t.Bounds.FMax {
		return Size - 1
	}
	p := math.Log(freq/t.Bounds.FMin) / math.Log(t.Bounds.Ratio())
	i := int(math.Round(p * float64(Size-1)))
	if i < 0 {
		return 0
	}
	if i > Size-1 {
		return Size - 1
	}
	return i
}

// Check re-verifies the table invariants: every delay fits the register,
// frequencies strictly increase and delays never increase with index.
func (t *Table) Check() error {
	limit := t.Options.Width.Max()
	for i, e := range t.entries {
		if e.Delay > limit {
			return errors.New(errors.ErrTableRange, fmt.Sprintf("entry %d delay %d exceeds register max %d", i, e.Delay, limit))
		}
		if i == 0 {
			continue
		}
		prev := t.entries[i-1]
		if !(e.Frequency > prev.Frequency) {
			return errors.New(errors.ErrTableRange, fmt.Sprintf("frequency not increasing at entry %d", i))
		}
		if e.Delay > prev.Delay {
			return errors.New(errors.ErrTableRange, fmt.Sprintf("delay increases at entry %d", i))
		}
	}
	return nil
}
