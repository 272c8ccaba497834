// Package timing models the firmware's frequency loop: how many clock cycles
// one output period takes for a given halt count, and the frequency bounds
// that follow from it.
//
// One period of the loop is freq_loop_moves moves of move_cycles each,
// followed by delay iterations of a halt block costing halt_cycles each:
//
//	period_cycles(delay) = freq_loop_moves*move_cycles + delay*halt_cycles
//
// The halt counter covers 0..256 iterations, so the shortest period is the
// bare loop (f_max) and the longest adds 256 halts (f_min).
package timing

import (
	"math"

	"stepper-delay-table/pkg/errors"
)

// HaltSteps is the number of halt iterations that spans the full delay
// range, and also the number of entries in the lookup table.
const HaltSteps = 256

// Compiled-in firmware constants.
const (
	DefaultClockHz        = 125000
	DefaultMoveCycles     = 24
	DefaultHaltCycles     = 8
	DefaultFreqLoopMoves  = 22
	DefaultOuterLoopMoves = 27
)

// Constants holds the clock frequency and instruction-cycle costs of the
// firmware code paths.
type Constants struct {
	ClockHz       int64 // MCU clock in Hz
	MoveCycles    int64 // cycles per move instruction
	HaltCycles    int64 // cycles per halt-block iteration
	FreqLoopMoves int64 // moves in one pass of the frequency loop

	// OuterLoopMoves is the length of the per-note bookkeeping loop. Only
	// song compilation uses it.
	OuterLoopMoves int64
}

// Defaults returns the compiled-in constants.
func Defaults() Constants {
	return Constants{
		ClockHz:        DefaultClockHz,
		MoveCycles:     DefaultMoveCycles,
		HaltCycles:     DefaultHaltCycles,
		FreqLoopMoves:  DefaultFreqLoopMoves,
		OuterLoopMoves: DefaultOuterLoopMoves,
	}
}

// Validate checks that the four table constants are positive. The first
// offending option is reported.
func (c Constants) Validate() error {
	for _, opt := range []struct {
		name  string
		value int64
	}{
		{"clock_hz", c.ClockHz},
		{"move_cycles", c.MoveCycles},
		{"halt_cycles", c.HaltCycles},
		{"freq_loop_moves", c.FreqLoopMoves},
	} {
		if opt.value <= 0 {
			return errors.NonPositiveError(opt.name, opt.value)
		}
	}
	return nil
}

// LoopCycles returns the cycles of one frequency loop pass without halts.
func (c Constants) LoopCycles() int64 {
	return c.FreqLoopMoves * c.MoveCycles
}

// PeriodCycles returns the cycles of one output period with delay halts.
// delay may be fractional.
func (c Constants) PeriodCycles(delay float64) float64 {
	return float64(c.LoopCycles()) + delay*float64(c.HaltCycles)
}

// CyclesToSeconds converts a cycle count to seconds.
func (c Constants) CyclesToSeconds(cycles float64) float64 {
	return cycles / float64(c.ClockHz)
}

// SecondsToCycles converts seconds to a (fractional) cycle count.
func (c Constants) SecondsToCycles(seconds float64) float64 {
	return seconds * float64(c.ClockHz)
}

// FrequencyForDelay returns the output frequency in Hz produced by delay
// halts. This is the firmware's side of the table.
func (c Constants) FrequencyForDelay(delay float64) float64 {
	return float64(c.ClockHz) / c.PeriodCycles(delay)
}

// DelayForFrequency returns the exact, unrounded halt count that produces
// freq. Frequencies above the bare loop rate give negative results.
func (c Constants) DelayForFrequency(freq float64) float64 {
	return (float64(c.ClockHz)/freq - float64(c.LoopCycles())) / float64(c.HaltCycles)
}

// OuterLoopSeconds returns the duration of the per-note bookkeeping loop.
func (c Constants) OuterLoopSeconds() float64 {
	return c.CyclesToSeconds(float64(c.OuterLoopMoves * c.MoveCycles))
}

// Bounds holds the derived period and frequency limits.
type Bounds struct {
	TMin float64 // seconds, bare loop
	TMax float64 // seconds, loop plus HaltSteps halts
	FMin float64 // Hz, 1/TMax
	FMax float64 // Hz, 1/TMin
}

// Ratio returns FMax/FMin.
func (b Bounds) Ratio() float64 {
	return b.FMax / b.FMin
}

// Bounds validates c and derives the period and frequency limits. A range
// whose ratio is not above 1 leaves no room for a logarithmic distribution
// and is rejected, as are constants whose longest period overflows int64.
func (c Constants) Bounds() (Bounds, error) {
	if err := c.Validate(); err != nil {
		return Bounds{}, err
	}
	if c.FreqLoopMoves > math.MaxInt64/c.MoveCycles ||
		c.HaltCycles > (math.MaxInt64-c.LoopCycles())/HaltSteps {
		return Bounds{}, errors.CycleOverflowError(c.FreqLoopMoves, c.MoveCycles, c.HaltCycles)
	}

	b := Bounds{
		TMin: c.CyclesToSeconds(c.PeriodCycles(0)),
		TMax: c.CyclesToSeconds(c.PeriodCycles(HaltSteps)),
	}
	b.FMin = 1 / b.TMax
	b.FMax = 1 / b.TMin

	if !(b.Ratio() > 1) {
		return Bounds{}, errors.DegenerateRangeError(b.FMin, b.FMax)
	}
	return b, nil
}
