// Package bytesize scales raw byte counts to a human-sized magnitude and
// renders them with the matching unit label, e.g. "3.42 GiB" or "512.00 MB".
package bytesize

import "fmt"

// System is the numbering system a Formatter divides by.
type System uint16

const (
	// Decimal uses powers of 1000 (KB, MB, ...).
	Decimal System = 1000
	// Binary uses powers of 1024 (KiB, MiB, ...).
	Binary System = 1024
)

// String returns "decimal" or "binary".
func (s System) String() string {
	if s == Decimal {
		return "decimal"
	}
	return "binary"
}

// infix is inserted between the magnitude prefix and "B".
func (s System) infix() string {
	if s == Binary {
		return "i"
	}
	return ""
}

// Magnitude is one step on the Kilo..Exa scale. Its value is the exponent
// applied to the System base.
type Magnitude uint8

const (
	Kilo Magnitude = iota + 1
	Mega
	Giga
	Tera
	Peta
	Exa
)

// Magnitudes lists every magnitude in increasing order.
var Magnitudes = []Magnitude{Kilo, Mega, Giga, Tera, Peta, Exa}

var _prefixes = [...]string{"K", "M", "G", "T", "P", "E"}

// Prefix returns the unit prefix letter for m.
func (m Magnitude) Prefix() string { return _prefixes[m.clamp()-1] }

func (m Magnitude) clamp() Magnitude {
	switch {
	case m < Kilo:
		return Kilo
	case m > Exa:
		return Exa
	default:
		return m
	}
}

// Formatter renders byte counts against a fixed divisor and unit.
// The zero value is not usable; build one with New or Fit.
type Formatter struct {
	system    System
	magnitude Magnitude
	divisor   uint64
	unit      string
}

// New builds the Formatter for an explicit system and magnitude.
// Magnitudes outside Kilo..Exa are clamped into range.
func New(system System, magnitude Magnitude) Formatter {
	magnitude = magnitude.clamp()
	return Formatter{
		system:    system,
		magnitude: magnitude,
		divisor:   divisor(system, magnitude),
		unit:      magnitude.Prefix() + system.infix() + "B",
	}
}

// Fit picks the largest magnitude whose quotient for value is at least one.
// Values below one Kilo unit get Kilo. Values beyond Exa stay at Exa and may
// show a quotient of 1000 or more, since no larger magnitude exists.
func Fit(value uint64, system System) Formatter {
	last := Kilo
	for _, m := range Magnitudes {
		if float64(value)/float64(divisor(system, m)) < 1.0 {
			break
		}
		last = m
	}
	return New(system, last)
}

func divisor(system System, magnitude Magnitude) uint64 {
	d := uint64(1)
	for i := Magnitude(0); i < magnitude; i++ {
		d *= uint64(system)
	}
	return d
}

// Format renders value as "<quotient> <unit>" with two decimal places.
func (f Formatter) Format(value uint64) string {
	return f.Quotient(value) + " " + f.unit
}

// Quotient renders only the scaled number of value, without the unit.
func (f Formatter) Quotient(value uint64) string {
	return fmt.Sprintf("%.2f", float64(value)/float64(f.divisor))
}

// Unit returns the unit label, e.g. "KiB" or "GB".
func (f Formatter) Unit() string { return f.unit }

// Divisor returns base^exponent for the formatter's magnitude.
func (f Formatter) Divisor() uint64 { return f.divisor }

// Magnitude returns the selected magnitude.
func (f Formatter) Magnitude() Magnitude { return f.magnitude }

// System returns the numbering system.
func (f Formatter) System() System { return f.system }
