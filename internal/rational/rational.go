// Package rational implements exact fixed-point rational arithmetic used for
// all cycle-time accounting in the pattern engine. Floating point drifts over
// a long-running performance; rationals reduced to lowest terms do not.
package rational

import (
	"fmt"
	"math"
)

// Rational is an exact fraction Num/Den, always reduced to lowest terms with
// a positive denominator except for the special NaN/Inf sentinels below.
type Rational struct {
	num int64
	den int64
}

// Special denominator values used to represent non-finite results without a
// separate tagged union. A den of 0 makes the value special; its sign (num)
// distinguishes +Inf, -Inf and NaN.
const (
	specialDen = 0
	nanNum     = 0
)

var (
	// Zero is the additive identity.
	Zero = Rational{num: 0, den: 1}
	// One is the multiplicative identity.
	One = Rational{num: 1, den: 1}
	// PosInf represents +infinity.
	PosInf = Rational{num: 1, den: specialDen}
	// NegInf represents -infinity.
	NegInf = Rational{num: -1, den: specialDen}
	// NaN represents an undefined result (0/0, Inf-Inf, etc).
	NaN = Rational{num: nanNum, den: specialDen}
)

// New builds a Rational from a numerator and a nonzero denominator, reducing
// it to lowest terms with a normalized sign. Division by zero yields a signed
// infinity (or NaN for 0/0) rather than panicking.
func New(num, den int64) Rational {
	if den == 0 {
		switch {
		case num > 0:
			return PosInf
		case num < 0:
			return NegInf
		default:
			return NaN
		}
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(absInt64(num), den)
	if g == 0 {
		g = 1
	}
	return Rational{num: num / g, den: den / g}
}

// FromInt builds a whole-number Rational.
func FromInt(n int64) Rational { return Rational{num: n, den: 1} }

// FromFloat approximates f as a rational with a bounded denominator. Used only
// at DSL boundaries (e.g. user-supplied float durations); internal arithmetic
// never goes through float64.
func FromFloat(f float64) Rational {
	if math.IsNaN(f) {
		return NaN
	}
	if math.IsInf(f, 1) {
		return PosInf
	}
	if math.IsInf(f, -1) {
		return NegInf
	}
	const denom = int64(1) << 32
	return New(int64(math.Round(f*float64(denom))), denom)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func absInt64(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}

// IsNaN reports whether r is the NaN sentinel.
func (r Rational) IsNaN() bool { return r.den == specialDen && r.num == 0 }

// IsInf reports whether r is +Inf or -Inf.
func (r Rational) IsInf() bool { return r.den == specialDen && r.num != 0 }

// IsFinite reports whether r is an ordinary reduced fraction.
func (r Rational) IsFinite() bool { return r.den != specialDen }

// Num returns the reduced numerator.
func (r Rational) Num() int64 { return r.num }

// Den returns the reduced, always-positive denominator (0 for non-finite).
func (r Rational) Den() int64 { return r.den }

// Add returns r + other.
func (r Rational) Add(other Rational) Rational {
	if r.IsNaN() || other.IsNaN() {
		return NaN
	}
	if r.IsInf() || other.IsInf() {
		return addInf(r, other)
	}
	return New(r.num*other.den+other.num*r.den, r.den*other.den)
}

func addInf(a, b Rational) Rational {
	switch {
	case a.IsInf() && b.IsInf():
		if (a.num > 0) != (b.num > 0) {
			return NaN
		}
		return a
	case a.IsInf():
		return a
	default:
		return b
	}
}

// Sub returns r - other.
func (r Rational) Sub(other Rational) Rational { return r.Add(other.Neg()) }

// Neg returns -r.
func (r Rational) Neg() Rational {
	if r.IsNaN() {
		return NaN
	}
	if r.IsInf() {
		return Rational{num: -r.num, den: specialDen}
	}
	return Rational{num: -r.num, den: r.den}
}

// Mul returns r * other.
func (r Rational) Mul(other Rational) Rational {
	if r.IsNaN() || other.IsNaN() {
		return NaN
	}
	if r.IsInf() || other.IsInf() {
		sign := r.Sign() * other.Sign()
		if sign == 0 {
			return NaN
		}
		if sign > 0 {
			return PosInf
		}
		return NegInf
	}
	return New(r.num*other.num, r.den*other.den)
}

// Div returns r / other. Division by zero yields a signed infinity (or NaN
// for 0/0), never a panic.
func (r Rational) Div(other Rational) Rational {
	if r.IsNaN() || other.IsNaN() {
		return NaN
	}
	if other.IsFinite() && other.num == 0 {
		return New(r.Sign(), 0)
	}
	if other.IsInf() {
		if r.IsInf() {
			return NaN
		}
		return Zero
	}
	return r.Mul(Rational{num: other.den, den: other.num})
}

// Mod returns the remainder of r with the same sign convention as Floor:
// r.Mod(m) is always in [0, m) for positive m.
func (r Rational) Mod(m Rational) Rational {
	if r.IsNaN() || m.IsNaN() || m.IsInf() || (m.IsFinite() && m.num == 0) {
		return NaN
	}
	q := r.Div(m).Floor()
	return r.Sub(m.Mul(FromInt(q)))
}

// Sign returns -1, 0, or 1.
func (r Rational) Sign() int64 {
	switch {
	case r.num > 0:
		return 1
	case r.num < 0:
		return -1
	default:
		return 0
	}
}

// Floor returns the largest integer <= r, as an int64.
func (r Rational) Floor() int64 {
	if r.den == 1 {
		return r.num
	}
	q := r.num / r.den
	if r.num%r.den != 0 && (r.num < 0) != (r.den < 0) {
		q--
	}
	return q
}

// Ceil returns the smallest integer >= r.
func (r Rational) Ceil() int64 {
	f := r.Floor()
	if r.Sub(FromInt(f)).Sign() == 0 {
		return f
	}
	return f + 1
}

// Frac returns the fractional part, r - floor(r), always in [0, 1).
func (r Rational) Frac() Rational { return r.Sub(FromInt(r.Floor())) }

// Cmp returns -1, 0, or 1 comparing r to other. NaN compares as neither
// less, equal, nor greater than anything, including itself; Cmp returns 0 in
// that case by convention since callers must check IsNaN separately.
func (r Rational) Cmp(other Rational) int {
	d := r.Sub(other)
	if d.IsNaN() {
		return 0
	}
	return int(d.Sign())
}

// Lt, Lte, Gt, Gte, Equal are convenience wrappers around Cmp.
func (r Rational) Lt(o Rational) bool  { return r.Cmp(o) < 0 }
func (r Rational) Lte(o Rational) bool { return r.Cmp(o) <= 0 }
func (r Rational) Gt(o Rational) bool  { return r.Cmp(o) > 0 }
func (r Rational) Gte(o Rational) bool { return r.Cmp(o) >= 0 }
func (r Rational) Equal(o Rational) bool {
	if r.IsNaN() || o.IsNaN() {
		return false
	}
	return r.num == o.num && r.den == o.den
}

// Min returns whichever of r, other compares smaller.
func (r Rational) Min(other Rational) Rational {
	if r.Lt(other) {
		return r
	}
	return other
}

// Max returns whichever of r, other compares larger.
func (r Rational) Max(other Rational) Rational {
	if r.Gt(other) {
		return r
	}
	return other
}

// Float64 converts to a float64, for boundaries that need it (rendering,
// logging). Never use this mid-computation inside the pattern engine.
func (r Rational) Float64() float64 {
	if r.IsNaN() {
		return math.NaN()
	}
	if r.IsInf() {
		if r.num > 0 {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return float64(r.num) / float64(r.den)
}

// String renders "num/den", "Infinity", "-Infinity" or "NaN".
func (r Rational) String() string {
	switch {
	case r.IsNaN():
		return "NaN"
	case r.IsInf():
		if r.num > 0 {
			return "Infinity"
		}
		return "-Infinity"
	case r.den == 1:
		return fmt.Sprintf("%d", r.num)
	default:
		return fmt.Sprintf("%d/%d", r.num, r.den)
	}
}
