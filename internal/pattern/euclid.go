package pattern

import "github.com/schollz/collidertracker/internal/rational"

// bjorklund computes the Euclidean rhythm distribution of k pulses across n
// steps using Bjorklund's algorithm (the same bucket-bresenham construction
// used by E(k,n) in the mini-notation). The result is cached by the caller
// since it is pure in (k, n).
func bjorklund(k, n int) []bool {
	if n <= 0 {
		return nil
	}
	if k <= 0 {
		return make([]bool, n)
	}
	if k >= n {
		out := make([]bool, n)
		for i := range out {
			out[i] = true
		}
		return out
	}

	groups := make([][]bool, n)
	for i := 0; i < k; i++ {
		groups[i] = []bool{true}
	}
	for i := k; i < n; i++ {
		groups[i] = []bool{false}
	}

	remainder := n - k
	for remainder > 1 {
		pairs := k
		if remainder < pairs {
			pairs = remainder
		}
		if pairs < 1 {
			break
		}
		newGroups := make([][]bool, 0, len(groups))
		for i := 0; i < pairs; i++ {
			merged := append(append([]bool{}, groups[i]...), groups[len(groups)-pairs+i]...)
			newGroups = append(newGroups, merged)
		}
		leftover := groups[pairs : len(groups)-pairs]
		newGroups = append(newGroups, leftover...)

		groups = newGroups
		k = pairs
		remainder = len(groups) - pairs
		if pairs == 0 {
			break
		}
	}

	var out []bool
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// rotate shifts bits left by r positions (wrapping), implementing the
// euclidean pattern's optional rotation parameter.
func rotate(bits []bool, r int) []bool {
	n := len(bits)
	if n == 0 {
		return bits
	}
	r = ((r % n) + n) % n
	out := make([]bool, n)
	for i := range bits {
		out[i] = bits[(i+r)%n]
	}
	return out
}

// Euclid builds the k-of-n Euclidean rhythm pattern for child, with
// optional rotation. Each active step occupies one of n equal slices of a
// cycle and carries one copy of child, focused onto that slice; rest steps
// are silent. The bit pattern is computed once (it depends only on k, n, r)
// and shared across every query.
func Euclid(child Pattern, k, n, rotation int) Pattern {
	if n <= 0 {
		return Silence
	}
	bits := rotate(bjorklund(k, n), rotation)
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		var out []Event
		for _, cycleArc := range (TimeSpan{Begin: from, End: to}).CycleArcs() {
			c := cycleArc.Begin.Floor()
			step := rational.New(1, int64(n))
			for i, active := range bits {
				if !active {
					continue
				}
				s := rational.FromInt(c).Add(step.Mul(rational.FromInt(int64(i))))
				e := s.Add(step)
				span := TimeSpan{Begin: s, End: e}
				out = append(out, focusSpan(child, span).Query(cycleArc.Begin, cycleArc.End, ctx)...)
			}
		}
		return out
	})
}
