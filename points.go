package granular

import "math"

// PointEpsilon is the minimum normalized distance kept between the start and
// the end point.
const PointEpsilon = 0.001

// Points are the start, end and loop points of a sample, normalized to 0..1
// of the sample length. A valid set of points has 0 <= Start <= Loop <= End <=
// 1 and End-Start >= PointEpsilon.
//
// The With* methods apply one edit and then restore the invariant with a
// fixed set of tie-break rules, so that the edited value wins whenever
// possible. They never need more than one pass.
type Points struct {
	Start float64
	End   float64
	Loop  float64
}

// FullRange is the default: the whole sample, looping from the beginning.
var FullRange = Points{Start: 0, End: 1, Loop: 0}

// WithStart returns p with the start point moved to v.
func (p Points) WithStart(v float64) Points {
	p.Start = clamp01(v)
	return p.fixStartEnd()
}

// WithEnd returns p with the end point moved to v.
func (p Points) WithEnd(v float64) Points {
	p.End = clamp01(v)
	return p.fixStartEnd()
}

// WithLoop returns p with the loop point moved to v.
func (p Points) WithLoop(v float64) Points {
	p.Loop = clamp01(v)
	if p.Loop >= p.End {
		p.End = p.Loop + PointEpsilon
		if p.End >= 1 {
			p.End = 1
			p.Loop = 1 - PointEpsilon
		}
	}
	if p.Loop < p.Start {
		p.Start = p.Loop
	}
	return p
}

// Normalized returns the points clamped to 0..1 and ordered, treating the
// start and end as authoritative. It is used for points read from files.
func (p Points) Normalized() Points {
	p.Start, p.End = clamp01(p.Start), clamp01(p.End)
	p.Loop = clamp01(p.Loop)
	return p.fixStartEnd()
}

// Valid reports whether the points satisfy the ordering invariant. tolerance
// absorbs floating point rounding in the separation check.
func (p Points) Valid(tolerance float64) bool {
	return 0 <= p.Start && p.Start <= p.Loop && p.Loop <= p.End && p.End <= 1 &&
		p.End-p.Start >= PointEpsilon-tolerance
}

func (p Points) fixStartEnd() Points {
	if p.Start > p.End {
		p.Start, p.End = p.End, p.Start
	}
	if p.End-p.Start < PointEpsilon {
		p.End = math.Min(p.Start+PointEpsilon, 1)
		if p.End-p.Start < PointEpsilon {
			p.Start = math.Max(p.End-PointEpsilon, 0)
		}
	}
	if p.Loop >= p.End {
		p.Loop = math.Max(p.End-PointEpsilon, 0)
	}
	if p.Loop < p.Start {
		p.Loop = p.Start
	}
	return p
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
