package scoring

// band maps one percentile interval onto a score interval. A boundary
// percentile belongs to the band whose floor it equals, so selection scans
// from the highest floor down and takes the first band with p >= lo.
type band struct {
	lo, hi           float64
	scoreLo, scoreHi float64
}

// dimension is one scoring factor: its point cap, the neutral score used
// when the fund lacks the field or the cohort pool is empty, the ranking
// direction, and the band table.
type dimension struct {
	name          string
	max           float64
	neutral       float64
	lowerIsBetter bool
	bands         []band // highest percentile floor first
}

var (
	feeDimension = dimension{
		name:          "fee",
		max:           15,
		neutral:       8,
		lowerIsBetter: true,
		bands: []band{
			{0.9, 1.0, 13, 15},
			{0.7, 0.9, 11, 12},
			{0.3, 0.7, 9, 10},
			{0.1, 0.3, 6, 8},
			{0.0, 0.1, 0, 5},
		},
	}

	scaleDimension = dimension{
		name:          "scale",
		max:           15,
		neutral:       8,
		lowerIsBetter: true,
		bands: []band{
			{0.7, 1.0, 12, 15},
			{0.5, 0.7, 10, 11},
			{0.3, 0.5, 9, 10},
			{0.15, 0.3, 4, 8},
			{0.0, 0.15, 0, 4},
		},
	}

	shortTermDimension = dimension{
		name:    "short_term",
		max:     20,
		neutral: 10,
		bands: []band{
			{0.9, 1.0, 18, 20},
			{0.7, 0.9, 15, 17},
			{0.3, 0.7, 12, 14},
			{0.1, 0.3, 8, 11},
			{0.0, 0.1, 0, 7},
		},
	}

	longTermDimension = dimension{
		name:    "long_term",
		max:     25,
		neutral: 12,
		bands: []band{
			{0.9, 1.0, 22, 25},
			{0.7, 0.9, 18, 21},
			{0.3, 0.7, 14, 17},
			{0.1, 0.3, 10, 13},
			{0.0, 0.1, 0, 9},
		},
	}

	excessDimension = dimension{
		name:    "excess",
		max:     10,
		neutral: 5,
		bands: []band{
			{0.9, 1.0, 9, 10},
			{0.7, 0.9, 7, 8},
			{0.3, 0.7, 5, 6},
			{0.1, 0.3, 2, 4},
			{0.0, 0.1, 0, 1},
		},
	}

	stabilityDimension = dimension{
		name:    "stability",
		max:     15,
		neutral: 8,
		bands: []band{
			{0.9, 1.0, 12, 15},
			{0.7, 0.9, 10, 11},
			{0.3, 0.7, 8, 9},
			{0.1, 0.3, 5, 7},
			{0.0, 0.1, 0, 4},
		},
	}
)

// percentile is the inclusive rank of v within the pool: the fraction of
// values no better than v, where "better" follows the dimension direction.
// A fund counts against itself, so a value present in its own pool always
// lands above zero and a single-fund cohort sits at 1.0.
func (d dimension) percentile(pool []float64, v float64) float64 {
	if len(pool) == 0 {
		return 0
	}
	n := 0
	for _, x := range pool {
		if d.lowerIsBetter {
			if x >= v {
				n++
			}
		} else {
			if x <= v {
				n++
			}
		}
	}
	return float64(n) / float64(len(pool))
}

// score interpolates the percentile linearly inside its band,
// s = scoreLo + (p-lo)/(hi-lo)*(scoreHi-scoreLo), clamped to [0, max].
func (d dimension) score(p float64) float64 {
	b := d.bands[len(d.bands)-1]
	for _, c := range d.bands {
		if p >= c.lo {
			b = c
			break
		}
	}
	s := b.scoreLo
	if b.hi > b.lo {
		s += (p - b.lo) / (b.hi - b.lo) * (b.scoreHi - b.scoreLo)
	}
	if s < 0 {
		return 0
	}
	if s > d.max {
		return d.max
	}
	return s
}

// relative scores v against the cohort pool. Funds without the field and
// empty pools get the neutral score instead of a percentile.
func (d dimension) relative(pool []float64, v float64, ok bool) float64 {
	if !ok || len(pool) == 0 {
		return d.neutral
	}
	return d.score(d.percentile(pool, v))
}
