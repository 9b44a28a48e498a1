// Package levenshtein computes the Levenshtein edit distance between strings
// over runes: the minimum number of single-rune insertions, deletions and
// substitutions turning one string into the other.
//
// Patterns of up to 64 runes use the bit-parallel algorithm of Myers as
// described by Hyyrö (2001). Longer inputs fall back to the single-column
// dynamic program in O(min(m, n)) space.
package levenshtein

const (
	// wordBits is the longest pattern the bit-parallel path accepts.
	wordBits = 64

	// asciiMax bounds the precomputed pattern-match table.
	asciiMax = 256
)

// Context holds scratch buffers reused across Distance calls. A Context is
// not safe for concurrent use; the zero value is ready to use.
type Context struct {
	column []int
	peq    [asciiMax]uint64
}

// Distance returns the edit distance between a and b.
func (ctx *Context) Distance(a, b string) int {
	s1, s2 := []rune(a), []rune(b)

	// Keep the shorter string as the pattern.
	if len(s1) > len(s2) {
		s1, s2 = s2, s1
	}

	switch {
	case len(s1) == 0:
		return len(s2)
	case len(s1) <= wordBits:
		return ctx.myers(s1, s2)
	default:
		return ctx.columnDP(s1, s2)
	}
}

// Similarity returns 1 - Distance/max(len) in runes; two empty strings are
// identical.
func (ctx *Context) Similarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}

	return 1 - float64(ctx.Distance(a, b))/float64(longest)
}

// Distance is a convenience wrapper allocating a fresh Context.
func Distance(a, b string) int {
	var ctx Context

	return ctx.Distance(a, b)
}

func (ctx *Context) columnDP(s1, s2 []rune) int {
	if cap(ctx.column) < len(s1)+1 {
		ctx.column = make([]int, len(s1)+1)
	}

	column := ctx.column[:len(s1)+1]
	for i := range column {
		column[i] = i
	}

	for j, r2 := range s2 {
		diag := column[0]
		column[0] = j + 1

		for i, r1 := range s1 {
			cost := 1
			if r1 == r2 {
				cost = 0
			}

			above := column[i+1]
			column[i+1] = min(above+1, column[i]+1, diag+cost)
			diag = above
		}
	}

	return column[len(s1)]
}

// myers runs the bit-vector recurrence with s1 as the pattern. The peq table
// is zero on entry and restored to zero before returning.
func (ctx *Context) myers(s1, s2 []rune) int {
	for i, r := range s1 {
		if r < asciiMax {
			ctx.peq[r] |= 1 << i
		}
	}

	defer func() {
		for _, r := range s1 {
			if r < asciiMax {
				ctx.peq[r] = 0
			}
		}
	}()

	vp, vn := ^uint64(0), uint64(0)
	score := len(s1)
	last := uint64(1) << (len(s1) - 1)

	for _, r := range s2 {
		x := ctx.match(s1, r) | vn
		d0 := ((vp + (x & vp)) ^ vp) | x
		hn := vp & d0
		hp := vn | ^(d0 | vp)

		if hp&last != 0 {
			score++
		}

		if hn&last != 0 {
			score--
		}

		x = (hp << 1) | 1
		vn = x & d0
		vp = (hn << 1) | ^(x | d0)
	}

	return score
}

func (ctx *Context) match(s1 []rune, r rune) uint64 {
	if r < asciiMax {
		return ctx.peq[r]
	}

	var pm uint64

	for i, c := range s1 {
		if c == r {
			pm |= 1 << i
		}
	}

	return pm
}
