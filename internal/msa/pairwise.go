package msa

import "strings"

// PairwiseAligner is a standalone affine-gap dynamic-programming
// aligner (Needleman-Wunsch for global, Smith-Waterman for local) over
// the BLOSUM62 substitution matrix, reimplemented in Go rather than
// delegating to an external library the way the original's BioPython
// pairwise path does.
type PairwiseAligner struct {
	GapOpen   float64 // typically <= 0
	GapExtend float64 // typically <= 0
}

// NewPairwiseAligner builds a PairwiseAligner with the given gap
// penalties.
func NewPairwiseAligner(gapOpen, gapExtend float64) *PairwiseAligner {
	return &PairwiseAligner{GapOpen: gapOpen, GapExtend: gapExtend}
}

// AlignGlobal aligns a and b end-to-end (Needleman-Wunsch with affine
// gaps), returning the two aligned strings at equal length.
func (p *PairwiseAligner) AlignGlobal(a, b string) (string, string) {
	return p.align(a, b, true)
}

// AlignLocal aligns the best-scoring local region of a and b
// (Smith-Waterman with affine gaps), returning the two aligned
// substrings padded with gaps to equal length against the full inputs.
func (p *PairwiseAligner) AlignLocal(a, b string) (string, string) {
	return p.align(a, b, false)
}

// Three-matrix affine-gap DP: M (match/mismatch), X (gap in a), Y (gap
// in b). Traceback reconstructs the alignment from the best-scoring
// matrix at each cell.
const negInf = -1e18

type cell struct {
	m, x, y float64
}

func (p *PairwiseAligner) align(a, b string, global bool) (string, string) {
	n, m := len(a), len(b)
	dp := make([][]cell, n+1)
	for i := range dp {
		dp[i] = make([]cell, m+1)
	}

	floor := negInf
	if !global {
		floor = 0
	}

	for i := 0; i <= n; i++ {
		for j := 0; j <= m; j++ {
			if i == 0 && j == 0 {
				dp[i][j] = cell{m: 0, x: floor, y: floor}
				continue
			}
			var match, gapA, gapB float64 = floor, floor, floor

			if i > 0 && j > 0 {
				s := float64(substitutionScore(a[i-1], b[j-1]))
				prev := dp[i-1][j-1]
				match = maxOf(prev.m, prev.x, prev.y) + s
			} else if global {
				match = floor
			}

			if i > 0 {
				prev := dp[i-1][j]
				gapA = maxOf(prev.m+p.GapOpen, prev.x+p.GapExtend, prev.y+p.GapOpen)
			}
			if j > 0 {
				prev := dp[i][j-1]
				gapB = maxOf(prev.m+p.GapOpen, prev.x+p.GapOpen, prev.y+p.GapExtend)
			}

			if !global {
				match = maxf(match, 0)
				gapA = maxf(gapA, 0)
				gapB = maxf(gapB, 0)
			}

			dp[i][j] = cell{m: match, x: gapA, y: gapB}
		}
	}

	endI, endJ := n, m
	if !global {
		best := 0.0
		for i := 0; i <= n; i++ {
			for j := 0; j <= m; j++ {
				c := maxOf(dp[i][j].m, dp[i][j].x, dp[i][j].y)
				if c > best {
					best = c
					endI, endJ = i, j
				}
			}
		}
	}

	outA, outB, startI, startJ := traceback(a, b, dp, endI, endJ, global)
	if global {
		return outA, outB
	}
	// Pad the local core with the unaligned flanks of both inputs so
	// each output, with gaps removed, is its full input.
	preA := a[:startI] + strings.Repeat("-", startJ)
	preB := strings.Repeat("-", startI) + b[:startJ]
	sufA := a[endI:] + strings.Repeat("-", m-endJ)
	sufB := strings.Repeat("-", n-endI) + b[endJ:]
	return preA + outA + sufA, preB + outB + sufB
}

func traceback(a, b string, dp [][]cell, i, j int, global bool) (string, string, int, int) {
	var outA, outB []byte
	for i > 0 || j > 0 {
		if !global && i > 0 && j > 0 {
			c := dp[i][j]
			if maxOf(c.m, c.x, c.y) <= 0 {
				break
			}
		}

		switch {
		case i > 0 && j > 0 && bestState(dp[i][j]) == 0:
			outA = append([]byte{a[i-1]}, outA...)
			outB = append([]byte{b[j-1]}, outB...)
			i--
			j--
		case i > 0 && bestState(dp[i][j]) == 1:
			outA = append([]byte{a[i-1]}, outA...)
			outB = append([]byte{'-'}, outB...)
			i--
		case j > 0 && bestState(dp[i][j]) == 2:
			outA = append([]byte{'-'}, outA...)
			outB = append([]byte{b[j-1]}, outB...)
			j--
		case i > 0:
			outA = append([]byte{a[i-1]}, outA...)
			outB = append([]byte{'-'}, outB...)
			i--
		case j > 0:
			outA = append([]byte{'-'}, outA...)
			outB = append([]byte{b[j-1]}, outB...)
			j--
		default:
			i, j = 0, 0
		}
	}
	return string(outA), string(outB), i, j
}

func bestState(c cell) int {
	switch {
	case c.m >= c.x && c.m >= c.y:
		return 0
	case c.x >= c.y:
		return 1
	default:
		return 2
	}
}

func maxOf(vals ...float64) float64 {
	best := vals[0]
	for _, v := range vals[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
