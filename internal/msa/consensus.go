package msa

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Consensus computes, per column of an aligned-sequence matrix, the
// majority non-gap letter, a conservation score, and an optional
// Shannon-entropy-derived quality score.
//
// consensus[i] is the most frequent non-gap letter in column i
// (lexicographic tie-break), or '-' if the column is all gaps.
//
// conservation[i] is 1.0 when every sequence agrees, 1/len(uniqueLetters)
// otherwise, and 0 when the column is all gaps.
//
// quality[i] is always computed (cheap relative to the rest of the
// pipeline) as 1 - H(column)/log2(20), so callers that don't need it
// simply don't read the slice.
func Consensus(matrix [][]byte) (consensus []byte, conservation []float64, quality []float64) {
	if len(matrix) == 0 {
		return nil, nil, nil
	}
	l := len(matrix[0])

	consensus = make([]byte, l)
	conservation = make([]float64, l)
	quality = make([]float64, l)

	for col := 0; col < l; col++ {
		counts := make(map[byte]int)
		for _, row := range matrix {
			if col >= len(row) {
				continue
			}
			if row[col] == '-' {
				continue
			}
			counts[row[col]]++
		}

		if len(counts) == 0 {
			consensus[col] = '-'
			conservation[col] = 0
			quality[col] = 0
			continue
		}

		consensus[col] = argmaxLetter(counts)
		conservation[col] = conservationScore(counts)
		quality[col] = qualityScore(counts)
	}

	return consensus, conservation, quality
}

func argmaxLetter(counts map[byte]int) byte {
	letters := make([]byte, 0, len(counts))
	for l := range counts {
		letters = append(letters, l)
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })

	best := letters[0]
	bestCount := counts[best]
	for _, l := range letters[1:] {
		if counts[l] > bestCount {
			best = l
			bestCount = counts[l]
		}
	}
	return best
}

func conservationScore(counts map[byte]int) float64 {
	if len(counts) == 1 {
		return 1.0
	}
	return 1.0 / float64(len(counts))
}

// qualityScore derives a [0,1] stability metric from the column's
// Shannon entropy over its observed letter frequencies, normalized by
// the maximum possible entropy over the 20-letter amino-acid alphabet.
func qualityScore(counts map[byte]int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}

	freqs := make([]float64, 0, len(counts))
	for _, c := range counts {
		freqs = append(freqs, float64(c)/float64(total))
	}

	h := stat.Entropy(freqs)
	maxEntropy := math.Log(20)
	if maxEntropy == 0 {
		return 0
	}
	q := 1 - h/maxEntropy
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}
	return q
}
