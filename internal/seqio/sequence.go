// Package seqio provides the immutable amino-acid Sequence type shared
// across the annotation and MSA pipelines, along with validation.
package seqio

import (
	"fmt"
	"strings"
)

// MinLength is the minimum number of residues a Sequence may contain.
const MinLength = 15

// aminoAcidLetters is the IUPAC twenty-letter amino-acid alphabet.
const aminoAcidLetters = "ACDEFGHIKLMNPQRSTVWY"

var isAminoAcid [256]bool

func init() {
	for i := 0; i < len(aminoAcidLetters); i++ {
		isAminoAcid[aminoAcidLetters[i]] = true
	}
}

// Sequence is an immutable, validated, upper-cased amino-acid string
// carrying an opaque name identifier.
type Sequence struct {
	name   string
	letters string
}

// InvalidSequenceError reports a failed amino-acid validation or length
// floor check. It is fatal for the chain it names.
type InvalidSequenceError struct {
	Name   string
	Reason string
}

func (e *InvalidSequenceError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid sequence %q: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("invalid sequence: %s", e.Reason)
}

// New validates and constructs a Sequence. Letters are upper-cased
// before validation so lower-case FASTA input is accepted.
func New(name, letters string) (Sequence, error) {
	upper := strings.ToUpper(strings.TrimSpace(letters))
	if len(upper) < MinLength {
		return Sequence{}, &InvalidSequenceError{
			Name:   name,
			Reason: fmt.Sprintf("length %d below minimum %d", len(upper), MinLength),
		}
	}
	for i := 0; i < len(upper); i++ {
		if !isAminoAcid[upper[i]] {
			return Sequence{}, &InvalidSequenceError{
				Name:   name,
				Reason: fmt.Sprintf("invalid residue %q at position %d", upper[i], i+1),
			}
		}
	}
	return Sequence{name: name, letters: upper}, nil
}

// Name returns the sequence's opaque identifier.
func (s Sequence) Name() string { return s.name }

// Letters returns the validated, upper-cased residue string.
func (s Sequence) Letters() string { return s.letters }

// Len returns the number of residues.
func (s Sequence) Len() int { return len(s.letters) }

// Slice returns the 0-based, end-exclusive substring [start:end).
func (s Sequence) Slice(start, end int) string {
	return s.letters[start:end]
}
