package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bioab/abscribe/internal/msa"
	"github.com/bioab/abscribe/internal/seqio"
)

// readBiologicsFASTA parses a FASTA stream using the ">biologic|chain"
// header convention: each record names the biologic it belongs to and
// the chain within that biologic (e.g. ">trastuzumab|heavy"). A header
// with no "|" is treated as a single-chain biologic named after itself.
func readBiologicsFASTA(r io.Reader) (map[string]map[string]seqio.Sequence, []string, error) {
	biologics := make(map[string]map[string]seqio.Sequence)
	var order []string

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var (
		biologic, chain string
		letters         strings.Builder
	)

	flush := func() error {
		if biologic == "" {
			return nil
		}
		seq, err := seqio.New(chain, letters.String())
		if err != nil {
			return fmt.Errorf("sequence %s|%s: %w", biologic, chain, err)
		}
		if _, ok := biologics[biologic]; !ok {
			biologics[biologic] = make(map[string]seqio.Sequence)
			order = append(order, biologic)
		}
		biologics[biologic][chain] = seq
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			if err := flush(); err != nil {
				return nil, nil, err
			}
			header := strings.TrimPrefix(line, ">")
			if idx := strings.IndexByte(header, '|'); idx >= 0 {
				biologic, chain = header[:idx], header[idx+1:]
			} else {
				biologic, chain = header, header
			}
			letters.Reset()
			continue
		}
		letters.WriteString(strings.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan FASTA: %w", err)
	}
	if err := flush(); err != nil {
		return nil, nil, err
	}
	return biologics, order, nil
}

// readNamedSequencesFASTA parses a plain FASTA stream into MSA input
// sequences, one per header, in file order.
func readNamedSequencesFASTA(r io.Reader) ([]msa.NamedSequence, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var (
		out     []msa.NamedSequence
		name    string
		letters strings.Builder
	)

	flush := func() {
		if name != "" {
			out = append(out, msa.NamedSequence{Name: name, Original: letters.String()})
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			flush()
			name = strings.TrimPrefix(line, ">")
			letters.Reset()
			continue
		}
		letters.WriteString(strings.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan FASTA: %w", err)
	}
	flush()
	return out, nil
}
