package germlinedb

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadFASTA populates the store from a germline gene FASTA bundle.
// Headers follow the convention:
//
//	>species|chain_type|segment|gene_id|allele
//
// e.g. >human|H|V|IGHV1-2|*02
//
// Gzipped bundles (.gz suffix) are handled transparently.
func (s *Store) LoadFASTA(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open germline FASTA: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return 0, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return s.loadFASTAReader(reader)
}

func (s *Store) loadFASTAReader(reader io.Reader) (int, error) {
	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var (
		header  string
		letters strings.Builder
		loaded  int
	)

	flush := func() error {
		if header == "" {
			return nil
		}
		gene, err := parseGermlineHeader(header, letters.String())
		if err != nil {
			return err
		}
		if err := s.Upsert(gene); err != nil {
			return fmt.Errorf("upsert germline gene %s: %w", gene.ID, err)
		}
		loaded++
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			if err := flush(); err != nil {
				return loaded, err
			}
			header = strings.TrimPrefix(line, ">")
			letters.Reset()
			continue
		}
		letters.WriteString(strings.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return loaded, fmt.Errorf("scan germline FASTA: %w", err)
	}
	if err := flush(); err != nil {
		return loaded, err
	}
	return loaded, nil
}

func parseGermlineHeader(header, sequence string) (Gene, error) {
	parts := strings.Split(header, "|")
	if len(parts) < 4 {
		return Gene{}, fmt.Errorf("malformed germline header %q: want species|chain_type|segment|gene_id[|allele]", header)
	}
	g := Gene{
		Species:   parts[0],
		ChainType: parts[1],
		Segment:   parts[2],
		ID:        parts[3],
		Sequence:  sequence,
	}
	if len(parts) >= 5 {
		g.Allele = parts[4]
	}
	return g, nil
}
