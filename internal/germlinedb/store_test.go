package germlinedb

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_CreatesSchemaAndRoundTripsGene(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "germline.duckdb")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	gene := Gene{ID: "IGHV1-2", Species: "human", ChainType: "H", Segment: "V", Allele: "*02", Sequence: "EVQLVESGGGLVQPGGSLRLSCAAS"}
	if err := s.Upsert(gene); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	genes, err := s.ForSpeciesAndChain("human", "H")
	if err != nil {
		t.Fatalf("ForSpeciesAndChain: %v", err)
	}
	if len(genes) != 1 || genes[0].ID != "IGHV1-2" {
		t.Fatalf("unexpected genes: %+v", genes)
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("Count = %d, want 1", count)
	}
}

func TestLoadFASTA_ParsesHeaderConventionAndUpsertsGenes(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	fasta := ">human|H|V|IGHV1-2|*02\nEVQLVESGGGLVQPGGSLRLSCAAS\n>mouse|K|J|IGKJ1\nWTFGQGTKVEIK\n"
	n, err := s.loadFASTAReader(strings.NewReader(fasta))
	if err != nil {
		t.Fatalf("loadFASTAReader: %v", err)
	}
	if n != 2 {
		t.Fatalf("loaded = %d, want 2", n)
	}

	human, err := s.ForSpeciesAndChain("human", "H")
	if err != nil {
		t.Fatalf("ForSpeciesAndChain: %v", err)
	}
	if len(human) != 1 || human[0].Allele != "*02" {
		t.Fatalf("unexpected human genes: %+v", human)
	}

	mouse, err := s.ForSpeciesAndChain("mouse", "K")
	if err != nil {
		t.Fatalf("ForSpeciesAndChain: %v", err)
	}
	if len(mouse) != 1 || mouse[0].Allele != "" {
		t.Fatalf("unexpected mouse genes: %+v", mouse)
	}
}

func TestParseGermlineHeader_RejectsMalformedHeader(t *testing.T) {
	if _, err := parseGermlineHeader("human|H", "AAA"); err == nil {
		t.Fatalf("expected error for malformed header")
	}
}
