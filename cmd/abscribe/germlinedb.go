package main

import (
	"fmt"
	"strings"

	"github.com/bioab/abscribe/internal/germlinedb"
)

// openGermlineDB opens the Germline Gene Store named by path, used by
// annotate/msa/serve-jobs to validate germline calls against a loaded
// reference. An empty path disables germline validation entirely. A
// path ending in .fasta/.fasta.gz is treated as a germline gene bundle
// and loaded into an in-memory store (the convenience path for
// `abscribe download --artifact germline-db` output); anything else is
// opened directly as a DuckDB file, created if it does not exist.
func openGermlineDB(path string) (*germlinedb.Store, error) {
	if path == "" {
		return nil, nil
	}

	if strings.HasSuffix(path, ".fasta") || strings.HasSuffix(path, ".fasta.gz") {
		store, err := germlinedb.Open("")
		if err != nil {
			return nil, fmt.Errorf("open in-memory germline db: %w", err)
		}
		if _, err := store.LoadFASTA(path); err != nil {
			store.Close()
			return nil, fmt.Errorf("load germline bundle %s: %w", path, err)
		}
		return store, nil
	}

	return germlinedb.Open(path)
}
