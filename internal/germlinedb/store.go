// Package germlinedb provides a queryable cache of germline V/J gene
// sequences, backed by DuckDB so a ship-time germline database can be
// loaded once and queried by species/chain type across many runs
// without re-parsing a flat file per process.
package germlinedb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding the germline gene table.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a germline database at path. An empty path
// opens an in-memory database, useful for tests and for building a
// database from a FASTA bundle on the fly at request time.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create germline db directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open germline db: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS germline_genes (
		gene_id VARCHAR,
		species VARCHAR,
		chain_type VARCHAR,
		segment VARCHAR,
		allele VARCHAR,
		sequence VARCHAR,
		PRIMARY KEY (gene_id)
	)`)
	return err
}

// Gene is one row of the germline gene table.
type Gene struct {
	ID        string
	Species   string
	ChainType string
	Segment   string
	Allele    string
	Sequence  string
}

// Upsert inserts or replaces a germline gene row.
func (s *Store) Upsert(g Gene) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO germline_genes
		(gene_id, species, chain_type, segment, allele, sequence)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Species, g.ChainType, g.Segment, g.Allele, g.Sequence)
	return err
}

// ForSpeciesAndChain returns every germline gene row registered for a
// given species/chain-type pair, used to resolve an assembled Variable
// Domain's best germline hit to its gene record by gene id.
func (s *Store) ForSpeciesAndChain(species, chainType string) ([]Gene, error) {
	rows, err := s.db.Query(`SELECT gene_id, species, chain_type, segment, allele, sequence
		FROM germline_genes WHERE species = ? AND chain_type = ?`, species, chainType)
	if err != nil {
		return nil, fmt.Errorf("query germline genes: %w", err)
	}
	defer rows.Close()

	var genes []Gene
	for rows.Next() {
		var g Gene
		if err := rows.Scan(&g.ID, &g.Species, &g.ChainType, &g.Segment, &g.Allele, &g.Sequence); err != nil {
			return nil, fmt.Errorf("scan germline gene: %w", err)
		}
		genes = append(genes, g)
	}
	return genes, rows.Err()
}

// Count returns the total number of registered germline genes.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM germline_genes`).Scan(&n)
	return n, err
}
