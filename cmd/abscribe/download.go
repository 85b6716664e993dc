package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// artifactURLs names the ship-time artifact bundles this tool knows
// how to fetch, keyed by the --artifact flag's value.
var artifactURLs = map[string]string{
	"isotype-hmms":     "https://artifacts.abscribe.bio/isotype-hmms/latest/isotype-hmms.tar.gz",
	"numbering-engine": "https://artifacts.abscribe.bio/numbering-engine/latest/numbering-engine.tar.gz",
	"germline-db":      "https://artifacts.abscribe.bio/germline-db/latest/germline-genes.fasta.gz",
}

func runDownload(args []string) int {
	fs := flag.NewFlagSet("download", flag.ExitOnError)

	var (
		artifact  string
		outputDir string
	)

	fs.StringVar(&artifact, "artifact", "", "Artifact to fetch: isotype-hmms, numbering-engine, germline-db")
	fs.StringVar(&outputDir, "output", "", "Destination directory (default: ~/.abscribe/hmms for isotype-hmms, else ~/.abscribe/<artifact>)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Download ship-time HMM, numbering-engine, or germline-db artifacts.

Usage:
  abscribe download --artifact isotype-hmms|numbering-engine|germline-db [options]

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	url, ok := artifactURLs[artifact]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown artifact %q\n", artifact)
		fmt.Fprintf(os.Stderr, "Hint: choose one of isotype-hmms, numbering-engine, germline-db\n")
		return ExitUsage
	}

	if outputDir == "" {
		outputDir = defaultArtifactDir(artifactSubdir(artifact))
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create directory %s: %v\n", outputDir, err)
		return ExitError
	}

	fmt.Printf("Downloading %s...\n", artifact)
	fmt.Printf("Destination: %s\n\n", outputDir)

	destFile := filepath.Join(outputDir, filepath.Base(url))
	if err := downloadFile(url, destFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error downloading %s: %v\n", artifact, err)
		return ExitError
	}

	fmt.Printf("\nDownload complete!\n")
	switch artifact {
	case "isotype-hmms":
		fmt.Printf("To annotate with isotype detection, extract the archive's .hmm files into %s, then run:\n", outputDir)
		fmt.Printf("  abscribe annotate --isotype-hmms %s input.fasta\n", outputDir)
	case "numbering-engine":
		fmt.Printf("Point --numbering-engine at the extracted binary when annotating.\n")
	case "germline-db":
		fmt.Printf("To validate germline calls, run:\n")
		fmt.Printf("  abscribe annotate --germline-db %s input.fasta\n", filepath.Join(outputDir, filepath.Base(url)))
		fmt.Printf("or persist the path with: abscribe config set germline_db %s\n", filepath.Join(outputDir, filepath.Base(url)))
	}

	return ExitSuccess
}

func artifactSubdir(artifact string) string {
	switch artifact {
	case "isotype-hmms":
		return "hmms"
	case "germline-db":
		return "germline-db"
	default:
		return artifact
	}
}

// downloadFile downloads a file from url to destPath with progress,
// skipping the download if destPath already exists.
func downloadFile(url, destPath string) error {
	if info, err := os.Stat(destPath); err == nil {
		fmt.Printf("  %s already exists (%s), skipping\n", filepath.Base(destPath), formatSize(info.Size()))
		return nil
	}

	fmt.Printf("  Downloading %s...\n", filepath.Base(destPath))

	client := &http.Client{Timeout: 30 * time.Minute}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	var downloaded int64
	pw := &progressWriter{
		total:      resp.ContentLength,
		downloaded: &downloaded,
		lastPrint:  time.Now(),
	}

	_, err = io.Copy(f, io.TeeReader(resp.Body, pw))
	f.Close()

	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	fmt.Printf("    Done: %s\n", formatSize(downloaded))
	return nil
}

// progressWriter tracks download progress.
type progressWriter struct {
	total      int64
	downloaded *int64
	lastPrint  time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	*pw.downloaded += int64(n)

	if time.Since(pw.lastPrint) > time.Second {
		if pw.total > 0 {
			pct := float64(*pw.downloaded) / float64(pw.total) * 100
			fmt.Printf("\r    Progress: %s / %s (%.1f%%)  ",
				formatSize(*pw.downloaded), formatSize(pw.total), pct)
		} else {
			fmt.Printf("\r    Progress: %s  ", formatSize(*pw.downloaded))
		}
		pw.lastPrint = time.Now()
	}

	return n, nil
}

// formatSize formats bytes as a human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
