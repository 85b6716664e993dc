// Package main provides the abscribe command-line tool.
package main

import (
	"flag"
	"fmt"
	"os"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("abscribe version %s (%s) built %s\n", version, commit, date)
		return ExitSuccess
	}

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		return ExitUsage
	}

	switch args[0] {
	case "annotate":
		return runAnnotate(args[1:])
	case "msa":
		return runMSA(args[1:])
	case "render":
		return runRender(args[1:])
	case "download":
		return runDownload(args[1:])
	case "config":
		return runConfig(args[1:])
	case "serve-jobs":
		return runServeJobs(args[1:])
	case "help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		printUsage()
		return ExitUsage
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `abscribe - antibody sequence annotation and alignment

Usage:
  abscribe [options] <command> [arguments]

Commands:
  annotate    Number and annotate biologics in a FASTA file
  msa         Multiple-sequence-align a FASTA file of sequences
  render      Colored terminal rendering of an annotation document
  download    Download isotype HMM, numbering-engine, or germline-db artifacts
  config      Manage abscribe configuration
  serve-jobs  Serve the Job Coordinator's submit/status/cancel interface over HTTP
  help        Show this help message

Global Options:
  --version   Show version information

Examples:
  # Download ship-time artifacts (one-time setup)
  abscribe download --artifact isotype-hmms

  # Annotate a FASTA file of biologics (>biologic|chain headers)
  abscribe annotate input.fasta

  # Align a FASTA file of sequences
  abscribe msa --method muscle sequences.fasta

  # Render an annotation document with colored FR/CDR overlays
  abscribe render annotation.json

  # Serve annotate/msa requests as long-running, pollable jobs
  abscribe serve-jobs --addr :8089

For more information on a command, use:
  abscribe <command> --help
`)
}
