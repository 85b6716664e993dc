package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"go.uber.org/zap"

	"github.com/bioab/abscribe/internal/annotate"
	"github.com/bioab/abscribe/internal/domainasm"
	"github.com/bioab/abscribe/internal/germlinedb"
	"github.com/bioab/abscribe/internal/isotype"
	"github.com/bioab/abscribe/internal/job"
	"github.com/bioab/abscribe/internal/logging"
	"github.com/bioab/abscribe/internal/msa"
	"github.com/bioab/abscribe/internal/numbering"
	"github.com/bioab/abscribe/internal/output"
	"github.com/bioab/abscribe/internal/region"
	"github.com/bioab/abscribe/internal/scheme"
)

// jobServer holds the shared, read-only resources every submitted job
// is built against. A fresh Orchestrator/Engine is constructed per
// request inside the job's Run closure — cheap, and avoids a shared
// mutable Orchestrator racing across concurrently-running jobs.
type jobServer struct {
	coordinator  *job.Coordinator
	numberingBin string
	detector     *isotype.Detector
	germlineDB   *germlinedb.Store
	log          *zap.Logger
}

// annotateJobResult and msaJobResult are the two shapes a submitted
// job's JobRecord.Result can take; the status handler type-switches on
// them to pick the matching document writer.
type annotateJobResult struct {
	run *annotate.AnnotationRun
}

type msaJobResult struct {
	result   *msa.Result
	overlays map[string][]msa.RegionOverlay
	mappings map[scheme.RegionName][]msa.RegionMapping
}

func runServeJobs(args []string) int {
	fs := flag.NewFlagSet("serve-jobs", flag.ExitOnError)

	var (
		addr         string
		workers      int
		numberingBin string
		hmmDir       string
		germlineDB   string
	)

	fs.StringVar(&addr, "addr", ":8089", "Listen address")
	fs.IntVar(&workers, "workers", 4, "Number of concurrent job workers")
	fs.StringVar(&numberingBin, "numbering-engine", "abscribe-numbering", "Numbering engine binary")
	fs.StringVar(&hmmDir, "isotype-hmms", defaultArtifactDir("hmms"), "Directory of isotype HMM profiles")
	fs.StringVar(&germlineDB, "germline-db", "", "Germline Gene Store: a .fasta[.gz] bundle or DuckDB file, used to validate germline calls")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Serve the Job Coordinator's submit/status/cancel interface over HTTP.

Usage:
  abscribe serve-jobs [options]

Endpoints:
  POST   /jobs/annotate   submit an annotation request, body {fasta, scheme, species}
  POST   /jobs/msa        submit an MSA request, body {sequences, method, gap_open, gap_extend, scheme, annotate_regions}
  GET    /jobs/{id}       poll a job's status
  POST   /jobs/{id}/cancel  cancel an in-flight job
  GET    /healthz         liveness probe

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	log := logging.Must(logging.New(false))
	defer log.Sync()

	detector, err := isotype.NewDetector("hmmsearch", hmmDir, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: isotype detector unavailable: %v\n", err)
		detector, _ = isotype.NewDetector("hmmsearch", os.TempDir(), log)
	}

	var store *germlinedb.Store
	if germlineDB != "" {
		store, err = openGermlineDB(germlineDB)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: germline db unavailable: %v\n", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	coordinator := job.NewCoordinator(workers, job.WithLogger(log))
	defer coordinator.Close()

	srv := &jobServer{
		coordinator:  coordinator,
		numberingBin: numberingBin,
		detector:     detector,
		germlineDB:   store,
		log:          log,
	}

	router := mux.NewRouter()
	router.HandleFunc("/jobs/annotate", srv.handleSubmitAnnotate).Methods(http.MethodPost)
	router.HandleFunc("/jobs/msa", srv.handleSubmitMSA).Methods(http.MethodPost)
	router.HandleFunc("/jobs/{id}", srv.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/jobs/{id}/cancel", srv.handleCancel).Methods(http.MethodPost)
	router.HandleFunc("/healthz", srv.handleHealth).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Printf("abscribe serve-jobs listening on %s\n", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "Error: server failed: %v\n", err)
			os.Exit(ExitError)
		}
	}()

	<-sigChan
	fmt.Printf("\nShutting down...\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: shutdown failed: %v\n", err)
		return ExitError
	}

	return ExitSuccess
}

type submitAnnotateBody struct {
	FASTA   string   `json:"fasta"`
	Scheme  string   `json:"scheme"`
	Species []string `json:"species"`
}

func (s *jobServer) handleSubmitAnnotate(w http.ResponseWriter, r *http.Request) {
	var body submitAnnotateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.FASTA) == "" {
		writeJSONError(w, http.StatusBadRequest, "fasta is required")
		return
	}
	if body.Scheme == "" {
		body.Scheme = "imgt"
	}
	if len(body.Species) == 0 {
		body.Species = []string{"human", "mouse", "rat"}
	}

	biologics, _, err := readBiologicsFASTA(strings.NewReader(body.FASTA))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("parsing fasta: %v", err))
		return
	}

	requestedScheme := scheme.Scheme(strings.ToLower(body.Scheme))
	req := job.Request{Run: func(ctx context.Context) (any, error) {
		assembler := domainasm.NewAssembler(region.NewAnnotator(scheme.NewTables()), s.detector)
		if s.germlineDB != nil {
			assembler.SetGermlineDB(s.germlineDB)
		}
		orchestrator := annotate.NewOrchestrator(
			numbering.NewAdapter(numbering.NewExecEngine(s.numberingBin), s.log),
			assembler,
		)
		orchestrator.SetAllowedSpecies(body.Species)
		run, err := orchestrator.AnnotateAll(ctx, biologics, requestedScheme)
		if err != nil {
			return nil, err
		}
		return annotateJobResult{run: run}, nil
	}}

	s.submit(w, req)
}

type submitSequence struct {
	Name     string `json:"name"`
	Sequence string `json:"sequence"`
}

type submitMSABody struct {
	Sequences       []submitSequence `json:"sequences"`
	Method          string           `json:"method"`
	GapOpen         float64          `json:"gap_open"`
	GapExtend       float64          `json:"gap_extend"`
	Scheme          string           `json:"scheme"`
	AnnotateRegions bool             `json:"annotate_regions"`
}

func (s *jobServer) handleSubmitMSA(w http.ResponseWriter, r *http.Request) {
	var body submitMSABody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Sequences) == 0 {
		writeJSONError(w, http.StatusBadRequest, "sequences is required")
		return
	}
	if body.Method == "" {
		body.Method = string(msa.Muscle)
	}
	if body.GapOpen == 0 {
		body.GapOpen = -10.0
	}
	if body.GapExtend == 0 {
		body.GapExtend = -0.5
	}
	if body.Scheme == "" {
		body.Scheme = "imgt"
	}

	named := make([]msa.NamedSequence, len(body.Sequences))
	for i, seq := range body.Sequences {
		named[i] = msa.NamedSequence{Name: seq.Name, Original: seq.Sequence}
	}

	req := job.Request{Run: func(ctx context.Context) (any, error) {
		engine := msa.NewEngine()
		engine.GapOpen = body.GapOpen
		engine.GapExtend = body.GapExtend

		result, err := engine.Align(ctx, named, msa.Method(body.Method))
		if err != nil {
			return nil, err
		}

		jr := msaJobResult{result: result}
		if body.AnnotateRegions {
			assembler := domainasm.NewAssembler(region.NewAnnotator(scheme.NewTables()), s.detector)
			if s.germlineDB != nil {
				assembler.SetGermlineDB(s.germlineDB)
			}
			orchestrator := annotate.NewOrchestrator(
				numbering.NewAdapter(numbering.NewExecEngine(s.numberingBin), s.log),
				assembler,
			)
			msaAnnotator := msa.NewAnnotator(orchestrator)
			overlays, mappings, err := msaAnnotator.Overlays(ctx, result, scheme.Scheme(strings.ToLower(body.Scheme)))
			if err != nil {
				s.log.Warn("msa region annotation failed", zap.Error(err))
			} else {
				jr.overlays = overlays
				jr.mappings = mappings
			}
		}
		return jr, nil
	}}

	s.submit(w, req)
}

func (s *jobServer) submit(w http.ResponseWriter, req job.Request) {
	id, err := s.coordinator.Submit(req)
	if err != nil {
		if _, ok := err.(*job.OverloadedError); ok {
			writeJSONError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": id.String()})
}

// jobStatusResponse is the submit(request)->job_id; status(job_id)->{...}
// external interface's status shape.
type jobStatusResponse struct {
	ID       string          `json:"job_id"`
	Status   string          `json:"status"`
	Progress float64         `json:"progress"`
	Message  string          `json:"message,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func (s *jobServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid job id")
		return
	}
	rec, ok := s.coordinator.Status(id)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "job not found")
		return
	}

	resp := jobStatusResponse{
		ID:       rec.ID.String(),
		Status:   string(rec.Status),
		Progress: rec.Progress,
		Message:  rec.Message,
	}
	if rec.Err != nil {
		resp.Error = rec.Err.Error()
	}
	if rec.Result != nil {
		raw, err := marshalJobResult(rec.Result)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("marshal result: %v", err))
			return
		}
		resp.Result = raw
	}

	writeJSON(w, http.StatusOK, resp)
}

func marshalJobResult(result any) (json.RawMessage, error) {
	var buf bytes.Buffer
	switch v := result.(type) {
	case annotateJobResult:
		if err := output.WriteAnnotationRun(&buf, v.run); err != nil {
			return nil, err
		}
	case msaJobResult:
		if err := output.WriteMSAResult(&buf, "", v.result, v.overlays, v.mappings); err != nil {
			return nil, err
		}
	default:
		if err := json.NewEncoder(&buf).Encode(v); err != nil {
			return nil, err
		}
	}
	return json.RawMessage(buf.Bytes()), nil
}

func (s *jobServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid job id")
		return
	}
	if _, ok := s.coordinator.Status(id); !ok {
		writeJSONError(w, http.StatusNotFound, "job not found")
		return
	}
	s.coordinator.Cancel(id)
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": id.String(), "status": "cancel requested"})
}

func (s *jobServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
