package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/paribus/hospital-bulk/internal/batch"
	"github.com/paribus/hospital-bulk/internal/logging"
)

// statusSampleSize caps how many per-row results the status endpoint
// returns.
const statusSampleSize = 10

// StatusResponse is the payload of the batch-status endpoint. It carries
// the aggregate view plus a bounded sample of per-row results.
type StatusResponse struct {
	BatchID       string             `json:"batch_id"`
	Summary       batch.Summary      `json:"summary"`
	Activation    batch.Activation   `json:"activation"`
	ResultsSample []batch.RowOutcome `json:"results_sample"`
}

// HealthResponse is the payload of the health endpoint.
type HealthResponse struct {
	Status  string              `json:"status"`
	Uploads batch.LimiterStatus `json:"uploads"`
}

// handleBulkUpload accepts a multipart CSV upload and processes it as one
// batch, synchronously, returning the full per-row result.
func (s *Server) handleBulkUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.limiter.Acquire(r.Context()); err != nil {
		if errors.Is(err, batch.ErrTooManyUploads) {
			w.Header().Set("Retry-After", "5")
			writeError(w, r, http.StatusTooManyRequests, err.Error())
		} else {
			// Client went away while waiting for a slot
			writeError(w, r, http.StatusServiceUnavailable, "upload cancelled")
		}
		return
	}
	defer s.limiter.Release()

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	rows, err := batch.ParseUpload(file, s.cfg.Upload.MaxRows)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	logging.FromContext(r.Context()).Info("bulk upload accepted",
		"file", header.Filename,
		"rows", len(rows),
	)

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()

	result, err := s.processor.Process(ctx, rows)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "batch processing failed")
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// handleBatchStatus returns the stored result of a previously processed
// batch, with the per-row list trimmed to a sample.
func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	if batchID == "" {
		writeError(w, r, http.StatusBadRequest, "missing batch ID")
		return
	}

	result, err := s.store.Get(r.Context(), batchID)
	if err != nil {
		if errors.Is(err, batch.ErrBatchNotFound) {
			writeError(w, r, http.StatusNotFound, "batch not found")
		} else {
			writeError(w, r, http.StatusInternalServerError, "batch lookup failed")
		}
		return
	}

	sample := result.Rows
	if len(sample) > statusSampleSize {
		sample = sample[:statusSampleSize]
	}

	writeJSON(w, r, http.StatusOK, StatusResponse{
		BatchID:       result.BatchID,
		Summary:       result.Summary,
		Activation:    result.Activation,
		ResultsSample: sample,
	})
}

// handleHealth reports liveness and upload-limiter occupancy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "ok",
		Uploads: s.limiter.Status(),
	})
}
