package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/dvloznov/card-ledger/internal/api/middleware"
	"github.com/dvloznov/card-ledger/internal/jobs"
	"github.com/dvloznov/card-ledger/internal/logger"
	"github.com/dvloznov/card-ledger/internal/pipeline"
)

// MaxUploadBytes caps the size of an uploaded statement.
const MaxUploadBytes = 20 << 20

// StatementsHandler accepts statement uploads.
type StatementsHandler struct {
	ingestor  StatementIngestor
	publisher jobs.Publisher
}

// NewStatementsHandler creates a new statements handler. publisher may be
// nil when background ingestion is not available.
func NewStatementsHandler(ingestor StatementIngestor, publisher jobs.Publisher) *StatementsHandler {
	return &StatementsHandler{ingestor: ingestor, publisher: publisher}
}

// Upload handles POST /api/statements
// The statement is ingested before the response is written.
func (h *StatementsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	filename, mimeType, data, ok := readStatement(w, r)
	if !ok {
		return
	}

	result, err := h.ingestor.Upload(ctx, pipeline.UploadRequest{
		UserID:   middleware.UserIDFromContext(ctx),
		Filename: filename,
		MIMEType: mimeType,
		Data:     data,
	})
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("Failed to ingest statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process statement")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// UploadAsync handles POST /api/statements/async
// The statement is archived and a background job ingests it.
func (h *StatementsHandler) UploadAsync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if h.publisher == nil || !h.ingestor.CanArchive() {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Background uploads require a storage bucket")
		return
	}

	filename, mimeType, data, ok := readStatement(w, r)
	if !ok {
		return
	}
	userID := middleware.UserIDFromContext(ctx)

	uri, err := h.ingestor.Archive(ctx, userID, filename, mimeType, data)
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("Failed to archive statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	job := &jobs.IngestStatementJob{
		UserID:   userID,
		GCSURI:   uri,
		Filename: filename,
		MIMEType: mimeType,
	}
	if err := h.publisher.PublishIngestStatement(ctx, job); err != nil {
		log.Error().Err(err).Str("gcs_uri", uri).Msg("Failed to enqueue ingestion job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue ingestion job")
		return
	}

	jobID := job.JobID
	log.Info().Str("job_id", jobID).Str("gcs_uri", uri).Msg("Ingestion job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  jobID,
		"gcs_uri": uri,
		"status":  string(jobs.JobStatusPending),
	})
}

// readStatement reads the multipart "file" field. On failure it writes the
// error response and reports false.
func readStatement(w http.ResponseWriter, r *http.Request) (filename, mimeType string, data []byte, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "File too large")
			return "", "", nil, false
		}
		middleware.WriteError(w, http.StatusBadRequest, "Multipart field \"file\" is required")
		return "", "", nil, false
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read file")
		return "", "", nil, false
	}

	return filepath.Base(header.Filename), header.Header.Get("Content-Type"), data, true
}
