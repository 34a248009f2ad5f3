package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/clipboard"
	"github.com/benvon/handbook/internal/ingest"
	"github.com/benvon/handbook/internal/models"
	"github.com/benvon/handbook/internal/queue"
	"github.com/benvon/handbook/internal/store"
)

// MaxImageBytes caps an uploaded scan image
const MaxImageBytes int64 = 10 << 20

var errImageTooLarge = fmt.Errorf("image exceeds maximum size of %d bytes", MaxImageBytes)

// Ingester runs extraction synchronously
type Ingester interface {
	IngestImage(ctx context.Context, intent ingest.Intent, image []byte, mimeType string) ingest.Result
	IngestText(ctx context.Context, text string) ingest.Result
}

// ScanStatusStore persists asynchronous scan status
type ScanStatusStore interface {
	Get(ctx context.Context, id string) (models.ScanJob, error)
	Put(ctx context.Context, job models.ScanJob) error
}

// SuggestionAcceptor turns submitted text into a confirmed clipboard suggestion,
// rejecting text that would never be suggested
type SuggestionAcceptor interface {
	Accept(text string) (clipboard.Suggestion, error)
}

// JobEnqueuer hands scans to the worker
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// ScanHandler handles image and text scans. With a queue, scans are accepted and run by the
// worker; without one they run inline.
type ScanHandler struct {
	ingester    Ingester
	suggestions SuggestionAcceptor
	statuses    ScanStatusStore
	jobQueue    JobEnqueuer
	now         func() time.Time
	logger      *zap.Logger
}

// ScanHandlerOption configures a ScanHandler
type ScanHandlerOption func(*ScanHandler)

// WithScanQueue makes scans asynchronous through jobQueue
func WithScanQueue(jobQueue JobEnqueuer) ScanHandlerOption {
	return func(h *ScanHandler) {
		h.jobQueue = jobQueue
	}
}

// NewScanHandler creates a new scan handler
func NewScanHandler(ingester Ingester, suggestions SuggestionAcceptor, statuses ScanStatusStore, logger *zap.Logger, opts ...ScanHandlerOption) *ScanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &ScanHandler{ingester: ingester, suggestions: suggestions, statuses: statuses, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers scan routes on the given router
// The router should already have the /scans prefix
func (h *ScanHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.CreateScan).Methods("POST")
	r.HandleFunc("/text", h.CreateTextScan).Methods("POST")
	r.HandleFunc("/{id}", h.GetScan).Methods("GET")
}

// TextScanRequest is copied text the user confirmed as an expense
type TextScanRequest struct {
	Text string `json:"text"`
}

// CreateScan extracts a record from an uploaded image (?intent=invite|receipt).
// The image is the multipart field "image" or the raw request body.
func (h *ScanHandler) CreateScan(w http.ResponseWriter, r *http.Request) {
	intent, err := ingest.ParseIntent(r.URL.Query().Get("intent"))
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	image, mimeType, err := readImage(r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.Is(err, errImageTooLarge) || errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", errImageTooLarge.Error())
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if len(image) == 0 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Image is required")
		return
	}

	if h.jobQueue == nil {
		respondIngestResult(w, h.ingester.IngestImage(r.Context(), intent, image, mimeType))
		return
	}

	scanID := uuid.NewString()
	job, err := queue.NewScanJob(scanID, intent, image, mimeType)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	h.enqueue(r.Context(), w, intent, job)
}

// CreateTextScan confirms text as a clipboard suggestion and extracts a transaction from it.
// Text that the clipboard watcher would not suggest is rejected before any extraction.
func (h *ScanHandler) CreateTextScan(w http.ResponseWriter, r *http.Request) {
	var req TextScanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Text is required")
		return
	}
	if h.suggestions == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Clipboard suggestions are unavailable")
		return
	}

	suggestion, err := h.suggestions.Accept(req.Text)
	if errors.Is(err, clipboard.ErrNotExpense) {
		respondJSONError(w, http.StatusUnprocessableEntity, "Unprocessable Entity", err.Error())
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to accept text")
		return
	}

	if h.jobQueue == nil {
		respondIngestResult(w, h.ingester.IngestText(r.Context(), suggestion.Text))
		return
	}
	h.enqueue(r.Context(), w, ingest.IntentText, queue.NewTextJob(uuid.NewString(), suggestion.Text))
}

// GetScan returns the status of an asynchronous scan
func (h *ScanHandler) GetScan(w http.ResponseWriter, r *http.Request) {
	if h.statuses == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "scan not found")
		return
	}
	status, err := h.statuses.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err, "scan")
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (h *ScanHandler) enqueue(ctx context.Context, w http.ResponseWriter, intent ingest.Intent, job *queue.Job) {
	now := h.now().UTC()
	status := models.ScanJob{
		ID:        job.ScanID,
		Intent:    string(intent),
		Status:    models.ScanStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.statuses.Put(ctx, status); err != nil {
		h.logger.Error("scan_status_write_failed", zap.String("scan_id", job.ScanID), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to record scan")
		return
	}

	if err := h.jobQueue.Enqueue(ctx, job); err != nil {
		h.logger.Error("scan_enqueue_failed", zap.String("scan_id", job.ScanID), zap.Error(err))
		status.Status = models.ScanStatusFailed
		status.Error = "job queue unavailable"
		status.ErrorKind = string(ingest.KindUnavailable)
		status.UpdatedAt = h.now().UTC()
		if putErr := h.statuses.Put(ctx, status); putErr != nil {
			h.logger.Warn("scan_status_write_failed", zap.String("scan_id", job.ScanID), zap.Error(putErr))
		}
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Scan queue is unavailable")
		return
	}

	h.logger.Info("scan_enqueued",
		zap.String("scan_id", job.ScanID),
		zap.String("intent", string(intent)),
		zap.String("job_id", job.ID.String()),
	)
	w.Header().Set("Location", "/api/v1/scans/"+job.ScanID)
	respondJSON(w, http.StatusAccepted, status)
}

// respondIngestResult answers a synchronous ingestion
func respondIngestResult(w http.ResponseWriter, result ingest.Result) {
	if result.OK() {
		respondJSONWarning(w, http.StatusCreated, result, result.Warning)
		return
	}

	switch result.Err.Kind {
	case ingest.KindIncomplete:
		respondJSONError(w, http.StatusUnprocessableEntity, "Extraction Incomplete", result.Err.Error())
	case ingest.KindMalformed:
		respondJSONError(w, http.StatusBadGateway, "Extraction Malformed", result.Err.Error())
	default:
		respondJSONError(w, http.StatusServiceUnavailable, "Extraction Unavailable", result.Err.Error())
	}
}

// readImage returns the uploaded bytes and their declared MIME type
func readImage(r *http.Request) ([]byte, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var src io.Reader = r.Body
	declared := mediaType
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(MaxImageBytes); err != nil {
			return nil, "", fmt.Errorf("invalid multipart body: %w", err)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			return nil, "", fmt.Errorf("multipart field \"image\" is required")
		}
		defer file.Close()
		src = file
		declared = header.Header.Get("Content-Type")
	}

	data, err := io.ReadAll(io.LimitReader(src, MaxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > MaxImageBytes {
		return nil, "", errImageTooLarge
	}
	if !strings.HasPrefix(declared, "image/") {
		declared = ""
	}
	return data, declared, nil
}

var _ ScanStatusStore = (*store.ScanJobs)(nil)
