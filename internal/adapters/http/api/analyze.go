package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/croply-ai/croply/internal/inference"
	"github.com/croply-ai/croply/pkg/logger"
)

// maxUploadBytes bounds the multipart body of POST /analyze.
const maxUploadBytes = 32 << 20

// Messages returned to mobile clients.
const (
	msgNoImage       = "No image uploaded."
	msgImageTooLarge = "Image too large."
	msgInternal      = "Internal server error; check service logs."
)

// AnalyzeHandler handles image analysis requests.
type AnalyzeHandler struct {
	analyzer Analyzer
	logger   logger.Logger
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(analyzer Analyzer, log logger.Logger) *AnalyzeHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AnalyzeHandler{analyzer: analyzer, logger: log}
}

// HandleAnalyze handles POST /analyze with a multipart "image" field.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	img, err := readUpload(w, r)
	if err != nil {
		status, msg := http.StatusBadRequest, msgNoImage
		if errors.Is(err, ErrImageTooLarge) {
			status, msg = http.StatusRequestEntityTooLarge, msgImageTooLarge
		}
		h.logger.Warn(ctx, "rejected upload", logger.String("request_id", RequestID(ctx)), logger.Error(err))
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	h.logger.Info(ctx, "uploading image to workflow",
		logger.String("request_id", RequestID(ctx)),
		logger.String("file", img.Name()))

	diagnosis, err := h.analyzer.Analyze(ctx, img)
	if err != nil {
		h.logger.Error(ctx, "image analysis failed", logger.String("request_id", RequestID(ctx)), logger.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal, err)
		return
	}

	h.logger.Info(ctx, "workflow response received",
		logger.String("request_id", RequestID(ctx)),
		logger.String("disease", diagnosis.Disease))
	writeJSON(w, http.StatusOK, analyzeResponse{Success: true, Result: &diagnosis})
}

// readUpload pulls the "image" part into memory.
func readUpload(w http.ResponseWriter, r *http.Request) (inference.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return inference.Image{}, ErrImageTooLarge
		}
		return inference.Image{}, errors.Join(ErrNoImage, err)
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return inference.Image{}, errors.Join(ErrNoImage, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return inference.Image{}, errors.Join(ErrNoImage, err)
	}
	if len(data) == 0 {
		return inference.Image{}, ErrNoImage
	}
	return inference.ImageFromBytes(header.Filename, data), nil
}
