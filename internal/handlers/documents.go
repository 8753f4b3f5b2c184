package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/models"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/services"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/utils"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/validator"
	"github.com/gorilla/mux"
)

const (
	Version = "1.0.0"

	// FileField is the multipart field carrying the document.
	FileField     = "document"
	LanguageField = "language"

	// Room for the multipart envelope and the language field on top of the file.
	maxRequestSize = validator.MaxFileSize + 1<<20
	maxMemory      = 32 << 20

	msgFileTooLarge = "File size exceeds 50MB limit"
)

type DocumentHandler struct {
	service services.DocumentService
	logger  *utils.Logger
	now     func() time.Time
}

func NewDocumentHandler(service services.DocumentService, logger *utils.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

func (h *DocumentHandler) AnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxRequestSize {
		h.respondError(w, utils.NewBadRequestError(msgFileTooLarge))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if isTooLarge(err) {
			h.respondError(w, utils.NewBadRequestError(msgFileTooLarge))
			return
		}
		h.respondError(w, utils.NewBadRequestError(services.MsgNoFile))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(FileField)
	if err != nil {
		h.respondError(w, utils.NewBadRequestError(services.MsgNoFile))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, validator.MaxFileSize+1))
	if err != nil {
		h.respondError(w, utils.NewInternalError("Failed to read file").WithCause(err))
		return
	}

	reported := header.Header.Get("Content-Type")
	contentType := DetermineContentType(header.Filename, reported)

	h.logger.Debug("File upload received",
		"filename", header.Filename,
		"reported_content_type", reported,
		"determined_content_type", contentType,
		"size", len(data))

	// An absent language field means English; an empty one is validated like any other value.
	language := validator.DefaultLanguage
	if values, ok := r.MultipartForm.Value[LanguageField]; ok && len(values) > 0 {
		language = values[0]
	}

	req := &models.AnalyzeRequest{
		File: &models.UploadedFile{
			Content:     data,
			ContentType: contentType,
			Filename:    header.Filename,
			Size:        int64(len(data)),
		},
		Language: language,
	}

	resp, err := h.service.AnalyzeDocument(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) SupportedLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.service.SupportedLanguages(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"languages": languages})
}

func (h *DocumentHandler) SupportedTypes(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{"supportedTypes": h.service.SupportedTypes()})
}

func (h *DocumentHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
		"version":   Version,
	})
}

func (h *DocumentHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.respondError(w, utils.NewBadRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	records, err := h.service.ListAnalyses(r.Context(), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"analyses": records})
}

func (h *DocumentHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.respondError(w, utils.NewBadRequestError("Analysis ID is required"))
		return
	}

	record, err := h.service.GetAnalysis(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, record)
}

func isTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

var extensionTypes = map[string]string{
	".pdf":  validator.MimePDF,
	".docx": validator.MimeDOCX,
	".doc":  validator.MimeDOC,
	".jpg":  validator.MimeJPEG,
	".jpeg": validator.MimeJPEG,
	".png":  validator.MimePNG,
	".gif":  validator.MimeGIF,
	".webp": validator.MimeWEBP,
}

// Variants some browsers send for the same formats.
var contentTypeAliases = map[string]string{
	"application/x-pdf": validator.MimePDF,
	"image/jpg":         validator.MimeJPEG,
	"image/pjpeg":       validator.MimeJPEG,

	"application/vnd.openxmlformats-officedocument.wordprocessingml": validator.MimeDOCX,
}

// DetermineContentType trusts the declared part type and only falls back to the
// filename extension when the client sent nothing useful.
func DetermineContentType(filename, headerContentType string) string {
	contentType := strings.ToLower(strings.TrimSpace(headerContentType))
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = parsed
	}
	if alias, ok := contentTypeAliases[contentType]; ok {
		return alias
	}

	if contentType == "" || contentType == "application/octet-stream" {
		if byExt, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
			return byExt
		}
	}

	return contentType
}

func (h *DocumentHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *DocumentHandler) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	if appErr, ok := utils.AsAppError(err); ok {
		status = appErr.StatusCode
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request error", "status", status, "error", err)
	} else {
		h.logger.Warn("Request rejected", "status", status, "error", message)
	}

	h.respondJSON(w, status, map[string]string{"error": message})
}
