package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/ai-tax-agent/internal/application/service"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

// Error codes carried in failed responses
const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services       Services
	maxUploadBytes int64
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, maxUploadBytes int64, logger Logger) *Handlers {
	return &Handlers{
		services:       services,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// OKResponse acknowledges a command
type OKResponse struct {
	OK      bool        `json:"ok"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// PersonalInfoRequest is the body of POST /submit-personal-info.
// The legacy "dependents" field is read as dependentChildren when the latter is absent.
type PersonalInfoRequest struct {
	FilingStatus      string `json:"filingStatus" binding:"required"`
	DependentChildren *int   `json:"dependentChildren" binding:"omitempty,min=0"`
	OtherDependents   *int   `json:"otherDependents" binding:"omitempty,min=0"`
	Dependents        *int   `json:"dependents" binding:"omitempty,min=0"`
}

// FileResult is the per-file entry of an upload response
type FileResult struct {
	OriginalName string `json:"originalName"`
	StoredName   string `json:"storedName,omitempty"`
	Status       string `json:"status,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Error        string `json:"error,omitempty"`
}

// UploadResponse is the body of a successful POST /upload
type UploadResponse struct {
	Files []FileResult `json:"files"`
}

// UploadedFilesResponse is the body of GET /uploaded-files
type UploadedFilesResponse struct {
	Success bool                        `json:"success"`
	Files   []entity.UploadedFileRecord `json:"files"`
}

// TaxResultResponse is the body of a successful GET /calculate-tax
type TaxResultResponse struct {
	Results *entity.TaxResult `json:"results"`
}

// ChatRequest is the body of POST /api/tax-chat
type ChatRequest struct {
	Message     string               `json:"message"`
	ChatHistory []entity.ChatMessage `json:"chatHistory"`
}

// ChatResponse is the body of POST /api/tax-chat
type ChatResponse struct {
	Reply string `json:"reply"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// SubmitPersonalInfo handles POST /submit-personal-info
func (h *Handlers) SubmitPersonalInfo(c *gin.Context) {
	var req PersonalInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid personal info request", "error", err)
		fail(c, http.StatusBadRequest, CodeValidationFailed, "Missing required fields")
		return
	}

	info := req.toEntity()
	if err := h.services.PersonalInfo.Commit(c.Request.Context(), info); err != nil {
		if errors.Is(err, service.ErrInvalidPersonalInfo) {
			fail(c, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return
		}
		h.logger.Error("Failed to commit personal info", "error", err)
		fail(c, http.StatusInternalServerError, CodeInternalError, "failed to store personal information")
		return
	}

	c.JSON(http.StatusOK, OKResponse{OK: true, Message: "Personal information received", Data: info})
}

func (r PersonalInfoRequest) toEntity() entity.PersonalInfo {
	info := entity.PersonalInfo{FilingStatus: entity.FilingStatus(r.FilingStatus)}
	switch {
	case r.DependentChildren != nil:
		info.DependentChildren = *r.DependentChildren
	case r.Dependents != nil:
		info.DependentChildren = *r.Dependents
	}
	if r.OtherDependents != nil {
		info.OtherDependents = *r.OtherDependents
	}
	return info
}

// UploadFiles handles POST /upload
func (h *Handlers) UploadFiles(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, CodeValidationFailed, "Upload exceeds size limit")
			return
		}
		fail(c, http.StatusBadRequest, CodeValidationFailed, "No files part")
		return
	}
	headers, ok := form.File["files"]
	if !ok {
		fail(c, http.StatusBadRequest, CodeValidationFailed, "No files part")
		return
	}
	if allUnnamed(headers) {
		fail(c, http.StatusBadRequest, CodeValidationFailed, "No selected files")
		return
	}

	refs := make([]entity.DocumentRef, 0, len(headers))
	results := make([]FileResult, len(headers))
	pending := make([]int, 0, len(headers))
	for i, fh := range headers {
		payload, err := readPart(fh)
		if err != nil {
			h.logger.Error("Failed to read uploaded file", "name", fh.Filename, "error", err)
			results[i] = toFileResult(entity.Errored(fh.Filename, fmt.Sprintf("Error processing %s: %v", fh.Filename, err)))
			continue
		}
		refs = append(refs, entity.DocumentRef{DisplayName: fh.Filename, Payload: payload})
		pending = append(pending, i)
	}

	outcomes := h.services.Registry.UploadBatch(c.Request.Context(), refs)
	for j, outcome := range outcomes {
		results[pending[j]] = toFileResult(outcome)
	}

	c.JSON(http.StatusOK, UploadResponse{Files: results})
}

func allUnnamed(headers []*multipart.FileHeader) bool {
	for _, fh := range headers {
		if fh.Filename != "" {
			return false
		}
	}
	return true
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func toFileResult(o entity.UploadOutcome) FileResult {
	r := FileResult{OriginalName: o.Name}
	switch o.Kind {
	case entity.OutcomeProcessed:
		r.StoredName = o.StoredName
		r.Status = entity.DocumentStatusProcessed
	case entity.OutcomeSkipped:
		r.Status = entity.DocumentStatusSkipped
		r.Reason = o.Reason
	default:
		r.Error = o.Message
	}
	return r
}

// ListUploadedFiles handles GET /uploaded-files
func (h *Handlers) ListUploadedFiles(c *gin.Context) {
	records, err := h.services.Registry.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list uploaded files", "error", err)
		fail(c, http.StatusInternalServerError, CodeInternalError, "failed to retrieve uploaded files")
		return
	}
	if records == nil {
		records = []entity.UploadedFileRecord{}
	}
	c.JSON(http.StatusOK, UploadedFilesResponse{Success: true, Files: records})
}

// CalculateTax handles GET /calculate-tax
func (h *Handlers) CalculateTax(c *gin.Context) {
	result, err := h.services.Computation.Compute(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoDocuments) {
			fail(c, http.StatusPreconditionFailed, CodePreconditionFailed, "No documents uploaded")
			return
		}
		h.logger.Error("Tax calculation failed", "error", err)
		fail(c, http.StatusInternalServerError, CodeInternalError, "tax calculation failed")
		return
	}
	c.JSON(http.StatusOK, TaxResultResponse{Results: result})
}

// ClearAll handles POST /clear-all
func (h *Handlers) ClearAll(c *gin.Context) {
	if err := h.services.Registry.ClearAll(c.Request.Context()); err != nil {
		h.logger.Error("Failed to clear data", "error", err)
		fail(c, http.StatusInternalServerError, CodeInternalError, "failed to clear data")
		return
	}
	c.JSON(http.StatusOK, OKResponse{OK: true})
}

// DownloadArtifact handles GET /download/form_1040.xlsx
func (h *Handlers) DownloadArtifact(c *gin.Context) {
	data, err := h.services.Computation.Artifact(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrArtifactNotFound) {
			fail(c, http.StatusNotFound, CodeNotFound, "Form not generated")
			return
		}
		h.logger.Error("Failed to read artifact", "error", err)
		fail(c, http.StatusInternalServerError, CodeInternalError, "failed to read form")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entity.ArtifactName))
	c.Data(http.StatusOK, entity.ArtifactMimeType, data)
}

// TaxChat handles POST /api/tax-chat. It always answers 200.
func (h *Handlers) TaxChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, ChatResponse{Reply: service.FallbackAskAgain})
		return
	}
	reply := h.services.Advisor.Ask(c.Request.Context(), req.Message, req.ChatHistory)
	c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}

func fail(c *gin.Context, status int, code, msg string) {
	c.JSON(status, Response{Success: false, Error: msg, Code: code})
}
