package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"niyamr/internal/domain"
	"niyamr/internal/report"
	"niyamr/internal/service"
)

// uploadFields are the multipart parts accepted for the document, in lookup order.
var uploadFields = []string{"pdf", "file"}

// multipartOverhead is headroom for the rules field and part headers on top of the file limit.
const multipartOverhead = 1 << 20

// CheckConfig holds request limits for the check endpoints.
type CheckConfig struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// CheckHandler handles rule compliance check endpoints.
type CheckHandler struct {
	evaluator service.EvaluationService
	source    service.DocumentSource
	cfg       CheckConfig
}

// NewCheckHandler creates a new CheckHandler. source may be nil when object
// storage is not configured.
func NewCheckHandler(evaluator service.EvaluationService, source service.DocumentSource, cfg CheckConfig) *CheckHandler {
	return &CheckHandler{evaluator: evaluator, source: source, cfg: cfg}
}

// Check handles POST /check and POST /api/v1/check
// @Summary Check a PDF against rules
// @Description Extracts the text of the uploaded PDF and judges each rule against it with a language model. The result has one entry per rule, in submission order.
// @Tags check
// @Accept multipart/form-data
// @Produce json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param pdf formData file true "PDF document (the part may also be named file)"
// @Param rules formData string true "JSON array of rule strings" example(["Document must have a purpose section."])
// @Param format query string false "Response format: json (default) or xlsx"
// @Success 200 {array} RuleResultBody "One verdict per rule"
// @Failure 400 {object} ErrorResponse "Missing document or malformed rules"
// @Failure 413 {object} ErrorResponse "File too large"
// @Failure 500 {object} ErrorResponse "Document could not be read"
// @Failure 504 {object} ErrorResponse "Evaluation timed out"
// @Router /check [post]
func (h *CheckHandler) Check(c *gin.Context) {
	if h.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes+multipartOverhead)
	}

	document, filename, err := h.readUpload(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	rules, err := ParseRules(c.PostForm("rules"))
	if err != nil {
		HandleError(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.evaluator.Evaluate(ctx, document, rules)
	if err != nil {
		HandleError(c, err)
		return
	}

	h.respond(c, result, filename)
}

// CheckObject handles POST /api/v1/check/object
// @Summary Check a stored PDF against rules
// @Description Fetches a PDF from S3-compatible object storage and judges each rule against it.
// @Tags check
// @Accept json
// @Produce json
// @Param request body CheckObjectRequest true "Object location and rules"
// @Param format query string false "Response format: json (default) or xlsx"
// @Success 200 {array} RuleResultBody "One verdict per rule"
// @Failure 400 {object} ErrorResponse "Missing key or malformed rules"
// @Failure 404 {object} ErrorResponse "Object not found"
// @Failure 413 {object} ErrorResponse "Object too large"
// @Failure 500 {object} ErrorResponse "Document could not be read"
// @Failure 501 {object} ErrorResponse "Object storage not configured"
// @Failure 504 {object} ErrorResponse "Evaluation timed out"
// @Router /api/v1/check/object [post]
func (h *CheckHandler) CheckObject(c *gin.Context) {
	if h.source == nil || !h.source.Enabled() {
		HandleError(c, domain.ErrStorageDisabled)
		return
	}

	var req CheckObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleError(c, fmt.Errorf("%v: %w", err, domain.ErrInvalidRules))
		return
	}
	if req.Rules == nil {
		HandleError(c, fmt.Errorf("rules field is required: %w", domain.ErrInvalidRules))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	document, err := h.source.Fetch(ctx, req.Bucket, req.Key)
	if err != nil {
		HandleError(c, err)
		return
	}

	result, err := h.evaluator.Evaluate(ctx, document, domain.RulesFromStrings(req.Rules))
	if err != nil {
		HandleError(c, err)
		return
	}

	h.respond(c, result, req.Key)
}

// ParseRules decodes the rules form field: a JSON array whose entries are all strings.
func ParseRules(raw string) ([]domain.Rule, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("rules field is required: %w", domain.ErrInvalidRules)
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("rules is not valid JSON (%v): %w", err, domain.ErrInvalidRules)
	}
	items, ok := decoded.([]any)
	if !ok {
		return nil, domain.ErrInvalidRules
	}

	rules := make([]domain.Rule, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("rules[%d] is not a string: %w", i, domain.ErrInvalidRules)
		}
		rules[i] = domain.Rule(s)
	}
	return rules, nil
}

func (h *CheckHandler) readUpload(c *gin.Context) ([]byte, string, error) {
	for _, field := range uploadFields {
		file, header, err := c.Request.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) || errors.Is(err, multipart.ErrMessageTooLarge) {
				return nil, "", domain.ErrFileTooLarge
			}
			return nil, "", fmt.Errorf("reading multipart form (%v): %w", err, domain.ErrMissingDocument)
		}
		data, err := h.readPart(file, header)
		return data, header.Filename, err
	}
	return nil, "", fmt.Errorf("multipart part %q is required: %w", uploadFields[0], domain.ErrMissingDocument)
}

func (h *CheckHandler) readPart(file multipart.File, header *multipart.FileHeader) ([]byte, error) {
	defer func() { _ = file.Close() }()

	if h.cfg.MaxUploadBytes > 0 && header.Size > h.cfg.MaxUploadBytes {
		return nil, domain.ErrFileTooLarge
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading uploaded file: %w", err)
	}
	return data, nil
}

func (h *CheckHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.cfg.RequestTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	}
	return context.WithCancel(c.Request.Context())
}

func (h *CheckHandler) respond(c *gin.Context, result domain.EvaluationResult, source string) {
	if result == nil {
		result = domain.EvaluationResult{}
	}

	if strings.EqualFold(c.Query("format"), "xlsx") {
		buf, err := report.Build(result, report.Meta{Source: source, GeneratedAt: time.Now().UTC()})
		if err != nil {
			HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, report.FileName(source)))
		c.Data(http.StatusOK, report.ContentType, buf.Bytes())
		return
	}

	c.JSON(http.StatusOK, result)
}
