package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"niyamr/internal/domain"
	"niyamr/internal/handler"
	"niyamr/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var pdfBytes = []byte("%PDF-1.4 test content")

// multipartBody builds a check request body. An empty field skips the file part;
// a nil rules pointer skips the rules field.
func multipartBody(t *testing.T, field string, file []byte, rules *string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		part, err := writer.CreateFormFile(field, "policy.pdf")
		require.NoError(t, err)
		_, _ = part.Write(file)
	}
	if rules != nil {
		require.NoError(t, writer.WriteField("rules", *rules))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func strPtr(s string) *string { return &s }

func newCheckContext(body *bytes.Buffer, contentType, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, target, body)
	c.Request.Header.Set("Content-Type", contentType)
	return c, w
}

func sampleResult() domain.EvaluationResult {
	return domain.EvaluationResult{
		{Rule: "Has a purpose", Verdict: domain.Verdict{Status: domain.VerdictPass, Evidence: "Sec 1", Reasoning: "Stated", Confidence: 90}},
		{Rule: "Has a date", Verdict: domain.InvalidJSONVerdict("oops")},
	}
}

func TestCheckHandler_Check_Success(t *testing.T) {
	evaluator := new(mocks.MockEvaluationService)
	h := handler.NewCheckHandler(evaluator, nil, handler.CheckConfig{MaxUploadBytes: 1 << 20})

	evaluator.On("Evaluate", mock.Anything, pdfBytes, []domain.Rule{"Has a purpose", "Has a date"}).
		Return(sampleResult(), nil)

	body, ct := multipartBody(t, "pdf", pdfBytes, strPtr(`["Has a purpose","Has a date"]`))
	c, w := newCheckContext(body, ct, "/check")

	h.Check(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[
		{"rule":"Has a purpose","status":"pass","evidence":"Sec 1","reasoning":"Stated","confidence":90},
		{"rule":"Has a date","status":"fail","evidence":"Invalid JSON returned","reasoning":"oops","confidence":0}
	]`, w.Body.String())
	evaluator.AssertExpectations(t)
}

func TestCheckHandler_Check_FileAlias(t *testing.T) {
	evaluator := new(mocks.MockEvaluationService)
	h := handler.NewCheckHandler(evaluator, nil, handler.CheckConfig{})

	evaluator.On("Evaluate", mock.Anything, pdfBytes, []domain.Rule{"r"}).Return(domain.EvaluationResult{}, nil)

	body, ct := multipartBody(t, "file", pdfBytes, strPtr(`["r"]`))
	c, w := newCheckContext(body, ct, "/api/v1/check")

	h.Check(c)

	assert.Equal(t, http.StatusOK, w.Code)
	evaluator.AssertExpectations(t)
}

func TestCheckHandler_Check_EmptyRules(t *testing.T) {
	evaluator := new(mocks.MockEvaluationService)
	h := handler.NewCheckHandler(evaluator, nil, handler.CheckConfig{})

	evaluator.On("Evaluate", mock.Anything, pdfBytes, []domain.Rule{}).Return(domain.EvaluationResult{}, nil)

	body, ct := multipartBody(t, "pdf", pdfBytes, strPtr(`[]`))
	c, w := newCheckContext(body, ct, "/check")

	h.Check(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCheckHandler_Check_MissingFile(t *testing.T) {
	evaluator := new(mocks.MockEvaluationService)
	h := handler.NewCheckHandler(evaluator, nil, handler.CheckConfig{})

	body, ct := multipartBody(t, "", nil, strPtr(`["r"]`))
	c, w := newCheckContext(body, ct, "/check")

	h.Check(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp handler.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "document file is required")
	evaluator.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckHandler_Check_NotMultipart(t *testing.T) {
	evaluator := new(mocks.MockEvaluationService)
	h := handler.NewCheckHandler(evaluator, nil, handler.CheckConfig{})

	c, w := newCheckContext(bytes.NewBufferString(`{"rules":[]}`), "application/json", "/check")

	h.Check(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckHandler_Check_BadRules(t *testing.T) {
	tests := []struct {
		name  string
		rules *string
	}{
		{"missing", nil},
		{"not json", strPtr(`Has a purpose`)},
		{"object", strPtr(`{"rule":"x"}`)},
		{"null", strPtr(`null`)},
		{"non-string entry", strPtr(`["a", 3]`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluator := new(mocks.MockEvaluationService)
			h := handler.NewCheckHandler(evaluator, nil, handler.CheckConfig{})

			body, ct := multipartBody(t, "pdf", pdfBytes, tt.rules)
			c, w := newCheckContext(body, ct, "/check")

			h.Check(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "rules")
			evaluator.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCheckHandler_Check_TooLarge(t *testing.T) {
	evaluator := new(mocks.MockEvaluationService)
	h := handler.NewCheckHandler(evaluator, nil, handler.CheckConfig{MaxUploadBytes: 16})

	body, ct := multipartBody(t, "pdf", pdfBytes, strPtr(`["r"]`))
	c, w := newCheckContext(body, ct, "/check")

	h.Check(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"error":"file exceeds maximum allowed size"}`, w.Body.String())
	evaluator.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckHandler_Check_ExtractionFailure(t *testing.T) {
	evaluator := new(mocks.MockEvaluationService)
	h := handler.NewCheckHandler(evaluator, nil, handler.CheckConfig{})

	evaluator.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.NewExtractionError("native", errors.New("missing %PDF- header")))

	body, ct := multipartBody(t, "pdf", []byte("not a pdf"), strPtr(`["r"]`))
	c, w := newCheckContext(body, ct, "/check")

	h.Check(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp handler.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "document could not be read")
}

func TestCheckHandler_Check_Timeout(t *testing.T) {
	evaluator := new(mocks.MockEvaluationService)
	h := handler.NewCheckHandler(evaluator, nil, handler.CheckConfig{RequestTimeout: 10 * time.Millisecond})

	evaluator.On("Evaluate", mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return hasDeadline
	}), mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	body, ct := multipartBody(t, "pdf", pdfBytes, strPtr(`["r"]`))
	c, w := newCheckContext(body, ct, "/check")

	h.Check(c)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	evaluator.AssertExpectations(t)
}

func TestCheckHandler_Check_XLSX(t *testing.T) {
	evaluator := new(mocks.MockEvaluationService)
	h := handler.NewCheckHandler(evaluator, nil, handler.CheckConfig{})

	evaluator.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(sampleResult(), nil)

	body, ct := multipartBody(t, "pdf", pdfBytes, strPtr(`["Has a purpose","Has a date"]`))
	c, w := newCheckContext(body, ct, "/check?format=xlsx")

	h.Check(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "policy-report.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestCheckHandler_CheckObject_Success(t *testing.T) {
	evaluator := new(mocks.MockEvaluationService)
	source := new(mocks.MockDocumentSource)
	h := handler.NewCheckHandler(evaluator, source, handler.CheckConfig{})

	source.On("Enabled").Return(true)
	source.On("Fetch", mock.Anything, "contracts", "msa.pdf").Return(pdfBytes, nil)
	evaluator.On("Evaluate", mock.Anything, pdfBytes, []domain.Rule{"Has a purpose"}).Return(sampleResult()[:1], nil)

	body := bytes.NewBufferString(`{"bucket":"contracts","key":"msa.pdf","rules":["Has a purpose"]}`)
	c, w := newCheckContext(body, "application/json", "/api/v1/check/object")

	h.CheckObject(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(w.Body.String()), "["))
	source.AssertExpectations(t)
	evaluator.AssertExpectations(t)
}

func TestCheckHandler_CheckObject_StorageDisabled(t *testing.T) {
	h := handler.NewCheckHandler(new(mocks.MockEvaluationService), nil, handler.CheckConfig{})

	c, w := newCheckContext(bytes.NewBufferString(`{"key":"a.pdf","rules":[]}`), "application/json", "/api/v1/check/object")

	h.CheckObject(c)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestCheckHandler_CheckObject_NotFound(t *testing.T) {
	evaluator := new(mocks.MockEvaluationService)
	source := new(mocks.MockDocumentSource)
	h := handler.NewCheckHandler(evaluator, source, handler.CheckConfig{})

	source.On("Enabled").Return(true)
	source.On("Fetch", mock.Anything, "", "gone.pdf").Return(nil, domain.ErrObjectNotFound)

	c, w := newCheckContext(bytes.NewBufferString(`{"key":"gone.pdf","rules":["r"]}`), "application/json", "/api/v1/check/object")

	h.CheckObject(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	evaluator.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckHandler_CheckObject_BadBody(t *testing.T) {
	source := new(mocks.MockDocumentSource)
	source.On("Enabled").Return(true)
	h := handler.NewCheckHandler(new(mocks.MockEvaluationService), source, handler.CheckConfig{})

	for _, raw := range []string{`{"key":"a.pdf"}`, `{"key":"a.pdf","rules":[1,2]}`, `not json`} {
		c, w := newCheckContext(bytes.NewBufferString(raw), "application/json", "/api/v1/check/object")
		h.CheckObject(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
	source.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
}

func TestParseRules(t *testing.T) {
	rules, err := handler.ParseRules(`["a", "b", "a", ""]`)
	require.NoError(t, err)
	assert.Equal(t, []domain.Rule{"a", "b", "a", ""}, rules)

	_, err = handler.ParseRules(`[true]`)
	assert.ErrorIs(t, err, domain.ErrInvalidRules)
}
