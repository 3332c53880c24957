package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"niyamr/internal/handler"
	"niyamr/internal/router"
	"niyamr/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter() *gin.Engine {
	checkH := handler.NewCheckHandler(new(mocks.MockEvaluationService), nil, handler.CheckConfig{})
	healthH := handler.NewHealthHandler([]string{"groq"}, "native", false)
	return router.Setup(zap.NewNop(), []string{"*"}, checkH, healthH)
}

func TestSetup_RegistersRoutes(t *testing.T) {
	r := setupRouter()

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"POST /check",
		"POST /api/v1/check",
		"POST /api/v1/check/object",
		"GET /healthz",
		"GET /readyz",
		"GET /swagger/*any",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
}

func TestSetup_ServesThroughMiddleware(t *testing.T) {
	r := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	req.Header.Set("Origin", "http://localhost:5173")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSetup_ObjectRouteWithoutStorage(t *testing.T) {
	r := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/check/object", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.JSONEq(t, `{"error":"object storage is not configured"}`, w.Body.String())
}
