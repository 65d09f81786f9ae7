// internal/handlers/network_test.go
package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/fingrow/acf-backend/internal/services"
)

func newCandidatesRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewNetworkHandler(services.NewNetworkService(nil, nil))
	r := gin.New()
	r.GET("/v1/network/candidates", h.PreviewCandidates)
	return r
}

func TestPreviewCandidatesRejectsBadMode(t *testing.T) {
	r := newCandidatesRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/network/candidates?mode=XYZ", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "mode must be NIC or BIC")
}

func TestPreviewCandidatesRequiresInviterForBIC(t *testing.T) {
	r := newCandidatesRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/network/candidates?mode=BIC", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "inviter")
}
