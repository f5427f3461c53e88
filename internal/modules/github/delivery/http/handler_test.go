package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	github "anoa.com/devconnector/internal/modules/github/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetRepos(t *testing.T) {
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/ann/repos" {
			_, _ = w.Write([]byte(`[{"name":"a"}]`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	h := NewGithubHandler(github.NewGithubService(upstream.URL, "", nil, 0))
	r := gin.New()
	r.GET("/api/profile/github/:username", h.GetRepos)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profile/github/ann", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"a"}]`, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profile/github/ghost", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"msg":"No Github profile found"}`, w.Body.String())
}
