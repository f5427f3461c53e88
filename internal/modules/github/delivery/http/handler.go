package handler

import (
	"net/http"

	github "anoa.com/devconnector/internal/modules/github/service"
	"anoa.com/devconnector/pkg/response"
	"github.com/gin-gonic/gin"
)

type GithubHandler struct {
	service github.GithubService
}

func NewGithubHandler(service github.GithubService) *GithubHandler {
	return &GithubHandler{service: service}
}

// GetRepos handles GET /api/profile/github/:username.
func (h *GithubHandler) GetRepos(c *gin.Context) {
	repos, err := h.service.ListRepos(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", repos)
}
