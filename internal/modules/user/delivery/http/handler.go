package handler

import (
	"net/http"

	"anoa.com/devconnector/internal/modules/user/dto"
	"anoa.com/devconnector/internal/modules/user/service"
	"anoa.com/devconnector/pkg/response"
	"anoa.com/devconnector/pkg/validator"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Register handles POST /api/user.
func (h *UserHandler) Register(c *gin.Context) {
	var input dto.RegisterInput
	if errs := validator.BindJSON(c, &input); errs != nil {
		response.Errors(c, http.StatusBadRequest, errs)
		return
	}

	res, err := h.service.Register(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Login handles POST /api/auth.
func (h *UserHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if errs := validator.BindJSON(c, &input); errs != nil {
		response.Errors(c, http.StatusBadRequest, errs)
		return
	}

	res, err := h.service.Authenticate(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Me handles GET /api/auth.
func (h *UserHandler) Me(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.service.GetCurrent(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
