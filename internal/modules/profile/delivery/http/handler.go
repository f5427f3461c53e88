package handler

import (
	"net/http"

	"anoa.com/devconnector/internal/modules/profile/dto"
	profile "anoa.com/devconnector/internal/modules/profile/service"
	"anoa.com/devconnector/pkg/response"
	"anoa.com/devconnector/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProfileHandler struct {
	profileService profile.ProfileService
}

func NewProfileHandler(profileService profile.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

func (h *ProfileHandler) GetCurrentProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	p, err := h.profileService.GetMine(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) GetAllProfiles(c *gin.Context) {
	profiles, err := h.profileService.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, profiles)
}

func (h *ProfileHandler) GetProfileByUserID(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Error(c, profile.ErrNoProfile)
		return
	}

	p, err := h.profileService.GetByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.UpsertProfileRequest
	if errs := validator.BindJSON(c, &req); errs != nil {
		response.Errors(c, http.StatusBadRequest, errs)
		return
	}

	p, err := h.profileService.Upsert(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) AddExperience(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.ExperienceRequest
	if errs := validator.BindJSON(c, &req); errs != nil {
		response.Errors(c, http.StatusBadRequest, errs)
		return
	}

	p, err := h.profileService.AddExperience(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// DeleteExperience removes an entry by id; unknown or malformed ids leave the
// profile unchanged.
func (h *ProfileHandler) DeleteExperience(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	expID, _ := uuid.Parse(c.Param("exp_id"))
	p, err := h.profileService.RemoveExperience(c.Request.Context(), userID, expID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) AddEducation(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.EducationRequest
	if errs := validator.BindJSON(c, &req); errs != nil {
		response.Errors(c, http.StatusBadRequest, errs)
		return
	}

	p, err := h.profileService.AddEducation(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) DeleteEducation(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	eduID, _ := uuid.Parse(c.Param("edu_id"))
	p, err := h.profileService.RemoveEducation(c.Request.Context(), userID, eduID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// DeleteAccount removes the caller's profile and user.
func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.profileService.DeleteAccount(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Msg(c, http.StatusOK, "User removed")
}
