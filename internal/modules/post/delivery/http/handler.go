package handler

import (
	"net/http"

	postDto "anoa.com/devconnector/internal/modules/post/dto"
	post "anoa.com/devconnector/internal/modules/post/service"
	"anoa.com/devconnector/pkg/response"
	"anoa.com/devconnector/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PostHandler struct {
	service post.PostService
}

func NewPostHandler(service post.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// postID parses :post_id; malformed ids are reported like missing posts.
func postID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		response.Error(c, post.ErrPostNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func (h *PostHandler) GetPosts(c *gin.Context) {
	posts, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) GetPostByID(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req postDto.CreatePostRequest
	if errs := validator.BindJSON(c, &req); errs != nil {
		response.Errors(c, http.StatusBadRequest, errs)
		return
	}

	p, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, ok := postID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Msg(c, http.StatusOK, "Post deleted")
}

func (h *PostHandler) LikePost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, ok := postID(c)
	if !ok {
		return
	}

	likes, err := h.service.Like(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, likes)
}

func (h *PostHandler) UnlikePost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, ok := postID(c)
	if !ok {
		return
	}

	likes, err := h.service.Unlike(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, likes)
}

func (h *PostHandler) AddComment(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, ok := postID(c)
	if !ok {
		return
	}

	var req postDto.CommentRequest
	if errs := validator.BindJSON(c, &req); errs != nil {
		response.Errors(c, http.StatusBadRequest, errs)
		return
	}

	comments, err := h.service.AddComment(c.Request.Context(), id, userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

func (h *PostHandler) DeleteComment(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, ok := postID(c)
	if !ok {
		return
	}
	// A malformed comment id matches nothing and surfaces as a missing comment.
	commentID, _ := uuid.Parse(c.Param("comment_id"))

	comments, err := h.service.RemoveComment(c.Request.Context(), id, commentID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

func (h *PostHandler) SearchPosts(c *gin.Context) {
	var query postDto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Errors(c, http.StatusBadRequest, validator.Violations(err))
		return
	}

	posts, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}
