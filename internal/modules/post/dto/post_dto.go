package dto

type CreatePostRequest struct {
	Text string `json:"text" binding:"required"`
}

type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type SearchQuery struct {
	Q     string `form:"q"`
	Limit int64  `form:"limit" binding:"omitempty,min=1,max=100"`
}
