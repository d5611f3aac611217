package payload

type CreatePostRequest struct {
	Title       string   `json:"title"       validate:"required,max=200"`
	Description string   `json:"description" validate:"required"`
	Tags        []string `json:"tags"        validate:"max=20,dive,max=40"`
	Image       string   `json:"image"       validate:"omitempty,url"`
	Type        string   `json:"type"        validate:"required,max=40"`
}

// UpdatePostRequest only touches the fields present in the body.
type UpdatePostRequest struct {
	Title       *string   `json:"title"       validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description" validate:"omitempty"`
	Tags        *[]string `json:"tags"        validate:"omitempty,max=20,dive,max=40"`
	Image       *string   `json:"image"       validate:"omitempty,url"`
	Type        *string   `json:"type"        validate:"omitempty,min=1,max=40"`
}

type CommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type UpdateCommentRequest struct {
	Content *string `json:"content" validate:"required,min=1,max=2000"`
}
