package model

import "time"

// Memory represents a user-submitted photo post with school/year metadata,
// likes, and comments.
type Memory struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Media         []Media   `json:"media"`
	SchoolName    string    `json:"school_name"`
	SchoolYear    int       `json:"school_year"`
	SchoolClass   string    `json:"school_class,omitempty"`
	Batch         string    `json:"batch,omitempty"`
	UploaderEmail string    `json:"uploader_email"`
	UploaderName  string    `json:"uploader_name,omitempty"`
	IsPublic      bool      `json:"is_public"`
	LikeCount     int       `json:"like_count"`
	CommentCount  int       `json:"comment_count"`
	IsLiked       bool      `json:"is_liked"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Media is one uploaded file attached to a memory. Every memory carries at
// least one media entry; creation is rejected otherwise.
type Media struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	MimeType string `json:"mimetype"`
	Size     int64  `json:"size"`
}

// CreateMemoryRequest is the multipart form payload accompanying the
// uploaded files.
type CreateMemoryRequest struct {
	Title       string `form:"title" binding:"required,min=1,max=100"`
	Description string `form:"description" binding:"omitempty,max=2000"`
	SchoolName  string `form:"school_name" binding:"required,min=2,max=200"`
	SchoolYear  int    `form:"school_year" binding:"required,min=1900,max=2100"`
	SchoolClass string `form:"school_class" binding:"omitempty,max=50"`
	Batch       string `form:"batch" binding:"omitempty,max=50"`
	IsPublic    *bool  `form:"is_public"`
}

// UpdateMemoryRequest updates the mutable fields of a memory. Only the
// uploader or the platform admin may apply it.
type UpdateMemoryRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

// MemoryQuery carries the feed/search parameters. A school or year filter
// switches the query into search mode, which ignores the is_public flag.
type MemoryQuery struct {
	School  string
	Year    int
	Page    int
	PerPage int
}

// IsSearch reports whether the query carries a school or year filter.
// Search results include private memories; the plain feed does not.
func (q MemoryQuery) IsSearch() bool {
	return q.School != "" || q.Year != 0
}

// LikeResult is returned after a like toggle.
type LikeResult struct {
	IsLiked   bool `json:"is_liked"`
	LikeCount int  `json:"like_count"`
}
