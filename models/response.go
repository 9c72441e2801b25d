package models

import "time"

// CreateResponseRequest is the body of POST /posts/:id/responses. PostID is
// only read by POST /responses, the nested route takes it from the path.
type CreateResponseRequest struct {
	PostID int    `json:"post_id"`
	Author string `json:"author" binding:"required"`
	Body   string `json:"body" binding:"required"`
}

// Response is a reply to a post. Every field added by the schema change is
// nullable, so rows written by older clients scan as empty values.
type Response struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResponseEvent is published after a response has been stored.
type ResponseEvent struct {
	Type       string    `json:"type"`
	ResponseID int       `json:"response_id"`
	PostID     int       `json:"post_id"`
	Author     string    `json:"author"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}
