package models

import "time"

type CreatePostRequest struct {
	Author string `json:"author" binding:"required"`
	Body   string `json:"body" binding:"required"`
}

type Post struct {
	ID            int        `json:"id"`
	Author        string     `json:"author"`
	Body          string     `json:"body"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ResponseCount int        `json:"response_count"`
	Responses     []Response `json:"responses,omitempty"`
}
