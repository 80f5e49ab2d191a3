package dto

import (
	"time"

	"github.com/google/uuid"
)

// GenerateTitleMessage asks the titler worker to name an untitled note.
type GenerateTitleMessage struct {
	NoteId uuid.UUID `json:"note_id"`
}

type CreateNoteRequest struct {
	Title       string   `json:"title" validate:"omitempty,max=255"`
	Content     string   `json:"content" validate:"required"`
	Tags        []string `json:"tags" validate:"omitempty,max=20,dive,max=64"`
	SourceQuery string   `json:"source_query" validate:"omitempty,max=1024"`
}

type UpdateNoteRequest struct {
	Title   *string   `json:"title" validate:"omitempty,max=255"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags" validate:"omitempty,max=20,dive,max=64"`
}

type NoteResponse struct {
	Id          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Tags        []string   `json:"tags"`
	SourceQuery string     `json:"source_query,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type NoteListResponse struct {
	Notes []NoteResponse `json:"notes"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type SearchNotesRequest struct {
	Query string `json:"query" validate:"required,min=1"`
	Tag   string `json:"tag" validate:"omitempty,max=64"`
	Page  int    `json:"page" validate:"omitempty,min=1"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=100"`
}
