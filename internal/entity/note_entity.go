package entity

import (
	"time"

	"github.com/google/uuid"
)

// Note is a saved research finding. Title is generated from the content
// when the client does not provide one.
type Note struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string
	Content     string
	Tags        []string
	SourceQuery string // The research query this note came from, if any
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
