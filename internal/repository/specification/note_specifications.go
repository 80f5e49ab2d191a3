package specification

import (
	"gorm.io/gorm"
)

type ByTitle struct {
	Title string
}

func (s ByTitle) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("title = ?", s.Title)
}

// TitleOrContentContains matches notes whose title or content contains
// the term, case-insensitively.
type TitleOrContentContains struct {
	Term string
}

func (s TitleOrContentContains) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Term + "%"
	return db.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
}

// HasTag matches notes whose tags JSON array contains the tag.
type HasTag struct {
	Tag string
}

func (s HasTag) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tags @> ?", `["`+s.Tag+`"]`)
}

type BySourceQuery struct {
	Query string
}

func (s BySourceQuery) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_query = ?", s.Query)
}
