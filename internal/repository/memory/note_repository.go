package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"code-research-be/internal/entity"
	"code-research-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// NoteRepository is the in-memory notes store, used when the service
// runs without a database DSN. It interprets the subset of
// specifications the note service actually issues; unknown
// specifications are ignored.
type NoteRepository struct {
	cache *cache.Cache
}

func NewNoteRepository() *NoteRepository {
	return &NoteRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *NoteRepository) Create(ctx context.Context, note *entity.Note) error {
	stored := *note
	r.cache.Set(note.Id.String(), &stored, cache.NoExpiration)
	return nil
}

func (r *NoteRepository) Update(ctx context.Context, note *entity.Note) error {
	return r.Create(ctx, note)
}

func (r *NoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if x, found := r.cache.Get(id.String()); found {
		note := *(x.(*entity.Note))
		now := time.Now()
		note.IsDeleted = true
		note.DeletedAt = &now
		r.cache.Set(id.String(), &note, cache.NoExpiration)
	}
	return nil
}

func (r *NoteRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	notes, err := r.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, nil
	}
	return notes[0], nil
}

func (r *NoteRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	notes := r.filtered(specs)
	notes = applyOrder(notes, specs)
	notes = applyPagination(notes, specs)
	return notes, nil
}

func (r *NoteRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.filtered(specs))), nil
}

func (r *NoteRepository) filtered(specs []specification.Specification) []*entity.Note {
	var notes []*entity.Note
	for _, item := range r.cache.Items() {
		note, ok := item.Object.(*entity.Note)
		if !ok || !matches(note, specs) {
			continue
		}
		copied := *note
		notes = append(notes, &copied)
	}
	return notes
}

func matches(note *entity.Note, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if note.Id != s.ID {
				return false
			}
		case specification.ByIDs:
			found := false
			for _, id := range s.IDs {
				if note.Id == id {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case specification.NotDeleted:
			if note.IsDeleted {
				return false
			}
		case specification.ByTitle:
			if note.Title != s.Title {
				return false
			}
		case specification.TitleOrContentContains:
			term := strings.ToLower(s.Term)
			if !strings.Contains(strings.ToLower(note.Title), term) &&
				!strings.Contains(strings.ToLower(note.Content), term) {
				return false
			}
		case specification.HasTag:
			found := false
			for _, tag := range note.Tags {
				if tag == s.Tag {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case specification.BySourceQuery:
			if note.SourceQuery != s.Query {
				return false
			}
		}
	}
	return true
}

func applyOrder(notes []*entity.Note, specs []specification.Specification) []*entity.Note {
	for _, spec := range specs {
		if s, ok := spec.(specification.OrderBy); ok && s.Field == "created_at" {
			sort.SliceStable(notes, func(i, j int) bool {
				if s.Desc {
					return notes[i].CreatedAt.After(notes[j].CreatedAt)
				}
				return notes[i].CreatedAt.Before(notes[j].CreatedAt)
			})
		}
	}
	return notes
}

func applyPagination(notes []*entity.Note, specs []specification.Specification) []*entity.Note {
	for _, spec := range specs {
		s, ok := spec.(specification.Pagination)
		if !ok {
			continue
		}
		start := s.Offset
		if start < 0 {
			start = 0
		}
		if start >= len(notes) {
			return nil
		}
		end := start + s.Limit
		if end > len(notes) {
			end = len(notes)
		}
		notes = notes[start:end]
	}
	return notes
}
