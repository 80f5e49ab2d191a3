package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"code-research-be/internal/dto"
	"code-research-be/internal/entity"
	"code-research-be/internal/repository/specification"
	"code-research-be/internal/repository/unitofwork"
	"code-research-be/pkg/events"

	"github.com/google/uuid"
)

type INoteService interface {
	Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.NoteResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.NoteResponse, error)
	List(ctx context.Context, page, limit int) (*dto.NoteListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, req *dto.SearchNotesRequest) (*dto.NoteListResponse, error)
}

// IEventPublisher pushes lifecycle events onto the audit stream. The
// NATS publisher satisfies it; tests substitute their own.
type IEventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type noteService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   IEventPublisher
	logger           *log.Logger
}

func NewNoteService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher IEventPublisher,
	logger *log.Logger,
) INoteService {
	if logger == nil {
		logger = log.Default()
	}
	return &noteService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           logger,
	}
}

func (c *noteService) Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note := entity.Note{
		Id:          uuid.New(),
		Title:       req.Title,
		Content:     req.Content,
		Tags:        req.Tags,
		SourceQuery: req.SourceQuery,
		CreatedAt:   time.Now(),
	}

	err := uow.NoteRepository().Create(ctx, &note)
	if err != nil {
		return nil, err
	}

	// An untitled note gets its title generated asynchronously from the
	// content by the titler worker.
	if note.Title == "" {
		msgPayload := dto.GenerateTitleMessage{
			NoteId: note.Id,
		}
		msgJson, err := json.Marshal(msgPayload)
		if err != nil {
			return nil, err
		}
		if err := c.publisherService.Publish(ctx, msgJson); err != nil {
			return nil, err
		}
	}

	if c.eventPublisher != nil {
		evt := events.NewNoteCreated(note.Id.String(), note.Title)
		// Log error but don't fail the request, the event is auxiliary.
		if err := c.eventPublisher.Publish(ctx, evt); err != nil {
			c.logger.Printf("[WARN] Failed to publish NOTE_CREATED event: %v", err)
		}
	}

	return toNoteResponse(&note), nil
}

func (c *noteService) Show(ctx context.Context, id uuid.UUID) (*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.NotDeleted{},
	)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, nil // Not found
	}
	return toNoteResponse(note), nil
}

func (c *noteService) List(ctx context.Context, page, limit int) (*dto.NoteListResponse, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	repo := uow.NoteRepository()

	total, err := repo.Count(ctx, specification.NotDeleted{})
	if err != nil {
		return nil, err
	}

	notes, err := repo.FindAll(ctx,
		specification.NotDeleted{},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	if err != nil {
		return nil, err
	}

	return buildNoteList(notes, total, page, limit), nil
}

func (c *noteService) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.NotDeleted{},
	)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, nil
	}

	now := time.Now()
	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.Tags != nil {
		note.Tags = *req.Tags
	}
	note.UpdatedAt = &now

	err = uow.NoteRepository().Update(ctx, note)
	if err != nil {
		return nil, err
	}

	return toNoteResponse(note), nil
}

func (c *noteService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.NotDeleted{},
	)
	if err != nil {
		return err
	}
	if note == nil {
		return nil
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.NoteRepository().Delete(ctx, id); err != nil {
		return err
	}

	return uow.Commit()
}

func (c *noteService) Search(ctx context.Context, req *dto.SearchNotesRequest) (*dto.NoteListResponse, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	specs := []specification.Specification{
		specification.NotDeleted{},
		specification.TitleOrContentContains{Term: req.Query},
	}
	if req.Tag != "" {
		specs = append(specs, specification.HasTag{Tag: req.Tag})
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	repo := uow.NoteRepository()

	total, err := repo.Count(ctx, specs...)
	if err != nil {
		return nil, err
	}

	notes, err := repo.FindAll(ctx, append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)...)
	if err != nil {
		return nil, err
	}

	return buildNoteList(notes, total, page, limit), nil
}

func toNoteResponse(note *entity.Note) *dto.NoteResponse {
	return &dto.NoteResponse{
		Id:          note.Id.String(),
		Title:       note.Title,
		Content:     note.Content,
		Tags:        note.Tags,
		SourceQuery: note.SourceQuery,
		CreatedAt:   note.CreatedAt,
		UpdatedAt:   note.UpdatedAt,
	}
}

func buildNoteList(notes []*entity.Note, total int64, page, limit int) *dto.NoteListResponse {
	res := &dto.NoteListResponse{
		Notes: make([]dto.NoteResponse, 0, len(notes)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for _, n := range notes {
		res.Notes = append(res.Notes, *toNoteResponse(n))
	}
	return res
}
