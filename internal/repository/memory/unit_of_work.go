package memory

import (
	"context"

	"code-research-be/internal/repository/contract"
	"code-research-be/internal/repository/unitofwork"
)

// NoteRepositoryFactory yields in-memory units of work over one shared
// note store. Transactions are no-ops; the memory backend applies each
// write immediately.
type NoteRepositoryFactory struct {
	notes *NoteRepository
}

func NewNoteRepositoryFactory() unitofwork.RepositoryFactory {
	return &NoteRepositoryFactory{
		notes: NewNoteRepository(),
	}
}

func (f *NoteRepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memoryUnitOfWork{notes: f.notes}
}

type memoryUnitOfWork struct {
	notes *NoteRepository
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *memoryUnitOfWork) Commit() error                   { return nil }
func (u *memoryUnitOfWork) Rollback() error                 { return nil }

func (u *memoryUnitOfWork) NoteRepository() contract.NoteRepository {
	return u.notes
}
