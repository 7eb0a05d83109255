// Package inmemory backs the repository interfaces with plain maps. It keeps
// service tests and local development off a real Postgres while preserving
// the factory/session shape of the xorm implementation.
package inmemory

import (
	"context"
	"sync"

	"shopbot/repository"
	"shopbot/repository/factory"
	"shopbot/repository/interfaces"
)

type Factory struct {
	store *store
}

func NewFactory() factory.Factory {
	return &Factory{store: newStore()}
}

func (f *Factory) NewSession(ctx context.Context) interfaces.Session {
	return &session{}
}

func (f *Factory) NewDocumentRepository(s interfaces.Session) (repository.DocumentRepository, error) {
	return &documentRepository{store: f.store}, nil
}

func (f *Factory) NewDocumentChunkRepository(s interfaces.Session) (repository.DocumentChunkRepository, error) {
	return &documentChunkRepository{store: f.store}, nil
}

func (f *Factory) NewMemoryRecordRepository(s interfaces.Session) (repository.MemoryRecordRepository, error) {
	return &memoryRecordRepository{store: f.store}, nil
}

// session is transaction-free: every write is applied immediately.
type session struct{}

func (s *session) Begin() error    { return nil }
func (s *session) Close() error    { return nil }
func (s *session) Commit() error   { return nil }
func (s *session) Rollback() error { return nil }

type store struct {
	mu sync.RWMutex

	nextDocumentID int64
	nextChunkID    int64
	nextMemoryID   int64

	documents map[int64]*documentRow
	chunks    map[int64]*chunkRow
	memories  map[int64]*memoryRow
}

func newStore() *store {
	return &store{
		documents: make(map[int64]*documentRow),
		chunks:    make(map[int64]*chunkRow),
		memories:  make(map[int64]*memoryRow),
	}
}
