package factory

import (
	"context"

	"shopbot/repository"
	"shopbot/repository/interfaces"
)

type Factory interface {
	NewSession(ctx context.Context) interfaces.Session
	NewDocumentRepository(session interfaces.Session) (repository.DocumentRepository, error)
	NewDocumentChunkRepository(session interfaces.Session) (repository.DocumentChunkRepository, error)
	NewMemoryRecordRepository(session interfaces.Session) (repository.MemoryRecordRepository, error)
}
