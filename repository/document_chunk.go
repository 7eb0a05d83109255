package repository

import (
	"shopbot/entity"
	"shopbot/model"
)

type DocumentChunkRepository interface {
	Insert(data []*entity.DocumentChunk) error
	// DeleteByDocument removes every chunk owned by a document. Runs inside the
	// same session that deletes the parent so the cascade is all-or-nothing.
	DeleteByDocument(documentID int64) error
	Get(id int64) (*entity.DocumentChunk, error)
	List(condition *model.GetDocumentChunksCondition) ([]*entity.DocumentChunk, error)
	ListAll() ([]*entity.DocumentChunk, error)
}
