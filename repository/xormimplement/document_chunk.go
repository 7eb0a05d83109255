package xormimplement

import (
	"fmt"

	"shopbot/entity"
	"shopbot/model"
	"shopbot/repository"

	"xorm.io/builder"
)

type DocumentChunkRepository struct {
	session *Session
}

func NewDocumentChunkRepository(session *Session) repository.DocumentChunkRepository {
	return &DocumentChunkRepository{session: session}
}

func (r *DocumentChunkRepository) Insert(data []*entity.DocumentChunk) error {
	if len(data) == 0 {
		return fmt.Errorf("document_chunks data cannot be empty")
	}

	for _, item := range data {
		if item == nil {
			return fmt.Errorf("document_chunks item cannot be nil")
		}
	}

	_, err := r.session.Table(entity.TableNameDocumentChunks).Insert(data)
	if err != nil {
		return fmt.Errorf("failed to insert document_chunks: %w", err)
	}

	return nil
}

func (r *DocumentChunkRepository) DeleteByDocument(documentID int64) error {
	if documentID <= 0 {
		return fmt.Errorf("document id must be greater than 0")
	}

	_, err := r.session.Table(entity.TableNameDocumentChunks).
		Where(builder.Eq{entity.DocumentChunksFieldDocumentID: documentID}).
		Delete(&entity.DocumentChunk{})
	if err != nil {
		return fmt.Errorf("failed to delete document_chunks: %w", err)
	}

	return nil
}

func (r *DocumentChunkRepository) Get(id int64) (*entity.DocumentChunk, error) {
	if id <= 0 {
		return nil, fmt.Errorf("document_chunks id must be greater than 0")
	}

	result := &entity.DocumentChunk{}
	ok, err := r.session.Table(entity.TableNameDocumentChunks).
		Where(builder.Eq{entity.DocumentChunksFieldID: id}).
		Get(result)
	if err != nil {
		return nil, fmt.Errorf("failed to get document_chunks: %w", err)
	}

	if !ok {
		return nil, nil
	}

	return result, nil
}

func (r *DocumentChunkRepository) List(condition *model.GetDocumentChunksCondition) ([]*entity.DocumentChunk, error) {
	if condition == nil {
		return nil, fmt.Errorf("get condition cannot be nil")
	}

	var conds []builder.Cond
	if condition.DocumentID != nil && *condition.DocumentID > 0 {
		conds = append(conds, builder.Eq{entity.DocumentChunksFieldDocumentID: *condition.DocumentID})
	}
	if len(condition.DocumentIDs) > 0 {
		conds = append(conds, builder.In(entity.DocumentChunksFieldDocumentID, condition.DocumentIDs))
	}

	session := r.session.Table(entity.TableNameDocumentChunks)
	if len(conds) > 0 {
		session = session.Where(builder.And(conds...))
	}

	var results []*entity.DocumentChunk
	if err := session.OrderBy(entity.DocumentChunksFieldChunkIndex + " asc").Find(&results); err != nil {
		return nil, fmt.Errorf("failed to list document_chunks: %w", err)
	}

	return results, nil
}

// ListAll loads every chunk, used to warm the in-process index at startup.
func (r *DocumentChunkRepository) ListAll() ([]*entity.DocumentChunk, error) {
	var results []*entity.DocumentChunk
	if err := r.session.Table(entity.TableNameDocumentChunks).Find(&results); err != nil {
		return nil, fmt.Errorf("failed to list document_chunks: %w", err)
	}
	return results, nil
}
