package xormimplement

import (
	"fmt"

	"shopbot/entity"
	"shopbot/model"
	"shopbot/repository"

	"xorm.io/builder"
)

type DocumentRepository struct {
	session *Session
}

func NewDocumentRepository(session *Session) repository.DocumentRepository {
	return &DocumentRepository{session: session}
}

func buildDocumentQueryConditions(condition *model.GetDocumentsCondition) builder.Cond {
	var conds []builder.Cond

	if condition.Title != nil && *condition.Title != "" {
		conds = append(conds, builder.Like{entity.DocumentsFieldTitle, *condition.Title})
	}
	if condition.Source != nil && *condition.Source != "" {
		conds = append(conds, builder.Eq{entity.DocumentsFieldSource: *condition.Source})
	}
	if condition.ContentType != nil && *condition.ContentType != "" {
		conds = append(conds, builder.Eq{entity.DocumentsFieldContentType: *condition.ContentType})
	}
	if condition.CreatedFrom != nil {
		conds = append(conds, builder.Gte{entity.DocumentsFieldCreatedAt: *condition.CreatedFrom})
	}
	if condition.CreatedTo != nil {
		conds = append(conds, builder.Lte{entity.DocumentsFieldCreatedAt: *condition.CreatedTo})
	}

	if len(conds) == 0 {
		return nil
	}
	return builder.And(conds...)
}

func (r *DocumentRepository) Insert(data *entity.Document) error {
	if data == nil {
		return fmt.Errorf("document cannot be nil")
	}

	_, err := r.session.Table(entity.TableNameDocuments).Insert(data)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

func (r *DocumentRepository) Delete(id int64) error {
	if id <= 0 {
		return fmt.Errorf("document id must be greater than 0")
	}

	_, err := r.session.Table(entity.TableNameDocuments).
		Where(builder.Eq{entity.DocumentsFieldID: id}).
		Delete(&entity.Document{})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}

func (r *DocumentRepository) Get(id int64) (*entity.Document, error) {
	if id <= 0 {
		return nil, fmt.Errorf("document id must be greater than 0")
	}

	result := &entity.Document{}
	ok, err := r.session.Table(entity.TableNameDocuments).
		Where(builder.Eq{entity.DocumentsFieldID: id}).
		Get(result)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if !ok {
		return nil, nil
	}

	return result, nil
}

func (r *DocumentRepository) List(condition *model.GetDocumentsCondition) ([]*entity.Document, int64, error) {
	if condition == nil {
		return nil, 0, fmt.Errorf("get condition cannot be nil")
	}

	cond := buildDocumentQueryConditions(condition)

	session := r.session.Table(entity.TableNameDocuments)
	if cond != nil {
		session = session.Where(cond)
	}

	pagerOrder(session, condition, WithDefaultOrderField(entity.DocumentsFieldCreatedAt))

	var results []*entity.Document
	total, err := session.FindAndCount(&results)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}

	return results, total, nil
}
