package repository

import (
	"shopbot/entity"
	"shopbot/model"
)

type DocumentRepository interface {
	Insert(data *entity.Document) error
	Delete(id int64) error
	Get(id int64) (*entity.Document, error)
	List(condition *model.GetDocumentsCondition) ([]*entity.Document, int64, error)
}
