package repository

import (
	"shopbot/entity"
	"shopbot/model"
)

type MemoryRecordRepository interface {
	Insert(data *entity.MemoryRecord) error
	Get(id int64) (*entity.MemoryRecord, error)
	List(condition *model.GetMemoryRecordsCondition) ([]*entity.MemoryRecord, int64, error)
	ListAll() ([]*entity.MemoryRecord, error)
	// BumpAccess increments access_count and stamps last_accessed on recalled rows.
	BumpAccess(condition *model.UpdateMemoryAccessCondition) error
	// VectorSearch ranks rows by pgvector cosine similarity in the database.
	VectorSearch(condition *model.VectorSearchCondition) ([]*entity.MemoryRecord, error)
}
