package entity

import "time"

const (
	TableNameDocuments = "documents"

	DocumentsFieldID          = "id"
	DocumentsFieldTitle       = "title"
	DocumentsFieldSource      = "source"
	DocumentsFieldContentType = "content_type"
	DocumentsFieldCreatedAt   = "created_at"
)

type Document struct {
	ID          int64     `xorm:"pk autoincr id" json:"id"`
	Title       string    `xorm:"title" json:"title"`
	Source      string    `xorm:"source" json:"source"`
	ContentType string    `xorm:"content_type" json:"content_type"`
	CreatedAt   time.Time `xorm:"created_at" json:"created_at"`
}

func (e *Document) TableName() string {
	return TableNameDocuments
}
