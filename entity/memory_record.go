package entity

import "time"

const (
	TableNameMemoryRecords = "memory_records"

	MemoryRecordsFieldID             = "id"
	MemoryRecordsFieldContent        = "content"
	MemoryRecordsFieldRole           = "role"
	MemoryRecordsFieldEmbedding      = "embedding"
	MemoryRecordsFieldMemoryType     = "memory_type"
	MemoryRecordsFieldPriority       = "priority"
	MemoryRecordsFieldTimestamp      = "timestamp"
	MemoryRecordsFieldConversationID = "conversation_id"
	MemoryRecordsFieldAccessCount    = "access_count"
	MemoryRecordsFieldLastAccessed   = "last_accessed"
	MemoryRecordsFieldRelevanceScore = "relevance_score"
)

// MemoryRecord is one persisted conversational turn. Rows are written once and
// only the access bookkeeping fields change afterwards. A nil ConversationID
// means global scope. RelevanceScore is stored for a future decay policy and is
// not acted on anywhere.
type MemoryRecord struct {
	ID             int64     `xorm:"pk autoincr id" json:"id"`
	Content        string    `xorm:"content" json:"content"`
	Role           string    `xorm:"role" json:"role"`
	Embedding      string    `xorm:"embedding" json:"embedding"` // pgvector column; zero vector when the provider was down
	MemoryType     string    `xorm:"memory_type" json:"memory_type"`
	Priority       int       `xorm:"priority" json:"priority"`
	Timestamp      time.Time `xorm:"timestamp" json:"timestamp"`
	ConversationID *int64    `xorm:"conversation_id" json:"conversation_id"`
	AccessCount    int64     `xorm:"access_count" json:"access_count"`
	LastAccessed   time.Time `xorm:"last_accessed" json:"last_accessed"`
	RelevanceScore float64   `xorm:"relevance_score" json:"relevance_score"`
}

func (e *MemoryRecord) TableName() string {
	return TableNameMemoryRecords
}
