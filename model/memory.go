package model

import "time"

// GetMemoryRecordsCondition filters memory listings (with pagination and ordering).
type GetMemoryRecordsCondition struct {
	ConversationID *int64     `json:"conversation_id"`
	Role           *string    `json:"role"`
	MemoryType     *string    `json:"memory_type"`
	From           *time.Time `json:"from"`
	To             *time.Time `json:"to"`
	*Pager
	*Order
}

func (g *GetMemoryRecordsCondition) GetPager() *Pager {
	return g.Pager
}

func (g *GetMemoryRecordsCondition) GetOrder() *Order {
	return g.Order
}

// UpdateMemoryAccessCondition bumps access bookkeeping on recalled rows.
type UpdateMemoryAccessCondition struct {
	IDs          []int64   `json:"ids"`
	LastAccessed time.Time `json:"last_accessed"`
}

// VectorSearchCondition is a pgvector similarity query over stored embeddings.
type VectorSearchCondition struct {
	ConversationID *int64     `json:"conversation_id"` // nil = global scope
	MemoryTypes    []string   `json:"memory_types"`
	QueryVector    string     `json:"query_vector"` // pgvector literal
	Limit          int        `json:"limit"`
	Threshold      *float64   `json:"threshold"`
	From           *time.Time `json:"from"`
	To             *time.Time `json:"to"`
}

// RecordMemoryRequest is the memory write API payload.
type RecordMemoryRequest struct {
	Content        string `json:"content" binding:"required"`
	Role           string `json:"role" binding:"required"`
	ConversationID *int64 `json:"conversation_id"`
	MemoryType     string `json:"memory_type"`
	Priority       int    `json:"priority"`
}

// RecallRequest is the memory recall API payload.
type RecallRequest struct {
	Query          string   `json:"query" binding:"required"`
	ConversationID *int64   `json:"conversation_id"`
	K              int      `json:"k"`
	MinSimilarity  *float64 `json:"min_similarity"`
	MemoryTypes    []string `json:"memory_types"`
}
