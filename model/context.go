package model

import "time"

// EntityCategory is the closed set of entity kinds a conversation tracks.
// Extractors may emit anything; only these eight are accepted, the rest are
// dropped silently.
type EntityCategory string

const (
	CategoryProducts   EntityCategory = "products"
	CategoryOrders     EntityCategory = "orders"
	CategoryCustomers  EntityCategory = "customers"
	CategoryCategories EntityCategory = "categories"
	CategoryPrices     EntityCategory = "prices"
	CategoryQuantities EntityCategory = "quantities"
	CategoryDates      EntityCategory = "dates"
	CategoryDocuments  EntityCategory = "documents"
)

var AllEntityCategories = []EntityCategory{
	CategoryProducts,
	CategoryOrders,
	CategoryCustomers,
	CategoryCategories,
	CategoryPrices,
	CategoryQuantities,
	CategoryDates,
	CategoryDocuments,
}

// ValidEntityCategory reports whether c belongs to the closed set.
func ValidEntityCategory(c EntityCategory) bool {
	for _, v := range AllEntityCategories {
		if v == c {
			return true
		}
	}
	return false
}

// IntentEntry is one recorded intent in a conversation's bounded history.
type IntentEntry struct {
	Intent    string    `json:"intent"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// ContextSnapshot is a read-only copy of a conversation's mutable state.
type ContextSnapshot struct {
	Entities      map[EntityCategory][]string `json:"entities"`
	LastMentioned map[EntityCategory]string   `json:"last_mentioned"`
	LastUpdate    time.Time                   `json:"last_update"`
}

// MemoryMatch is a recalled memory with its similarity score.
type MemoryMatch struct {
	MemoryID       int64     `json:"memory_id"`
	Content        string    `json:"content"`
	Role           string    `json:"role"`
	MemoryType     string    `json:"memory_type"`
	ConversationID *int64    `json:"conversation_id"`
	Timestamp      time.Time `json:"timestamp"`
	Score          float64   `json:"score"`
}

// ChunkMatch is a retrieved document chunk annotated with its parent document.
type ChunkMatch struct {
	ChunkID        int64             `json:"chunk_id"`
	DocumentID     int64             `json:"document_id"`
	ChunkIndex     int               `json:"chunk_index"`
	Content        string            `json:"content"`
	DocumentTitle  string            `json:"document_title"`
	DocumentSource string            `json:"document_source"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Score          float64           `json:"score"`
}

// ContextBundle is what the resolver hands to the prompt-building layer.
// It is always valid: failed sub-queries leave their list empty.
type ContextBundle struct {
	ResolvedQuery string                      `json:"resolved_query"`
	Memories      []MemoryMatch               `json:"memories"`
	Documents     []ChunkMatch                `json:"documents"`
	Entities      map[EntityCategory][]string `json:"entities"`
	LastMentioned map[EntityCategory]string   `json:"last_mentioned"`
	LastIntent    *IntentEntry                `json:"last_intent,omitempty"`
}
