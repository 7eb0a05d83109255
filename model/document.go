package model

import "time"

// GetDocumentsCondition filters document listings (with pagination and ordering).
type GetDocumentsCondition struct {
	Title       *string    `json:"title"`
	Source      *string    `json:"source"`
	ContentType *string    `json:"content_type"`
	CreatedFrom *time.Time `json:"created_from"`
	CreatedTo   *time.Time `json:"created_to"`
	*Pager
	*Order
}

func (g *GetDocumentsCondition) GetPager() *Pager {
	return g.Pager
}

func (g *GetDocumentsCondition) GetOrder() *Order {
	return g.Order
}

// GetDocumentChunksCondition filters chunk listings.
type GetDocumentChunksCondition struct {
	DocumentID  *int64  `json:"document_id"`
	DocumentIDs []int64 `json:"document_ids"`
}

// AddDocumentRequest is the ingestion payload.
type AddDocumentRequest struct {
	Text     string            `json:"text"`
	Path     string            `json:"path"`
	Title    string            `json:"title" binding:"required"`
	Source   string            `json:"source"`
	Metadata map[string]string `json:"metadata"`
}

// SearchDocumentsRequest is the knowledge-base search payload.
type SearchDocumentsRequest struct {
	Query        string            `json:"query" binding:"required"`
	K            int               `json:"k"`
	MinRelevance *float64          `json:"min_relevance"`
	Filters      map[string]string `json:"filters"`
}
