package entity

const (
	TableNameDocumentChunks = "document_chunks"

	DocumentChunksFieldID         = "id"
	DocumentChunksFieldDocumentID = "document_id"
	DocumentChunksFieldChunkIndex = "chunk_index"
	DocumentChunksFieldContent    = "content"
	DocumentChunksFieldEmbedding  = "embedding"
	DocumentChunksFieldMeta       = "meta"
)

// DocumentChunk is one bounded slice of a document. chunk_index is 0-based and
// unique within the owning document; concatenating chunks in index order
// reconstructs the source text modulo the chunking overlap.
type DocumentChunk struct {
	ID         int64  `xorm:"pk autoincr id" json:"id"`
	DocumentID int64  `xorm:"document_id" json:"document_id"`
	ChunkIndex int    `xorm:"chunk_index" json:"chunk_index"`
	Content    string `xorm:"content" json:"content"`
	Embedding  string `xorm:"embedding" json:"embedding"` // pgvector column, stored as its string literal
	Meta       string `xorm:"meta" json:"meta"`           // JSONB, stored as a JSON string
}

func (e *DocumentChunk) TableName() string {
	return TableNameDocumentChunks
}
