package document

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"shopbot/constant"
	"shopbot/entity"
	"shopbot/model"
	"shopbot/pkg/chunker"
	"shopbot/pkg/clients/embedding"
	"shopbot/pkg/file"
	"shopbot/pkg/tools"
	"shopbot/pkg/vectorindex"
	"shopbot/repository/factory"
	"shopbot/repository/interfaces"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Service owns documents and their chunks. Ingestion chunks the text, embeds
// every chunk and persists the document with all of its chunks in a single
// transaction, so a partially-chunked document is never visible to search.
// Deletion cascades to the chunks inside the same transaction.
type Service struct {
	repositoryFactory factory.Factory
	embedder          embedding.Provider
	splitter          *chunker.Chunker
	index             *vectorindex.Index

	mu        sync.RWMutex
	documents map[int64]*entity.Document
	chunks    map[int64]*entity.DocumentChunk
}

// NewService validates the chunking policy up front; a bad policy is a
// construction-time failure, not a per-request one.
func NewService(repositoryFactory factory.Factory, embedder embedding.Provider, chunkMaxSize, chunkOverlap int) (*Service, error) {
	splitter, err := chunker.New(chunkMaxSize, chunkOverlap)
	if err != nil {
		return nil, err
	}

	return &Service{
		repositoryFactory: repositoryFactory,
		embedder:          embedder,
		splitter:          splitter,
		index:             vectorindex.New(),
		documents:         make(map[int64]*entity.Document),
		chunks:            make(map[int64]*entity.DocumentChunk),
	}, nil
}

// AddDocumentFromText ingests raw text: chunk, embed each chunk (zero-vector
// fallback per chunk when the provider is down), persist document + chunks
// atomically, then expose the chunks to search.
func (s *Service) AddDocumentFromText(ctx context.Context, text, title, source string, metadata map[string]string) (int64, *model.Error) {
	if title == "" {
		return 0, model.NewError(model.ErrorParams, errors.New("title cannot be empty"))
	}

	pieces, err := s.splitter.Chunk(text)
	if err != nil {
		return 0, model.NewError(model.ErrorInvalidInput, err)
	}
	if len(pieces) == 0 {
		return 0, model.NewError(model.ErrorInvalidInput, errors.New("document text is empty"))
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Content
	}

	vectors, err := s.embedder.GetTextEmbeddingBatch(ctx, texts)
	if err != nil {
		log.Warnf("embedding failed for document %q, storing zero vectors: %v", title, err)
		vectors = make([][]float64, len(pieces))
		for i := range vectors {
			vectors[i] = embedding.ZeroVector()
		}
	}

	metaJSON := "{}"
	if len(metadata) > 0 {
		if b, marshalErr := json.Marshal(metadata); marshalErr == nil {
			metaJSON = string(b)
		}
	}

	doc := &entity.Document{
		Title:       title,
		Source:      source,
		ContentType: "text",
		CreatedAt:   time.Now(),
	}

	chunkRows := make([]*entity.DocumentChunk, len(pieces))

	session := s.repositoryFactory.NewSession(ctx)
	defer tools.ErrorWithPrintContext(session.Close, "close session")

	if err := session.Begin(); err != nil {
		return 0, model.NewError(model.ErrorDB, err)
	}

	docRepo, err := s.repositoryFactory.NewDocumentRepository(session)
	if err != nil {
		rollback(session)
		return 0, model.NewError(model.ErrorNewRepo, err)
	}
	chunkRepo, err := s.repositoryFactory.NewDocumentChunkRepository(session)
	if err != nil {
		rollback(session)
		return 0, model.NewError(model.ErrorNewRepo, err)
	}

	if err := docRepo.Insert(doc); err != nil {
		rollback(session)
		return 0, model.NewError(model.ErrorDB, err)
	}

	for i, p := range pieces {
		chunkRows[i] = &entity.DocumentChunk{
			DocumentID: doc.ID,
			ChunkIndex: p.Index,
			Content:    p.Content,
			Embedding:  embedding.VectorToString(vectors[i]),
			Meta:       metaJSON,
		}
	}

	if err := chunkRepo.Insert(chunkRows); err != nil {
		rollback(session)
		return 0, model.NewError(model.ErrorDB, err)
	}

	if err := session.Commit(); err != nil {
		rollback(session)
		return 0, model.NewError(model.ErrorDB, err)
	}

	// expose to search only after commit
	s.mu.Lock()
	s.documents[doc.ID] = doc
	s.mu.Unlock()
	for i, row := range chunkRows {
		s.indexChunk(row, vectors[i], metadata, doc.CreatedAt)
	}

	log.Infof("Added document id=%d title=%q chunks=%d", doc.ID, title, len(chunkRows))
	return doc.ID, nil
}

// AddDocumentFromFile reads a UTF-8 file and delegates to the text path.
func (s *Service) AddDocumentFromFile(ctx context.Context, path, title string, metadata map[string]string) (int64, *model.Error) {
	content, err := file.GetContent(path)
	if err != nil {
		return 0, model.NewError(model.ErrorInvalidInput, err)
	}
	if title == "" {
		title = path
	}
	return s.AddDocumentFromText(ctx, content, title, path, metadata)
}

func (s *Service) GetDocumentByID(ctx context.Context, id int64) (*entity.Document, *model.Error) {
	if id <= 0 {
		return nil, model.NewError(model.ErrorEmptyId, nil)
	}

	session := s.repositoryFactory.NewSession(ctx)
	defer tools.ErrorWithPrintContext(session.Close, "close session")

	docRepo, err := s.repositoryFactory.NewDocumentRepository(session)
	if err != nil {
		return nil, model.NewError(model.ErrorNewRepo, err)
	}

	doc, err := docRepo.Get(id)
	if err != nil {
		return nil, model.NewError(model.ErrorDB, err)
	}
	if doc == nil {
		return nil, model.NewError(model.ErrorDocumentNotFound, nil)
	}
	return doc, nil
}

func (s *Service) ListDocuments(ctx context.Context, condition *model.GetDocumentsCondition) ([]*entity.Document, int64, *model.Error) {
	if condition == nil {
		condition = &model.GetDocumentsCondition{}
	}

	session := s.repositoryFactory.NewSession(ctx)
	defer tools.ErrorWithPrintContext(session.Close, "close session")

	docRepo, err := s.repositoryFactory.NewDocumentRepository(session)
	if err != nil {
		return nil, 0, model.NewError(model.ErrorNewRepo, err)
	}

	docs, total, err := docRepo.List(condition)
	if err != nil {
		return nil, 0, model.NewError(model.ErrorDB, err)
	}
	return docs, total, nil
}

// DeleteDocument removes a document and all of its chunks in one unit of
// work. A failure anywhere rolls the whole delete back, so orphan chunks can
// never survive their parent.
func (s *Service) DeleteDocument(ctx context.Context, id int64) *model.Error {
	if id <= 0 {
		return model.NewError(model.ErrorEmptyId, nil)
	}

	session := s.repositoryFactory.NewSession(ctx)
	defer tools.ErrorWithPrintContext(session.Close, "close session")

	if err := session.Begin(); err != nil {
		return model.NewError(model.ErrorDB, err)
	}

	docRepo, err := s.repositoryFactory.NewDocumentRepository(session)
	if err != nil {
		rollback(session)
		return model.NewError(model.ErrorNewRepo, err)
	}
	chunkRepo, err := s.repositoryFactory.NewDocumentChunkRepository(session)
	if err != nil {
		rollback(session)
		return model.NewError(model.ErrorNewRepo, err)
	}

	if err := chunkRepo.DeleteByDocument(id); err != nil {
		rollback(session)
		return model.NewError(model.ErrorDB, err)
	}
	if err := docRepo.Delete(id); err != nil {
		rollback(session)
		return model.NewError(model.ErrorDB, err)
	}

	if err := session.Commit(); err != nil {
		rollback(session)
		return model.NewError(model.ErrorDB, err)
	}

	s.index.RemoveWhere(map[string]string{"document_id": strconv.FormatInt(id, 10)})
	s.mu.Lock()
	delete(s.documents, id)
	for chunkID, chunk := range s.chunks {
		if chunk.DocumentID == id {
			delete(s.chunks, chunkID)
		}
	}
	s.mu.Unlock()

	log.Infof("Deleted document id=%d with its chunks", id)
	return nil
}

// Search ranks chunks against the query and annotates each hit with its
// parent document's title and source. A provider failure surfaces as
// ErrorEmbeddingUnavailable instead of silently returning stale results.
func (s *Service) Search(ctx context.Context, query string, k int, minRelevance float64, filters map[string]string) ([]model.ChunkMatch, *model.Error) {
	if query == "" {
		return nil, model.NewError(model.ErrorParams, errors.New("query cannot be empty"))
	}
	if k <= 0 {
		k = constant.DefaultSearchLimit
	}
	if minRelevance <= 0 {
		minRelevance = constant.DefaultMinRelevance
	}

	queryVector, err := s.embedder.GetTextEmbedding(ctx, query)
	if err != nil {
		return nil, model.NewError(model.ErrorEmbeddingUnavailable, err)
	}

	results := s.index.Search(queryVector, k, minRelevance, filters)

	matches := make([]model.ChunkMatch, 0, len(results))
	s.mu.RLock()
	for _, r := range results {
		chunkID, convErr := strconv.ParseInt(r.ID, 10, 64)
		if convErr != nil {
			continue
		}
		chunk, ok := s.chunks[chunkID]
		if !ok {
			continue
		}
		match := model.ChunkMatch{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			ChunkIndex: chunk.ChunkIndex,
			Content:    chunk.Content,
			Score:      r.Score,
		}
		if doc, ok := s.documents[chunk.DocumentID]; ok {
			match.DocumentTitle = doc.Title
			match.DocumentSource = doc.Source
		}
		matches = append(matches, match)
	}
	s.mu.RUnlock()

	log.Infof("Document search: query_len=%d found=%d", len(query), len(matches))
	return matches, nil
}

// WarmIndex loads every persisted document and chunk into the in-process
// index. Called once at startup.
func (s *Service) WarmIndex(ctx context.Context) error {
	session := s.repositoryFactory.NewSession(ctx)
	defer tools.ErrorWithPrintContext(session.Close, "close session")

	docRepo, err := s.repositoryFactory.NewDocumentRepository(session)
	if err != nil {
		return err
	}
	chunkRepo, err := s.repositoryFactory.NewDocumentChunkRepository(session)
	if err != nil {
		return err
	}

	docs, _, err := docRepo.List(&model.GetDocumentsCondition{})
	if err != nil {
		return err
	}
	s.mu.Lock()
	for _, doc := range docs {
		s.documents[doc.ID] = doc
	}
	s.mu.Unlock()

	chunks, err := chunkRepo.ListAll()
	if err != nil {
		return err
	}

	for _, chunk := range chunks {
		vector, parseErr := embedding.VectorFromString(chunk.Embedding)
		if parseErr != nil {
			log.Warnf("skipping chunk %d with unparseable embedding: %v", chunk.ID, parseErr)
			continue
		}
		var metadata map[string]string
		_ = json.Unmarshal([]byte(chunk.Meta), &metadata)

		createdAt := time.Now()
		s.mu.RLock()
		if doc, ok := s.documents[chunk.DocumentID]; ok {
			createdAt = doc.CreatedAt
		}
		s.mu.RUnlock()

		s.indexChunk(chunk, vector, metadata, createdAt)
	}

	log.Infof("Warmed document index with %d chunks across %d documents", len(chunks), len(docs))
	return nil
}

func (s *Service) indexChunk(chunk *entity.DocumentChunk, vector []float64, metadata map[string]string, ts time.Time) {
	indexMeta := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		indexMeta[k] = v
	}
	indexMeta["document_id"] = strconv.FormatInt(chunk.DocumentID, 10)
	indexMeta["chunk_index"] = strconv.Itoa(chunk.ChunkIndex)

	s.index.Add(strconv.FormatInt(chunk.ID, 10), vector, indexMeta, ts)

	s.mu.Lock()
	s.chunks[chunk.ID] = chunk
	s.mu.Unlock()
}

func rollback(session interfaces.Session) {
	if err := session.Rollback(); err != nil {
		log.Warnf("rollback failed: %v", err)
	}
}
