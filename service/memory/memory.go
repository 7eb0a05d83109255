package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"shopbot/constant"
	"shopbot/entity"
	"shopbot/model"
	"shopbot/pkg/clients/embedding"
	"shopbot/pkg/tools"
	"shopbot/pkg/vectorindex"
	"shopbot/repository"
	"shopbot/repository/factory"
	"shopbot/repository/interfaces"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Service owns memory records: one row per conversational turn, embedded for
// recall. Rows are persisted through the repository and ranked in-process by
// the vector index. Recall is always scoped by conversation when a
// conversation id is given, so one conversation can never leak into another's
// results.
type Service struct {
	repositoryFactory factory.Factory
	embedder          embedding.Provider
	index             *vectorindex.Index

	mu      sync.RWMutex
	records map[int64]*entity.MemoryRecord
}

func NewService(repositoryFactory factory.Factory, embedder embedding.Provider) *Service {
	return &Service{
		repositoryFactory: repositoryFactory,
		embedder:          embedder,
		index:             vectorindex.New(),
		records:           make(map[int64]*entity.MemoryRecord),
	}
}

// Record persists one turn. An embedding-provider failure never fails the
// write: the row gets a zero vector of the fixed dimension, which satisfies
// the schema but cannot match any real query, so the turn stays auditable yet
// invisible to recall.
func (s *Service) Record(ctx context.Context, content, role string, conversationID *int64, memoryType string, priority int) (int64, *model.Error) {
	if content == "" {
		return 0, model.NewError(model.ErrorParams, errors.New("content cannot be empty"))
	}
	if role != constant.RoleUser && role != constant.RoleAssistant {
		return 0, model.NewError(model.ErrorParams, errors.Errorf("unknown role %q", role))
	}
	if memoryType == "" {
		memoryType = constant.MemoryTypeConversation
	}

	vector, err := s.embedder.GetTextEmbedding(ctx, content)
	if err != nil {
		log.Warnf("embedding failed for memory record, storing zero vector: %v", err)
		vector = embedding.ZeroVector()
	}

	now := time.Now()
	record := &entity.MemoryRecord{
		Content:        content,
		Role:           role,
		Embedding:      embedding.VectorToString(vector),
		MemoryType:     memoryType,
		Priority:       priority,
		Timestamp:      now,
		ConversationID: conversationID,
		LastAccessed:   now,
		RelevanceScore: 1.0,
	}

	session := s.repositoryFactory.NewSession(ctx)
	defer tools.ErrorWithPrintContext(session.Close, "close session")

	if err := session.Begin(); err != nil {
		return 0, model.NewError(model.ErrorDB, err)
	}

	repo, err := s.memoryRepo(session)
	if err != nil {
		rollback(session)
		return 0, model.NewError(model.ErrorNewRepo, err)
	}

	if err := repo.Insert(record); err != nil {
		rollback(session)
		return 0, model.NewError(model.ErrorDB, err)
	}

	if err := session.Commit(); err != nil {
		rollback(session)
		return 0, model.NewError(model.ErrorDB, err)
	}

	// index only after the row is durable
	s.indexRecord(record, vector)

	log.Infof("Recorded memory id=%d role=%s type=%s conversation=%v", record.ID, role, memoryType, conversationID)
	return record.ID, nil
}

// Recall ranks stored memories against the query. The candidate set is
// restricted to the conversation (when given) and the memory types (when
// given) before ranking. A provider failure surfaces as ErrorEmbeddingUnavailable
// rather than returning stale or unscoped results.
func (s *Service) Recall(ctx context.Context, query string, conversationID *int64, k int, minSimilarity float64, memoryTypes []string) ([]model.MemoryMatch, *model.Error) {
	if query == "" {
		return nil, model.NewError(model.ErrorParams, errors.New("query cannot be empty"))
	}
	if k <= 0 {
		k = constant.DefaultRecallLimit
	}
	if minSimilarity <= 0 {
		minSimilarity = constant.DefaultMinSimilarity
	}

	queryVector, err := s.embedder.GetTextEmbedding(ctx, query)
	if err != nil {
		return nil, model.NewError(model.ErrorEmbeddingUnavailable, err)
	}

	// cold index (fresh process, WarmIndex not run yet): rank in the database
	if s.index.Len() == 0 {
		return s.recallFromStore(ctx, queryVector, conversationID, k, minSimilarity, memoryTypes)
	}

	filter := map[string]string{}
	if conversationID != nil {
		filter["conversation_id"] = strconv.FormatInt(*conversationID, 10)
	}

	// types restrict the candidate set before ranking, never after
	var typeRestriction map[string][]string
	if len(memoryTypes) > 0 {
		typeRestriction = map[string][]string{"memory_type": memoryTypes}
	}

	results := s.index.SearchIn(queryVector, k, minSimilarity, filter, typeRestriction)

	matches := make([]model.MemoryMatch, 0, len(results))
	accessed := make([]int64, 0, len(results))
	for _, r := range results {
		id, convErr := strconv.ParseInt(r.ID, 10, 64)
		if convErr != nil {
			continue
		}
		record := s.getRecord(id)
		if record == nil {
			continue
		}
		matches = append(matches, model.MemoryMatch{
			MemoryID:       record.ID,
			Content:        record.Content,
			Role:           record.Role,
			MemoryType:     record.MemoryType,
			ConversationID: record.ConversationID,
			Timestamp:      record.Timestamp,
			Score:          r.Score,
		})
		accessed = append(accessed, record.ID)
	}

	s.bumpAccess(ctx, accessed)

	log.Infof("Memory recall: conversation=%v query_len=%d found=%d", conversationID, len(query), len(matches))
	return matches, nil
}

// recallFromStore ranks candidates with the database's vector search instead
// of the in-process index. Rows found this way are hydrated into the index so
// later recalls stay in-process.
func (s *Service) recallFromStore(ctx context.Context, queryVector []float64, conversationID *int64, k int, minSimilarity float64, memoryTypes []string) ([]model.MemoryMatch, *model.Error) {
	session := s.repositoryFactory.NewSession(ctx)
	defer tools.ErrorWithPrintContext(session.Close, "close session")

	repo, err := s.memoryRepo(session)
	if err != nil {
		return nil, model.NewError(model.ErrorNewRepo, err)
	}

	records, err := repo.VectorSearch(&model.VectorSearchCondition{
		ConversationID: conversationID,
		MemoryTypes:    memoryTypes,
		QueryVector:    embedding.VectorToString(queryVector),
		Limit:          k,
		Threshold:      &minSimilarity,
	})
	if err != nil {
		return nil, model.NewError(model.ErrorDB, err)
	}

	matches := make([]model.MemoryMatch, 0, len(records))
	accessed := make([]int64, 0, len(records))
	for _, record := range records {
		vector, parseErr := embedding.VectorFromString(record.Embedding)
		if parseErr != nil {
			log.Warnf("skipping memory %d with unparseable embedding: %v", record.ID, parseErr)
			continue
		}
		s.indexRecord(record, vector)

		matches = append(matches, model.MemoryMatch{
			MemoryID:       record.ID,
			Content:        record.Content,
			Role:           record.Role,
			MemoryType:     record.MemoryType,
			ConversationID: record.ConversationID,
			Timestamp:      record.Timestamp,
			Score:          vectorindex.Cosine(queryVector, vector),
		})
		accessed = append(accessed, record.ID)
	}

	s.bumpAccess(ctx, accessed)

	log.Infof("Memory recall (store): conversation=%v found=%d", conversationID, len(matches))
	return matches, nil
}

// WarmIndex loads every persisted record into the in-process index. Called
// once at startup.
func (s *Service) WarmIndex(ctx context.Context) error {
	session := s.repositoryFactory.NewSession(ctx)
	defer tools.ErrorWithPrintContext(session.Close, "close session")

	repo, err := s.memoryRepo(session)
	if err != nil {
		return err
	}

	records, err := repo.ListAll()
	if err != nil {
		return err
	}

	for _, record := range records {
		vector, parseErr := embedding.VectorFromString(record.Embedding)
		if parseErr != nil {
			log.Warnf("skipping memory %d with unparseable embedding: %v", record.ID, parseErr)
			continue
		}
		s.indexRecord(record, vector)
	}

	log.Infof("Warmed memory index with %d records", len(records))
	return nil
}

func (s *Service) indexRecord(record *entity.MemoryRecord, vector []float64) {
	metadata := map[string]string{
		"memory_type": record.MemoryType,
		"role":        record.Role,
	}
	if record.ConversationID != nil {
		metadata["conversation_id"] = strconv.FormatInt(*record.ConversationID, 10)
	}

	s.index.Add(strconv.FormatInt(record.ID, 10), vector, metadata, record.Timestamp)

	s.mu.Lock()
	s.records[record.ID] = record
	s.mu.Unlock()
}

func (s *Service) getRecord(id int64) *entity.MemoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[id]
}

func (s *Service) bumpAccess(ctx context.Context, ids []int64) {
	if len(ids) == 0 {
		return
	}

	now := time.Now()

	s.mu.Lock()
	for _, id := range ids {
		if record, ok := s.records[id]; ok {
			record.AccessCount++
			record.LastAccessed = now
		}
	}
	s.mu.Unlock()

	session := s.repositoryFactory.NewSession(ctx)
	defer tools.ErrorWithPrintContext(session.Close, "close session")

	repo, err := s.memoryRepo(session)
	if err != nil {
		log.Warnf("failed to bump memory access: %v", err)
		return
	}
	if err := repo.BumpAccess(&model.UpdateMemoryAccessCondition{IDs: ids, LastAccessed: now}); err != nil {
		log.Warnf("failed to bump memory access: %v", err)
	}
}

func (s *Service) memoryRepo(session interfaces.Session) (repository.MemoryRecordRepository, error) {
	return s.repositoryFactory.NewMemoryRecordRepository(session)
}

func rollback(session interfaces.Session) {
	if err := session.Rollback(); err != nil {
		log.Warnf("rollback failed: %v", err)
	}
}
