package inmemory

import (
	"sort"
	"time"

	"shopbot/entity"
	"shopbot/model"
	"shopbot/pkg/clients/embedding"
	"shopbot/pkg/vectorindex"

	"github.com/pkg/errors"
)

type documentRow struct {
	entity.Document
}

type chunkRow struct {
	entity.DocumentChunk
}

type memoryRow struct {
	entity.MemoryRecord
}

type documentRepository struct {
	store *store
}

func (r *documentRepository) Insert(data *entity.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.nextDocumentID++
	data.ID = r.store.nextDocumentID
	r.store.documents[data.ID] = &documentRow{Document: *data}
	return nil
}

func (r *documentRepository) Delete(id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.documents, id)
	return nil
}

func (r *documentRepository) Get(id int64) (*entity.Document, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.documents[id]
	if !ok {
		return nil, nil
	}
	doc := row.Document
	return &doc, nil
}

func (r *documentRepository) List(condition *model.GetDocumentsCondition) ([]*entity.Document, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*entity.Document, 0, len(r.store.documents))
	for _, row := range r.store.documents {
		if condition != nil {
			if condition.Title != nil && row.Title != *condition.Title {
				continue
			}
			if condition.Source != nil && row.Source != *condition.Source {
				continue
			}
			if condition.ContentType != nil && row.ContentType != *condition.ContentType {
				continue
			}
		}
		doc := row.Document
		out = append(out, &doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

type documentChunkRepository struct {
	store *store
}

func (r *documentChunkRepository) Insert(data []*entity.DocumentChunk) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, chunk := range data {
		r.store.nextChunkID++
		chunk.ID = r.store.nextChunkID
		r.store.chunks[chunk.ID] = &chunkRow{DocumentChunk: *chunk}
	}
	return nil
}

func (r *documentChunkRepository) DeleteByDocument(documentID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, row := range r.store.chunks {
		if row.DocumentID == documentID {
			delete(r.store.chunks, id)
		}
	}
	return nil
}

func (r *documentChunkRepository) Get(id int64) (*entity.DocumentChunk, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.chunks[id]
	if !ok {
		return nil, nil
	}
	chunk := row.DocumentChunk
	return &chunk, nil
}

func (r *documentChunkRepository) List(condition *model.GetDocumentChunksCondition) ([]*entity.DocumentChunk, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*entity.DocumentChunk, 0)
	for _, row := range r.store.chunks {
		if condition != nil {
			if condition.DocumentID != nil && row.DocumentID != *condition.DocumentID {
				continue
			}
			if len(condition.DocumentIDs) > 0 && !containsID(condition.DocumentIDs, row.DocumentID) {
				continue
			}
		}
		chunk := row.DocumentChunk
		out = append(out, &chunk)
	}
	sortChunks(out)
	return out, nil
}

func (r *documentChunkRepository) ListAll() ([]*entity.DocumentChunk, error) {
	return r.List(nil)
}

type memoryRecordRepository struct {
	store *store
}

func (r *memoryRecordRepository) Insert(data *entity.MemoryRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.nextMemoryID++
	data.ID = r.store.nextMemoryID
	r.store.memories[data.ID] = &memoryRow{MemoryRecord: *data}
	return nil
}

func (r *memoryRecordRepository) Get(id int64) (*entity.MemoryRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.memories[id]
	if !ok {
		return nil, nil
	}
	record := row.MemoryRecord
	return &record, nil
}

func (r *memoryRecordRepository) List(condition *model.GetMemoryRecordsCondition) ([]*entity.MemoryRecord, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*entity.MemoryRecord, 0, len(r.store.memories))
	for _, row := range r.store.memories {
		if condition != nil && !matchesMemoryCondition(&row.MemoryRecord, condition) {
			continue
		}
		record := row.MemoryRecord
		out = append(out, &record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memoryRecordRepository) ListAll() ([]*entity.MemoryRecord, error) {
	records, _, err := r.List(nil)
	return records, err
}

func (r *memoryRecordRepository) BumpAccess(condition *model.UpdateMemoryAccessCondition) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, id := range condition.IDs {
		if row, ok := r.store.memories[id]; ok {
			row.AccessCount++
			row.LastAccessed = condition.LastAccessed
		}
	}
	return nil
}

// VectorSearch ranks by brute-force cosine over the stored vector literals,
// mirroring what the pgvector query does in Postgres.
func (r *memoryRecordRepository) VectorSearch(condition *model.VectorSearchCondition) ([]*entity.MemoryRecord, error) {
	query, err := embedding.VectorFromString(condition.QueryVector)
	if err != nil {
		return nil, errors.Wrap(err, "parse query vector")
	}

	type scored struct {
		record *entity.MemoryRecord
		score  float64
	}

	r.store.mu.RLock()
	candidates := make([]scored, 0, len(r.store.memories))
	for _, row := range r.store.memories {
		if !matchesVectorCondition(&row.MemoryRecord, condition) {
			continue
		}
		stored, parseErr := embedding.VectorFromString(row.Embedding)
		if parseErr != nil {
			continue
		}
		score := vectorindex.Cosine(query, stored)
		if condition.Threshold != nil && score < *condition.Threshold {
			continue
		}
		record := row.MemoryRecord
		candidates = append(candidates, scored{record: &record, score: score})
	}
	r.store.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if condition.Limit > 0 && len(candidates) > condition.Limit {
		candidates = candidates[:condition.Limit]
	}

	out := make([]*entity.MemoryRecord, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.record)
	}
	return out, nil
}

func matchesMemoryCondition(record *entity.MemoryRecord, condition *model.GetMemoryRecordsCondition) bool {
	if condition.ConversationID != nil {
		if record.ConversationID == nil || *record.ConversationID != *condition.ConversationID {
			return false
		}
	}
	if condition.Role != nil && record.Role != *condition.Role {
		return false
	}
	if condition.MemoryType != nil && record.MemoryType != *condition.MemoryType {
		return false
	}
	if !inTimeRange(record.Timestamp, condition.From, condition.To) {
		return false
	}
	return true
}

func matchesVectorCondition(record *entity.MemoryRecord, condition *model.VectorSearchCondition) bool {
	if condition.ConversationID != nil {
		if record.ConversationID == nil || *record.ConversationID != *condition.ConversationID {
			return false
		}
	}
	if len(condition.MemoryTypes) > 0 {
		found := false
		for _, t := range condition.MemoryTypes {
			if record.MemoryType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return inTimeRange(record.Timestamp, condition.From, condition.To)
}

func inTimeRange(ts time.Time, from, to *time.Time) bool {
	if from != nil && ts.Before(*from) {
		return false
	}
	if to != nil && ts.After(*to) {
		return false
	}
	return true
}

func sortChunks(chunks []*entity.DocumentChunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].DocumentID != chunks[j].DocumentID {
			return chunks[i].DocumentID < chunks[j].DocumentID
		}
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
