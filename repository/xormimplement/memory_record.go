package xormimplement

import (
	"fmt"

	"shopbot/entity"
	"shopbot/model"
	"shopbot/repository"

	"xorm.io/builder"
)

type MemoryRecordRepository struct {
	session *Session
}

func NewMemoryRecordRepository(session *Session) repository.MemoryRecordRepository {
	return &MemoryRecordRepository{session: session}
}

func buildMemoryRecordQueryConditions(condition *model.GetMemoryRecordsCondition) builder.Cond {
	var conds []builder.Cond

	if condition.ConversationID != nil {
		conds = append(conds, builder.Eq{entity.MemoryRecordsFieldConversationID: *condition.ConversationID})
	}
	if condition.Role != nil && *condition.Role != "" {
		conds = append(conds, builder.Eq{entity.MemoryRecordsFieldRole: *condition.Role})
	}
	if condition.MemoryType != nil && *condition.MemoryType != "" {
		conds = append(conds, builder.Eq{entity.MemoryRecordsFieldMemoryType: *condition.MemoryType})
	}
	if condition.From != nil {
		conds = append(conds, builder.Gte{entity.MemoryRecordsFieldTimestamp: *condition.From})
	}
	if condition.To != nil {
		conds = append(conds, builder.Lte{entity.MemoryRecordsFieldTimestamp: *condition.To})
	}

	if len(conds) == 0 {
		return nil
	}
	return builder.And(conds...)
}

func (r *MemoryRecordRepository) Insert(data *entity.MemoryRecord) error {
	if data == nil {
		return fmt.Errorf("memory_record cannot be nil")
	}

	_, err := r.session.Table(entity.TableNameMemoryRecords).Insert(data)
	if err != nil {
		return fmt.Errorf("failed to insert memory_record: %w", err)
	}

	return nil
}

func (r *MemoryRecordRepository) Get(id int64) (*entity.MemoryRecord, error) {
	if id <= 0 {
		return nil, fmt.Errorf("memory_record id must be greater than 0")
	}

	result := &entity.MemoryRecord{}
	ok, err := r.session.Table(entity.TableNameMemoryRecords).
		Where(builder.Eq{entity.MemoryRecordsFieldID: id}).
		Get(result)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory_record: %w", err)
	}

	if !ok {
		return nil, nil
	}

	return result, nil
}

func (r *MemoryRecordRepository) List(condition *model.GetMemoryRecordsCondition) ([]*entity.MemoryRecord, int64, error) {
	if condition == nil {
		return nil, 0, fmt.Errorf("get condition cannot be nil")
	}

	cond := buildMemoryRecordQueryConditions(condition)

	session := r.session.Table(entity.TableNameMemoryRecords)
	if cond != nil {
		session = session.Where(cond)
	}

	pagerOrder(session, condition, WithDefaultOrderField(entity.MemoryRecordsFieldTimestamp))

	var results []*entity.MemoryRecord
	total, err := session.FindAndCount(&results)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list memory_records: %w", err)
	}

	return results, total, nil
}

// ListAll loads every record, used to warm the in-process index at startup.
func (r *MemoryRecordRepository) ListAll() ([]*entity.MemoryRecord, error) {
	var results []*entity.MemoryRecord
	if err := r.session.Table(entity.TableNameMemoryRecords).Find(&results); err != nil {
		return nil, fmt.Errorf("failed to list memory_records: %w", err)
	}
	return results, nil
}

func (r *MemoryRecordRepository) BumpAccess(condition *model.UpdateMemoryAccessCondition) error {
	if condition == nil || len(condition.IDs) == 0 {
		return nil
	}

	sql := fmt.Sprintf("UPDATE %s SET access_count = access_count + 1, last_accessed = $1 WHERE id = ANY($2)",
		entity.TableNameMemoryRecords)

	if _, err := r.session.Exec(sql, condition.LastAccessed, int64ArrayLiteral(condition.IDs)); err != nil {
		return fmt.Errorf("failed to bump memory access: %w", err)
	}
	return nil
}

func int64ArrayLiteral(ids []int64) string {
	s := "{"
	for i, id := range ids {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%d", id)
	}
	return s + "}"
}

// VectorSearch ranks rows in the database with pgvector's cosine operator.
// 1 - (embedding <=> query) is the similarity score, larger is more similar.
func (r *MemoryRecordRepository) VectorSearch(condition *model.VectorSearchCondition) ([]*entity.MemoryRecord, error) {
	if condition == nil {
		return nil, fmt.Errorf("vector search condition cannot be nil")
	}
	if condition.QueryVector == "" {
		return nil, fmt.Errorf("query_vector is required")
	}
	if condition.Limit <= 0 {
		condition.Limit = 10
	}

	sql := fmt.Sprintf(`
		SELECT id, content, role, embedding, memory_type, priority, timestamp,
		       conversation_id, access_count, last_accessed, relevance_score,
		       1 - (embedding <=> '%s'::vector) as similarity
		FROM %s
		WHERE 1=1
	`, condition.QueryVector, entity.TableNameMemoryRecords)

	args := []interface{}{}
	argIndex := 1

	if condition.ConversationID != nil {
		sql += fmt.Sprintf(" AND conversation_id = $%d", argIndex)
		args = append(args, *condition.ConversationID)
		argIndex++
	}
	if len(condition.MemoryTypes) > 0 {
		sql += fmt.Sprintf(" AND memory_type = ANY($%d)", argIndex)
		args = append(args, stringArrayLiteral(condition.MemoryTypes))
		argIndex++
	}
	if condition.From != nil {
		sql += fmt.Sprintf(" AND timestamp >= $%d", argIndex)
		args = append(args, *condition.From)
		argIndex++
	}
	if condition.To != nil {
		sql += fmt.Sprintf(" AND timestamp <= $%d", argIndex)
		args = append(args, *condition.To)
		argIndex++
	}
	if condition.Threshold != nil {
		sql += fmt.Sprintf(" AND (1 - (embedding <=> '%s'::vector)) >= $%d", condition.QueryVector, argIndex)
		args = append(args, *condition.Threshold)
	}

	sql += fmt.Sprintf(" ORDER BY similarity DESC, timestamp DESC LIMIT %d", condition.Limit)

	var results []*entity.MemoryRecord
	err := r.session.SQL(sql, args...).Find(&results)
	if err != nil {
		return nil, fmt.Errorf("failed to vector search memory_records: %w", err)
	}

	return results, nil
}

func stringArrayLiteral(vals []string) string {
	s := "{"
	for i, v := range vals {
		if i > 0 {
			s += ","
		}
		s += v
	}
	return s + "}"
}
