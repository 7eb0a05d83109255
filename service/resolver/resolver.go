package resolver

import (
	"context"

	"shopbot/constant"
	"shopbot/model"
	"shopbot/service/conversation"
	"shopbot/service/document"
	"shopbot/service/memory"

	log "github.com/sirupsen/logrus"
)

// Service assembles the context bundle handed to the prompt-building layer:
// the pronoun-resolved query, ranked memories, ranked document chunks and the
// conversation's entity state. It is the fail-open boundary: lower failures
// are logged and the affected list stays empty, the caller always gets a
// valid bundle.
type Service struct {
	conversations *conversation.Manager
	memories      *memory.Service
	documents     *document.Service
}

func NewService(conversations *conversation.Manager, memories *memory.Service, documents *document.Service) *Service {
	return &Service{
		conversations: conversations,
		memories:      memories,
		documents:     documents,
	}
}

// BuildContext never fails. k <= 0 falls back to the default recall limit.
func (s *Service) BuildContext(ctx context.Context, query string, conversationID int64, k int, minSimilarity float64) *model.ContextBundle {
	if k <= 0 {
		k = constant.DefaultRecallLimit
	}

	convCtx := s.conversations.Get(conversationID)
	resolvedQuery := convCtx.ResolvePronouns(query)

	bundle := &model.ContextBundle{
		ResolvedQuery: resolvedQuery,
		Memories:      []model.MemoryMatch{},
		Documents:     []model.ChunkMatch{},
		LastIntent:    convCtx.LastIntent(),
	}

	snapshot := convCtx.Snapshot()
	bundle.Entities = snapshot.Entities
	bundle.LastMentioned = snapshot.LastMentioned

	memories, memErr := s.memories.Recall(ctx, resolvedQuery, &conversationID, k, minSimilarity, nil)
	if memErr != nil {
		log.Warnf("memory recall failed for conversation %d, continuing without memories: %v", conversationID, memErr)
	} else {
		bundle.Memories = memories
	}

	documents, docErr := s.documents.Search(ctx, resolvedQuery, k, minSimilarity, nil)
	if docErr != nil {
		log.Warnf("document search failed for conversation %d, continuing without documents: %v", conversationID, docErr)
	} else {
		bundle.Documents = documents
	}

	return bundle
}
