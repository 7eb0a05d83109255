package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"shopbot/constant"
	"shopbot/model"
	"shopbot/pkg/clients/woocommerce"
	"shopbot/pkg/extractor"
	"shopbot/pkg/promptcache"
	"shopbot/service/conversation"
	"shopbot/service/memory"
	"shopbot/service/resolver"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

// Completer produces the assistant reply from assembled messages. Satisfied by
// the llm client and by test fakes.
type Completer interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

// Streamer streams the reply to the caller's transport instead of returning
// it. The llm client satisfies it for SSE responses.
type Streamer interface {
	StreamChatCompletions(ctx context.Context, messages []openai.ChatCompletionMessage) error
}

// Storefront is the slice of the WooCommerce client the chat turn consults.
type Storefront interface {
	GetOrder(ctx context.Context, id int64) (*woocommerce.Order, error)
	SearchProducts(ctx context.Context, search string) ([]woocommerce.Product, error)
}

// Options bound the retrieval the chat turn performs.
type Options struct {
	RecallLimit   int
	MinSimilarity float64
}

// Service runs one conversational turn end to end: extract, retrieve, ask the
// model, remember both sides.
type Service struct {
	conversations *conversation.Manager
	memories      *memory.Service
	resolver      *resolver.Service
	extractor     extractor.Extractor
	llm           Completer
	store         Storefront
	prompts       *promptcache.Loader
	opts          Options
}

func NewService(
	conversations *conversation.Manager,
	memories *memory.Service,
	resolverService *resolver.Service,
	messageExtractor extractor.Extractor,
	llm Completer,
	store Storefront,
	prompts *promptcache.Loader,
	opts Options,
) *Service {
	if opts.RecallLimit <= 0 {
		opts.RecallLimit = constant.DefaultRecallLimit
	}
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = constant.DefaultMinSimilarity
	}
	return &Service{
		conversations: conversations,
		memories:      memories,
		resolver:      resolverService,
		extractor:     messageExtractor,
		llm:           llm,
		store:         store,
		prompts:       prompts,
		opts:          opts,
	}
}

// Chat handles one inbound turn. The context bundle is built against the state
// BEFORE this turn is applied, so pronouns resolve to previous referents.
func (s *Service) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, *model.Error) {
	bundle, messages, mErr := s.prepareTurn(ctx, req)
	if mErr != nil {
		return nil, mErr
	}

	reply, err := s.llm.Complete(ctx, messages)
	if err != nil {
		return nil, model.NewError(model.ErrorLLM, err)
	}

	s.remember(ctx, req.ConversationID, req.Message, reply)

	return &model.ChatResponse{Reply: reply, Context: bundle}, nil
}

// ChatStream runs the same turn but streams the reply over the caller's
// transport. Only the user side is remembered: the reply text never passes
// back through the service.
func (s *Service) ChatStream(ctx context.Context, req *model.ChatRequest) *model.Error {
	streamer, ok := s.llm.(Streamer)
	if !ok {
		return model.NewError(model.ErrorLLM, errors.New("llm client does not support streaming"))
	}

	_, messages, mErr := s.prepareTurn(ctx, req)
	if mErr != nil {
		return mErr
	}

	s.remember(ctx, req.ConversationID, req.Message, "")

	if err := streamer.StreamChatCompletions(ctx, messages); err != nil {
		return model.NewError(model.ErrorLLM, err)
	}
	return nil
}

// prepareTurn does everything before the model call: extract, resolve,
// advance conversation state, consult the store, assemble the messages.
func (s *Service) prepareTurn(ctx context.Context, req *model.ChatRequest) (*model.ContextBundle, []openai.ChatCompletionMessage, *model.Error) {
	if req == nil || req.Message == "" {
		return nil, nil, model.NewError(model.ErrorParams, nil)
	}

	seq := req.Sequence
	if seq <= 0 {
		seq = time.Now().UnixNano()
	}

	extraction := extractor.Sanitize(s.extractor.Extract(req.Message))
	intent := ""
	if len(extraction.Intents) > 0 {
		intent = extraction.Intents[0]
	}

	bundle := s.resolver.BuildContext(ctx, req.Message, req.ConversationID, s.opts.RecallLimit, s.opts.MinSimilarity)

	convCtx := s.conversations.Get(req.ConversationID)
	if !convCtx.ApplyTurn(seq, extraction.Entities, intent, req.Message) {
		log.Warnf("conversation %d: turn seq=%d not applied, answering from existing state", req.ConversationID, seq)
	}

	storeContext := s.storeContext(ctx, intent, extraction, bundle)

	return bundle, s.buildMessages(bundle, storeContext), nil
}

// storeContext consults the store for the current intent. Entirely fail-open:
// an unreachable store only costs the extra context line.
func (s *Service) storeContext(ctx context.Context, intent string, extraction extractor.Extraction, bundle *model.ContextBundle) string {
	if s.store == nil {
		return ""
	}

	switch intent {
	case "order_status":
		orderRef := firstValue(extraction.Entities[model.CategoryOrders], bundle.LastMentioned[model.CategoryOrders])
		if orderRef == "" {
			return ""
		}
		orderID, err := strconv.ParseInt(orderRef, 10, 64)
		if err != nil {
			return ""
		}
		order, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			log.Warnf("store lookup failed for order %d: %v", orderID, err)
			return ""
		}
		return fmt.Sprintf("הזמנה %d: סטטוס %s, סכום %s", order.ID, order.Status, order.Total)

	case "product_query", "update_price":
		productRef := firstValue(extraction.Entities[model.CategoryProducts], bundle.LastMentioned[model.CategoryProducts])
		if productRef == "" {
			return ""
		}
		products, err := s.store.SearchProducts(ctx, productRef)
		if err != nil {
			log.Warnf("store lookup failed for product %q: %v", productRef, err)
			return ""
		}
		if len(products) == 0 {
			return ""
		}
		p := products[0]
		return fmt.Sprintf("מוצר %q: מחיר %s, סטטוס %s", p.Name, p.Price, p.Status)
	}

	return ""
}

func (s *Service) buildMessages(bundle *model.ContextBundle, storeContext string) []openai.ChatCompletionMessage {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: s.template("system", constant.AssistantSystemPrompt)},
	}

	if len(bundle.Memories) > 0 {
		lines := make([]string, 0, len(bundle.Memories))
		for _, m := range bundle.Memories {
			lines = append(lines, "- "+m.Content)
		}
		content := fmt.Sprintf(s.template("memory_context", constant.SemanticMemoryContextPromptTemplate), strings.Join(lines, "\n"))
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: content})
	}

	if len(bundle.Documents) > 0 {
		lines := make([]string, 0, len(bundle.Documents))
		for _, d := range bundle.Documents {
			lines = append(lines, "- "+d.Content)
		}
		content := fmt.Sprintf(s.template("document_context", constant.DocumentContextPromptTemplate), strings.Join(lines, "\n"))
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: content})
	}

	if storeContext != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: storeContext})
	}

	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: bundle.ResolvedQuery})
	return messages
}

func (s *Service) template(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	if value, ok := s.prompts.Get(context.Background(), name); ok {
		return value
	}
	return fallback
}

// remember persists both sides of the turn. Memory failures are logged, never
// surfaced: the user already has the reply.
func (s *Service) remember(ctx context.Context, conversationID int64, userMessage, reply string) {
	if _, err := s.memories.Record(ctx, userMessage, constant.RoleUser, &conversationID, constant.MemoryTypeConversation, 0); err != nil {
		log.Warnf("failed to record user turn for conversation %d: %v", conversationID, err)
	}
	if reply == "" {
		return
	}
	if _, err := s.memories.Record(ctx, reply, constant.RoleAssistant, &conversationID, constant.MemoryTypeConversation, 0); err != nil {
		log.Warnf("failed to record assistant turn for conversation %d: %v", conversationID, err)
	}
}

func firstValue(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}
