package chat

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"

	"shopbot/constant"
	"shopbot/model"
	"shopbot/pkg/clients/woocommerce"
	"shopbot/pkg/extractor"
	"shopbot/repository/inmemory"
	"shopbot/service/conversation"
	"shopbot/service/document"
	"shopbot/service/memory"
	"shopbot/service/resolver"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct{}

func (e *fakeEmbedder) Dimension() int { return constant.EmbeddingDimension }

func (e *fakeEmbedder) GetTextEmbedding(_ context.Context, text string) ([]float64, error) {
	v := make([]float64, constant.EmbeddingDimension)
	for _, word := range strings.Fields(text) {
		h := fnv.New32a()
		h.Write([]byte(word))
		v[int(h.Sum32())%constant.EmbeddingDimension]++
	}
	return v, nil
}

func (e *fakeEmbedder) GetTextEmbeddingBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := e.GetTextEmbedding(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type fakeCompleter struct {
	reply string
	err   error
	calls [][]openai.ChatCompletionMessage
}

func (c *fakeCompleter) Complete(_ context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	c.calls = append(c.calls, messages)
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func (c *fakeCompleter) lastUserMessage(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, c.calls)
	last := c.calls[len(c.calls)-1]
	require.NotEmpty(t, last)
	return last[len(last)-1].Content
}

type fakeStreamCompleter struct {
	fakeCompleter
	streamCalls [][]openai.ChatCompletionMessage
}

func (c *fakeStreamCompleter) StreamChatCompletions(_ context.Context, messages []openai.ChatCompletionMessage) error {
	c.streamCalls = append(c.streamCalls, messages)
	return c.err
}

type fakeStorefront struct {
	order        *woocommerce.Order
	orderCalls   []int64
	products     []woocommerce.Product
	productCalls []string
}

func (f *fakeStorefront) GetOrder(_ context.Context, id int64) (*woocommerce.Order, error) {
	f.orderCalls = append(f.orderCalls, id)
	if f.order == nil {
		return nil, errors.New("not found")
	}
	return f.order, nil
}

func (f *fakeStorefront) SearchProducts(_ context.Context, search string) ([]woocommerce.Product, error) {
	f.productCalls = append(f.productCalls, search)
	return f.products, nil
}

func newTestChat(t *testing.T, completer Completer, store Storefront) (*Service, *memory.Service) {
	repoFactory := inmemory.NewFactory()
	embedder := &fakeEmbedder{}
	conversations := conversation.NewManager()
	memories := memory.NewService(repoFactory, embedder)
	documents, err := document.NewService(repoFactory, embedder, 100, 20)
	require.NoError(t, err)
	resolverService := resolver.NewService(conversations, memories, documents)

	svc := NewService(conversations, memories, resolverService, extractor.NewRegexExtractor(),
		completer, store, nil, Options{RecallLimit: 5, MinSimilarity: 0.1})
	return svc, memories
}

func TestChatResolvesPronounAcrossTurns(t *testing.T) {
	completer := &fakeCompleter{reply: "בוצע"}
	svc, _ := newTestChat(t, completer, nil)
	ctx := context.Background()

	res, err := svc.Chat(ctx, &model.ChatRequest{ConversationID: 1, Message: "צור מוצר בשם חולצה כחולה", Sequence: 1})
	require.Nil(t, err)
	assert.Equal(t, "בוצע", res.Reply)

	res, err = svc.Chat(ctx, &model.ChatRequest{ConversationID: 1, Message: "מה המחיר שלו?", Sequence: 2})
	require.Nil(t, err)
	assert.Equal(t, "מה המחיר של חולצה כחולה?", res.Context.ResolvedQuery)
	assert.Contains(t, completer.lastUserMessage(t), "חולצה כחולה")
}

func TestChatRecordsBothTurns(t *testing.T) {
	completer := &fakeCompleter{reply: "המחיר הוא חמישים שקלים"}
	svc, memories := newTestChat(t, completer, nil)
	ctx := context.Background()
	conv := int64(2)

	_, err := svc.Chat(ctx, &model.ChatRequest{ConversationID: conv, Message: "כמה עולה מוצר בשם כובע?", Sequence: 1})
	require.Nil(t, err)

	matches, recallErr := memories.Recall(ctx, "המחיר הוא חמישים שקלים", &conv, 5, 0.1, nil)
	require.Nil(t, recallErr)
	require.NotEmpty(t, matches)
	assert.Equal(t, constant.RoleAssistant, matches[0].Role)
}

func TestChatConsultsStoreForOrderStatus(t *testing.T) {
	completer := &fakeCompleter{reply: "ההזמנה הושלמה"}
	store := &fakeStorefront{order: &woocommerce.Order{ID: 77, Status: "completed", Total: "100"}}
	svc, _ := newTestChat(t, completer, store)

	_, err := svc.Chat(context.Background(), &model.ChatRequest{ConversationID: 3, Message: "מה הסטטוס של הזמנה 77?", Sequence: 1})
	require.Nil(t, err)
	require.Equal(t, []int64{77}, store.orderCalls)

	var joined strings.Builder
	for _, msg := range completer.calls[0] {
		joined.WriteString(msg.Content)
		joined.WriteString("\n")
	}
	assert.Contains(t, joined.String(), "completed")
}

func TestChatSurfacesLLMFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("model down")}
	svc, _ := newTestChat(t, completer, nil)

	_, err := svc.Chat(context.Background(), &model.ChatRequest{ConversationID: 4, Message: "שאלה", Sequence: 1})
	require.NotNil(t, err)
	assert.Equal(t, model.ErrorLLM, err.Code)
}

func TestChatStaleSequenceStillAnswers(t *testing.T) {
	completer := &fakeCompleter{reply: "תשובה"}
	svc, _ := newTestChat(t, completer, nil)
	ctx := context.Background()

	_, err := svc.Chat(ctx, &model.ChatRequest{ConversationID: 5, Message: "צור מוצר בשם נעל", Sequence: 5})
	require.Nil(t, err)

	res, err := svc.Chat(ctx, &model.ChatRequest{ConversationID: 5, Message: "צור מוצר בשם גרב", Sequence: 3})
	require.Nil(t, err)
	assert.Equal(t, "תשובה", res.Reply)
}

func TestChatStreamDeliversMessagesAndRecordsUserTurn(t *testing.T) {
	completer := &fakeStreamCompleter{}
	svc, memories := newTestChat(t, completer, nil)
	ctx := context.Background()
	conv := int64(7)

	err := svc.ChatStream(ctx, &model.ChatRequest{ConversationID: conv, Message: "כמה עולה מוצר בשם מעיל?", Sequence: 1})
	require.Nil(t, err)

	require.Len(t, completer.streamCalls, 1)
	last := completer.streamCalls[0]
	require.NotEmpty(t, last)
	assert.Equal(t, "כמה עולה מוצר בשם מעיל?", last[len(last)-1].Content)

	// only the user side is remembered on the streaming path
	matches, recallErr := memories.Recall(ctx, "כמה עולה מוצר בשם מעיל?", &conv, 5, 0.1, nil)
	require.Nil(t, recallErr)
	require.Len(t, matches, 1)
	assert.Equal(t, constant.RoleUser, matches[0].Role)
}

func TestChatStreamRequiresStreamingClient(t *testing.T) {
	svc, _ := newTestChat(t, &fakeCompleter{reply: "x"}, nil)

	err := svc.ChatStream(context.Background(), &model.ChatRequest{ConversationID: 8, Message: "שאלה", Sequence: 1})
	require.NotNil(t, err)
	assert.Equal(t, model.ErrorLLM, err.Code)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	svc, _ := newTestChat(t, &fakeCompleter{reply: "x"}, nil)

	_, err := svc.Chat(context.Background(), &model.ChatRequest{ConversationID: 6, Message: ""})
	require.NotNil(t, err)
	assert.Equal(t, model.ErrorParams, err.Code)
}
