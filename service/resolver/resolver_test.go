package resolver

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"

	"shopbot/constant"
	"shopbot/model"
	"shopbot/repository/inmemory"
	"shopbot/service/conversation"
	"shopbot/service/document"
	"shopbot/service/memory"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	fail bool
}

func (e *fakeEmbedder) Dimension() int { return constant.EmbeddingDimension }

func (e *fakeEmbedder) GetTextEmbedding(_ context.Context, text string) ([]float64, error) {
	if e.fail {
		return nil, errors.New("provider down")
	}
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

func newTestResolver(t *testing.T, embedder *fakeEmbedder) (*Service, *conversation.Manager, *memory.Service, *document.Service) {
	repoFactory := inmemory.NewFactory()
	conversations := conversation.NewManager()
	memories := memory.NewService(repoFactory, embedder)
	documents, err := document.NewService(repoFactory, embedder, 100, 20)
	require.NoError(t, err)
	return NewService(conversations, memories, documents), conversations, memories, documents
}

func TestBuildContextResolvesPronounsAndRetrieves(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, conversations, memories, _ := newTestResolver(t, embedder)
	ctx := context.Background()
	conv := int64(9)

	applied := conversations.Get(conv).ApplyTurn(1, map[model.EntityCategory][]string{
		model.CategoryProducts: {"חולצה כחולה"},
	}, "create_product", "צור מוצר חדש בשם חולצה כחולה")
	require.True(t, applied)

	_, recErr := memories.Record(ctx, "חולצה כחולה עולה חמישים שקלים", constant.RoleAssistant, &conv, constant.MemoryTypeConversation, 0)
	require.Nil(t, recErr)

	bundle := svc.BuildContext(ctx, "כמה עולה אותו", conv, 5, 0.1)
	require.NotNil(t, bundle)
	assert.Equal(t, "כמה עולה חולצה כחולה", bundle.ResolvedQuery)
	require.NotNil(t, bundle.LastIntent)
	assert.Equal(t, "create_product", bundle.LastIntent.Intent)
	assert.Contains(t, bundle.Entities[model.CategoryProducts], "חולצה כחולה")
	assert.Equal(t, "חולצה כחולה", bundle.LastMentioned[model.CategoryProducts])
	require.NotEmpty(t, bundle.Memories)
	assert.Equal(t, "חולצה כחולה עולה חמישים שקלים", bundle.Memories[0].Content)
}

func TestBuildContextIncludesDocumentMatches(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, _, _, documents := newTestResolver(t, embedder)
	ctx := context.Background()

	_, addErr := documents.AddDocumentFromText(ctx, "מדיניות החזרות בתוך שלושים יום מרגע הקנייה", "מדיניות", "kb", nil)
	require.Nil(t, addErr)

	bundle := svc.BuildContext(ctx, "מה מדיניות החזרות", 42, 5, 0.1)
	require.NotNil(t, bundle)
	require.NotEmpty(t, bundle.Documents)
	assert.Equal(t, "מדיניות", bundle.Documents[0].DocumentTitle)
}

// The resolver is the fail-open boundary: a dead embedding provider degrades
// both retrieval lists to empty, never to an error or panic.
func TestBuildContextFailOpenOnEmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{fail: true}
	svc, conversations, _, _ := newTestResolver(t, embedder)
	conv := int64(11)

	conversations.Get(conv).ApplyTurn(1, map[model.EntityCategory][]string{
		model.CategoryOrders: {"77"},
	}, "order_status", "מה הסטטוס של הזמנה 77")

	bundle := svc.BuildContext(context.Background(), "מתי היא תגיע", conv, 5, 0.1)
	require.NotNil(t, bundle)
	assert.Equal(t, "מתי 77 תגיע", bundle.ResolvedQuery)
	assert.Empty(t, bundle.Memories)
	assert.Empty(t, bundle.Documents)
	assert.NotNil(t, bundle.Memories)
	assert.NotNil(t, bundle.Documents)
}

func TestBuildContextDefaultsRecallLimit(t *testing.T) {
	svc, _, _, _ := newTestResolver(t, &fakeEmbedder{})

	bundle := svc.BuildContext(context.Background(), "שאלה בלי הקשר", 12, 0, 0.1)
	require.NotNil(t, bundle)
	assert.Equal(t, "שאלה בלי הקשר", bundle.ResolvedQuery)
	assert.Empty(t, bundle.Memories)
	assert.Empty(t, bundle.Documents)
	assert.Nil(t, bundle.LastIntent)
}
