package memory

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"

	"shopbot/constant"
	"shopbot/model"
	"shopbot/repository/factory"
	"shopbot/repository/inmemory"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps each word onto a hashed bucket, so texts sharing words get
// similar vectors. Deterministic, no network.
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

func newTestService(embedder *fakeEmbedder) (*Service, factory.Factory) {
	repoFactory := inmemory.NewFactory()
	return NewService(repoFactory, embedder), repoFactory
}

func TestRecallScopedToConversation(t *testing.T) {
	svc, _ := newTestService(&fakeEmbedder{})
	ctx := context.Background()
	convA, convB := int64(1), int64(2)

	_, err := svc.Record(ctx, "הלקוח מעדיף משלוח מהיר", constant.RoleUser, &convA, constant.MemoryTypeConversation, 0)
	require.Nil(t, err)
	_, err = svc.Record(ctx, "הלקוח מעדיף משלוח מהיר", constant.RoleUser, &convB, constant.MemoryTypeConversation, 0)
	require.Nil(t, err)

	matches, err := svc.Recall(ctx, "משלוח מהיר", &convA, 5, 0.1, nil)
	require.Nil(t, err)
	require.Len(t, matches, 1)
	require.NotNil(t, matches[0].ConversationID)
	assert.Equal(t, convA, *matches[0].ConversationID)
	assert.Equal(t, "הלקוח מעדיף משלוח מהיר", matches[0].Content)
}

func TestRecallFiltersByMemoryType(t *testing.T) {
	svc, _ := newTestService(&fakeEmbedder{})
	ctx := context.Background()
	conv := int64(3)

	_, err := svc.Record(ctx, "הלקוח גר בתל אביב", constant.RoleUser, &conv, constant.MemoryTypeFact, 0)
	require.Nil(t, err)
	_, err = svc.Record(ctx, "הלקוח גר בתל אביב כבר שנה", constant.RoleUser, &conv, constant.MemoryTypeConversation, 0)
	require.Nil(t, err)

	matches, err := svc.Recall(ctx, "גר בתל אביב", &conv, 5, 0.1, []string{constant.MemoryTypeFact})
	require.Nil(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, constant.MemoryTypeFact, matches[0].MemoryType)
}

// A requested type must be found even when many rows of other types score the
// same or higher: the type restriction narrows candidates before ranking, so
// no amount of conversation noise can push a fact out of the top k.
func TestRecallTypeRestrictionBeatsNoise(t *testing.T) {
	svc, _ := newTestService(&fakeEmbedder{})
	ctx := context.Background()
	conv := int64(8)

	_, err := svc.Record(ctx, "הלקוח אוהב קפה שחור", constant.RoleUser, &conv, constant.MemoryTypeFact, 0)
	require.Nil(t, err)
	for i := 0; i < 21; i++ {
		_, err = svc.Record(ctx, "הלקוח אוהב קפה שחור", constant.RoleUser, &conv, constant.MemoryTypeConversation, 0)
		require.Nil(t, err)
	}

	matches, err := svc.Recall(ctx, "קפה שחור", &conv, 5, 0.1, []string{constant.MemoryTypeFact})
	require.Nil(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, constant.MemoryTypeFact, matches[0].MemoryType)
}

func TestRecallOrdersBySimilarity(t *testing.T) {
	svc, _ := newTestService(&fakeEmbedder{})
	ctx := context.Background()
	conv := int64(4)

	_, err := svc.Record(ctx, "פיצה מרגריטה טעימה", constant.RoleUser, &conv, constant.MemoryTypeConversation, 0)
	require.Nil(t, err)
	_, err = svc.Record(ctx, "פיצה קרה", constant.RoleUser, &conv, constant.MemoryTypeConversation, 0)
	require.Nil(t, err)

	matches, err := svc.Recall(ctx, "פיצה מרגריטה", &conv, 5, 0.1, nil)
	require.Nil(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "פיצה מרגריטה טעימה", matches[0].Content)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

// A dead provider must not lose the turn: the row is written with a zero
// vector, which later matches nothing.
func TestRecordSurvivesEmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{fail: true}
	svc, _ := newTestService(embedder)
	ctx := context.Background()
	conv := int64(5)

	id, err := svc.Record(ctx, "הזמנה 55 נשלחה", constant.RoleAssistant, &conv, constant.MemoryTypeConversation, 0)
	require.Nil(t, err)
	assert.Greater(t, id, int64(0))

	embedder.fail = false
	matches, err := svc.Recall(ctx, "הזמנה 55 נשלחה", &conv, 5, 0.1, nil)
	require.Nil(t, err)
	assert.Empty(t, matches)
}

func TestRecallSurfacesEmbeddingFailure(t *testing.T) {
	svc, _ := newTestService(&fakeEmbedder{fail: true})

	_, err := svc.Recall(context.Background(), "שאלה כלשהי", nil, 5, 0.1, nil)
	require.NotNil(t, err)
	assert.Equal(t, model.ErrorEmbeddingUnavailable, err.Code)
}

func TestRecordValidation(t *testing.T) {
	svc, _ := newTestService(&fakeEmbedder{})
	ctx := context.Background()

	_, err := svc.Record(ctx, "", constant.RoleUser, nil, constant.MemoryTypeConversation, 0)
	require.NotNil(t, err)
	assert.Equal(t, model.ErrorParams, err.Code)

	_, err = svc.Record(ctx, "תוכן", "system", nil, constant.MemoryTypeConversation, 0)
	require.NotNil(t, err)
	assert.Equal(t, model.ErrorParams, err.Code)

	_, err = svc.Recall(ctx, "", nil, 5, 0.1, nil)
	require.NotNil(t, err)
	assert.Equal(t, model.ErrorParams, err.Code)
}

func TestWarmIndexRestoresRecall(t *testing.T) {
	embedder := &fakeEmbedder{}
	repoFactory := inmemory.NewFactory()
	ctx := context.Background()
	conv := int64(6)

	first := NewService(repoFactory, embedder)
	_, err := first.Record(ctx, "המלאי של חולצות אזל", constant.RoleAssistant, &conv, constant.MemoryTypeConversation, 0)
	require.Nil(t, err)

	second := NewService(repoFactory, embedder)
	require.NoError(t, second.WarmIndex(ctx))

	matches, err := second.Recall(ctx, "המלאי של חולצות", &conv, 5, 0.1, nil)
	require.Nil(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "המלאי של חולצות אזל", matches[0].Content)
}

// A fresh process that never warmed its index still answers: recall falls
// back to the store's vector search and hydrates the index as it goes.
func TestRecallColdIndexFallsBackToStore(t *testing.T) {
	embedder := &fakeEmbedder{}
	repoFactory := inmemory.NewFactory()
	ctx := context.Background()
	conv := int64(9)

	first := NewService(repoFactory, embedder)
	_, err := first.Record(ctx, "המשלוח יוצא ביום ראשון", constant.RoleAssistant, &conv, constant.MemoryTypeConversation, 0)
	require.Nil(t, err)

	second := NewService(repoFactory, embedder)

	matches, err := second.Recall(ctx, "המשלוח יוצא ביום ראשון", &conv, 5, 0.1, nil)
	require.Nil(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "המשלוח יוצא ביום ראשון", matches[0].Content)

	// the fallback hydrated the index, so the next recall ranks in-process
	assert.Equal(t, 1, second.index.Len())
}

func TestRecallBumpsAccessCount(t *testing.T) {
	repoFactory := inmemory.NewFactory()
	svc := NewService(repoFactory, &fakeEmbedder{})
	ctx := context.Background()
	conv := int64(7)

	id, err := svc.Record(ctx, "הנחה של עשרה אחוזים", constant.RoleUser, &conv, constant.MemoryTypeConversation, 0)
	require.Nil(t, err)

	_, err = svc.Recall(ctx, "הנחה של עשרה אחוזים", &conv, 5, 0.1, nil)
	require.Nil(t, err)

	repo, repoErr := repoFactory.NewMemoryRecordRepository(repoFactory.NewSession(ctx))
	require.NoError(t, repoErr)
	record, getErr := repo.Get(id)
	require.NoError(t, getErr)
	require.NotNil(t, record)
	assert.Equal(t, int64(1), record.AccessCount)
}
