package document

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

// manualText is exactly 250 runes: with max size 100 and overlap 20 the
// windows are [0:100], [80:180], [160:250]. The word בטא appears only inside
// the middle window.
func manualText() string {
	return strings.Repeat("אלפא ", 20) + strings.Repeat("בטא ", 15) + strings.Repeat("דלתא ", 18)
}

func newTestService(t *testing.T, embedder *fakeEmbedder) (*Service, factory.Factory) {
	repoFactory := inmemory.NewFactory()
	svc, err := NewService(repoFactory, embedder, 100, 20)
	require.NoError(t, err)
	return svc, repoFactory
}

func TestNewServiceRejectsBadChunkPolicy(t *testing.T) {
	repoFactory := inmemory.NewFactory()

	_, err := NewService(repoFactory, &fakeEmbedder{}, 0, 0)
	assert.Error(t, err)

	_, err = NewService(repoFactory, &fakeEmbedder{}, 100, 100)
	assert.Error(t, err)
}

func TestAddDocumentChunksWithOverlap(t *testing.T) {
	svc, repoFactory := newTestService(t, &fakeEmbedder{})
	ctx := context.Background()

	text := manualText()
	require.Equal(t, 250, len([]rune(text)))

	id, addErr := svc.AddDocumentFromText(ctx, text, "Manual", "unit", map[string]string{"lang": "he"})
	require.Nil(t, addErr)
	assert.Greater(t, id, int64(0))

	chunkRepo, err := repoFactory.NewDocumentChunkRepository(repoFactory.NewSession(ctx))
	require.NoError(t, err)
	chunks, err := chunkRepo.ListAll()
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	runes := []rune(text)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, string(runes[0:100]), chunks[0].Content)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
	assert.Equal(t, string(runes[80:180]), chunks[1].Content)
	assert.Equal(t, 2, chunks[2].ChunkIndex)
	assert.Equal(t, string(runes[160:250]), chunks[2].Content)

	// consecutive chunks share the 20-rune overlap
	c0 := []rune(chunks[0].Content)
	c1 := []rune(chunks[1].Content)
	assert.Equal(t, string(c0[len(c0)-20:]), string(c1[:20]))
}

func TestSearchReturnsClosestChunkAnnotated(t *testing.T) {
	svc, _ := newTestService(t, &fakeEmbedder{})
	ctx := context.Background()

	id, addErr := svc.AddDocumentFromText(ctx, manualText(), "Manual", "unit", nil)
	require.Nil(t, addErr)

	matches, err := svc.Search(ctx, "בטא בטא בטא", 5, 0.5, nil)
	require.Nil(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, 1, matches[0].ChunkIndex)
	assert.Equal(t, id, matches[0].DocumentID)
	assert.Equal(t, "Manual", matches[0].DocumentTitle)
	assert.Equal(t, "unit", matches[0].DocumentSource)
}

func TestSearchSurfacesEmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, _ := newTestService(t, embedder)
	ctx := context.Background()

	_, addErr := svc.AddDocumentFromText(ctx, manualText(), "Manual", "unit", nil)
	require.Nil(t, addErr)

	embedder.fail = true
	_, err := svc.Search(ctx, "בטא", 5, 0.5, nil)
	require.NotNil(t, err)
	assert.Equal(t, model.ErrorEmbeddingUnavailable, err.Code)
}

// Ingestion with a dead provider still persists the document; its zero-vector
// chunks are simply invisible to search.
func TestAddDocumentSurvivesEmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{fail: true}
	svc, repoFactory := newTestService(t, embedder)
	ctx := context.Background()

	id, addErr := svc.AddDocumentFromText(ctx, manualText(), "Manual", "unit", nil)
	require.Nil(t, addErr)
	assert.Greater(t, id, int64(0))

	chunkRepo, err := repoFactory.NewDocumentChunkRepository(repoFactory.NewSession(ctx))
	require.NoError(t, err)
	chunks, err := chunkRepo.ListAll()
	require.NoError(t, err)
	assert.Len(t, chunks, 3)

	embedder.fail = false
	matches, searchErr := svc.Search(ctx, "בטא בטא בטא", 5, 0.5, nil)
	require.Nil(t, searchErr)
	assert.Empty(t, matches)
}

func TestAddDocumentValidation(t *testing.T) {
	svc, _ := newTestService(t, &fakeEmbedder{})
	ctx := context.Background()

	_, err := svc.AddDocumentFromText(ctx, "תוכן", "", "unit", nil)
	require.NotNil(t, err)
	assert.Equal(t, model.ErrorParams, err.Code)

	_, err = svc.AddDocumentFromText(ctx, "", "ריק", "unit", nil)
	require.NotNil(t, err)
	assert.Equal(t, model.ErrorInvalidInput, err.Code)
}

func TestDeleteDocumentCascades(t *testing.T) {
	svc, repoFactory := newTestService(t, &fakeEmbedder{})
	ctx := context.Background()

	id, addErr := svc.AddDocumentFromText(ctx, manualText(), "Manual", "unit", nil)
	require.Nil(t, addErr)

	require.Nil(t, svc.DeleteDocument(ctx, id))

	matches, searchErr := svc.Search(ctx, "בטא בטא בטא", 5, 0.5, nil)
	require.Nil(t, searchErr)
	assert.Empty(t, matches)

	chunkRepo, err := repoFactory.NewDocumentChunkRepository(repoFactory.NewSession(ctx))
	require.NoError(t, err)
	chunks, err := chunkRepo.ListAll()
	require.NoError(t, err)
	assert.Empty(t, chunks)

	_, getErr := svc.GetDocumentByID(ctx, id)
	require.NotNil(t, getErr)
	assert.Equal(t, model.ErrorDocumentNotFound, getErr.Code)
}

func TestWarmIndexRestoresSearch(t *testing.T) {
	embedder := &fakeEmbedder{}
	repoFactory := inmemory.NewFactory()
	ctx := context.Background()

	first, err := NewService(repoFactory, embedder, 100, 20)
	require.NoError(t, err)
	_, addErr := first.AddDocumentFromText(ctx, manualText(), "Manual", "unit", nil)
	require.Nil(t, addErr)

	second, err := NewService(repoFactory, embedder, 100, 20)
	require.NoError(t, err)
	require.NoError(t, second.WarmIndex(ctx))

	matches, searchErr := second.Search(ctx, "בטא בטא בטא", 5, 0.5, nil)
	require.Nil(t, searchErr)
	require.NotEmpty(t, matches)
	assert.Equal(t, 1, matches[0].ChunkIndex)
	assert.Equal(t, "Manual", matches[0].DocumentTitle)
}
