package detection

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phraseguard/internal/dictionary/models"
	id "phraseguard/pkg/domain"
)

// unitVector builds a 512-dim vector pointing mostly along axis, with weight
// of the remainder on axis+1.
func unitVector(t *testing.T, axis int, spill float32) id.EmbeddingVector {
	t.Helper()
	v := make([]float32, 512)
	v[axis] = 1
	v[axis+1] = spill
	vec, err := id.NewEmbeddingVector(v)
	require.NoError(t, err)
	return vec
}

func entryWith(phrase string, cat models.Category, vec id.EmbeddingVector) Entry {
	return Entry{ItemID: id.DictionaryItemID(uuid.New()), Phrase: phrase, Category: cat, Vector: vec}
}

func TestMatchBySimilarity(t *testing.T) {
	input := unitVector(t, 0, 0)

	near := entryWith("close", models.CategoryNG, unitVector(t, 0, 0.2))
	nearer := entryWith("closer", models.CategoryAllow, unitVector(t, 0, 0.05))
	far := entryWith("far", models.CategoryNG, unitVector(t, 10, 0))
	noVector := entryWith("none", models.CategoryNG, id.EmbeddingVector{})
	otherDim, err := id.NewEmbeddingVector(make([]float32, 768))
	require.NoError(t, err)
	mismatched := entryWith("mismatched", models.CategoryNG, otherDim)

	got := MatchBySimilarity(input, []Entry{far, near, noVector, nearer, mismatched}, 0)
	require.Len(t, got, 2)
	assert.Equal(t, "closer", got[0].Phrase)
	assert.True(t, got[0].Suppressing())
	assert.Equal(t, "close", got[1].Phrase)
	assert.False(t, got[1].Suppressing())
	assert.GreaterOrEqual(t, got[0].Similarity, got[1].Similarity)
	assert.GreaterOrEqual(t, got[1].Similarity, DefaultSimilarityThreshold)
}

func TestMatchBySimilarityThreshold(t *testing.T) {
	input := unitVector(t, 0, 0)
	e := entryWith("close", models.CategoryNG, unitVector(t, 0, 0.2))

	assert.Len(t, MatchBySimilarity(input, []Entry{e}, 0.99), 0)
	assert.Len(t, MatchBySimilarity(input, []Entry{e}, 0.9), 1)
	assert.Empty(t, MatchBySimilarity(id.EmbeddingVector{}, []Entry{e}, 0.5))
}

func TestHints(t *testing.T) {
	ngHigh := SimilarityMatch{Phrase: "ng-high", Category: models.CategoryNG, Similarity: 0.95}
	allowMid := SimilarityMatch{Phrase: "allow", Category: models.CategoryAllow, Similarity: 0.9}
	ngLow := SimilarityMatch{Phrase: "ng-low", Category: models.CategoryNG, Similarity: 0.8}

	ngs, allows := Hints([]SimilarityMatch{ngHigh, allowMid, ngLow})
	require.Len(t, ngs, 1)
	assert.Equal(t, "ng-high", ngs[0].Phrase)
	require.Len(t, allows, 1)

	ngs, _ = Hints([]SimilarityMatch{ngLow})
	assert.Len(t, ngs, 1)
}
