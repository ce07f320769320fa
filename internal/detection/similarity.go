package detection

import (
	"sort"

	"phraseguard/internal/dictionary/models"
	id "phraseguard/pkg/domain"
)

// DefaultSimilarityThreshold is used when callers pass a non-positive threshold.
const DefaultSimilarityThreshold = 0.75

// SimilarityMatch is a dictionary entry whose vector is close to the input.
type SimilarityMatch struct {
	ItemID     id.DictionaryItemID
	Phrase     string
	Category   models.Category
	Similarity float64
}

// Suppressing reports whether the match is ALLOW evidence rather than a violation.
func (m SimilarityMatch) Suppressing() bool {
	return m.Category == models.CategoryAllow
}

// MatchBySimilarity scores every entry carrying a vector against input and
// keeps those at or above threshold, most similar first. Entries whose vector
// dimension differs from input are skipped.
func MatchBySimilarity(input id.EmbeddingVector, entries []Entry, threshold float64) []SimilarityMatch {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if input.IsZero() {
		return nil
	}
	var out []SimilarityMatch
	for _, e := range entries {
		if e.Vector.IsZero() {
			continue
		}
		sim, err := input.CosineSimilarity(e.Vector)
		if err != nil {
			continue
		}
		if sim < threshold {
			continue
		}
		out = append(out, SimilarityMatch{
			ItemID:     e.ItemID,
			Phrase:     e.Phrase,
			Category:   e.Category,
			Similarity: sim,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}

// Hints splits similarity matches into NG hints and the ALLOW matches that
// suppress them. An NG match is suppressed when some ALLOW match scores at
// least as high.
func Hints(matches []SimilarityMatch) (ng []SimilarityMatch, allow []SimilarityMatch) {
	best := -1.0
	for _, m := range matches {
		if m.Suppressing() {
			allow = append(allow, m)
			if m.Similarity > best {
				best = m.Similarity
			}
		}
	}
	for _, m := range matches {
		if !m.Suppressing() && m.Similarity > best {
			ng = append(ng, m)
		}
	}
	return ng, allow
}
