package detection

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phraseguard/internal/dictionary/models"
	id "phraseguard/pkg/domain"
)

func ng(phrase string) Entry {
	return Entry{ItemID: id.DictionaryItemID(uuid.New()), Phrase: phrase, Category: models.CategoryNG}
}

func allow(phrase string) Entry {
	return Entry{ItemID: id.DictionaryItemID(uuid.New()), Phrase: phrase, Category: models.CategoryAllow}
}

func TestFindExactMatches(t *testing.T) {
	t.Run("japanese phrase at character offsets", func(t *testing.T) {
		got := FindExactMatches("このサプリは絶対に治る", []Entry{ng("治る")})
		require.Len(t, got, 1)
		assert.Equal(t, 9, got[0].Range.Start())
		assert.Equal(t, 11, got[0].Range.End())
		assert.Equal(t, "治る", got[0].Text)
		assert.Equal(t, ExactConfidence, got[0].Confidence)
		assert.Equal(t, MatchExact, got[0].MatchType)
	})

	t.Run("n occurrences yield n candidates", func(t *testing.T) {
		for n := 1; n <= 5; n++ {
			text := strings.Repeat("必ず痩せる。", n)
			got := FindExactMatches(text, []Entry{ng("痩せる")})
			require.Len(t, got, n)
			for i, c := range got {
				assert.Equal(t, i*6+2, c.Range.Start())
				assert.Equal(t, 1.0, c.Confidence)
			}
		}
	})

	t.Run("case insensitive and keeps original casing", func(t *testing.T) {
		got := FindExactMatches("This CURES everything", []Entry{ng("cures")})
		require.Len(t, got, 1)
		assert.Equal(t, "CURES", got[0].Text)
		assert.Equal(t, 5, got[0].Range.Start())
	})

	t.Run("overlapping repeats advance by one", func(t *testing.T) {
		got := FindExactMatches("aaaa", []Entry{ng("aa")})
		require.Len(t, got, 3)
		assert.Equal(t, 0, got[0].Range.Start())
		assert.Equal(t, 1, got[1].Range.Start())
		assert.Equal(t, 2, got[2].Range.Start())
	})

	t.Run("ALLOW phrases never match", func(t *testing.T) {
		assert.Empty(t, FindExactMatches("治る", []Entry{allow("治る")}))
	})

	t.Run("phrase longer than text", func(t *testing.T) {
		assert.Empty(t, FindExactMatches("治", []Entry{ng("治る")}))
	})
}

func TestFindPartialMatches(t *testing.T) {
	t.Run("short main word never fires", func(t *testing.T) {
		got := FindPartialMatches("it is so good", []Entry{ng("so good for you"), ng("is")}, nil)
		assert.Empty(t, got)
	})

	t.Run("main word at word boundary", func(t *testing.T) {
		text := "Guaranteed results. We guarantee it."
		got := FindPartialMatches(text, []Entry{ng("guarantee weight loss")}, nil)
		require.Len(t, got, 2)
		assert.Equal(t, 0, got[0].Range.Start())
		assert.Equal(t, 9, got[0].Range.End())
		assert.Equal(t, "Guarantee", got[0].Text)
		assert.Equal(t, 23, got[1].Range.Start())
		assert.Equal(t, PartialConfidence, got[1].Confidence)
		assert.Equal(t, MatchPartial, got[1].MatchType)
	})

	t.Run("no match inside a word", func(t *testing.T) {
		got := FindPartialMatches("unguaranteed", []Entry{ng("guarantee loss")}, nil)
		assert.Empty(t, got)
	})

	t.Run("rune offsets after multibyte prefix", func(t *testing.T) {
		got := FindPartialMatches("効果 detox plan", []Entry{ng("detox tea")}, nil)
		require.Len(t, got, 1)
		assert.Equal(t, 3, got[0].Range.Start())
		assert.Equal(t, 8, got[0].Range.End())
	})
}

func TestDetectExcludesPartialOverlappingExact(t *testing.T) {
	entries := []Entry{ng("miracle cure"), ng("miracle")}
	text := "a miracle cure and a miracle"

	exact := FindExactMatches(text, entries)
	partial := FindPartialMatches(text, entries, exact)
	for _, p := range partial {
		for _, e := range exact {
			assert.False(t, p.Range.Overlaps(e.Range), "partial %s overlaps exact %s", p.Range, e.Range)
		}
	}

	all := Detect(text, entries)
	assert.Len(t, all, len(exact)+len(partial))
	// "miracle cure" once and "miracle" twice, all exact; partial hits are covered.
	assert.Len(t, exact, 3)
	assert.Empty(t, partial)
}

func TestDetectScenario(t *testing.T) {
	got := Detect("このサプリは絶対に治る", []Entry{ng("治る")})
	require.Len(t, got, 1)
	assert.Equal(t, id.MustTextRange(9, 11), got[0].Range)
	assert.Equal(t, 1.0, got[0].Confidence)
}

func TestMainWord(t *testing.T) {
	w, ok := MainWord("  guarantee results ")
	assert.Equal(t, "guarantee", w)
	assert.True(t, ok)

	_, ok = MainWord("治る")
	assert.False(t, ok)

	_, ok = MainWord("")
	assert.False(t, ok)
}

func TestLocate(t *testing.T) {
	text := "この薬で病気が必ず治る。"

	t.Run("uses offsets that select the fragment", func(t *testing.T) {
		r, ok := Locate(text, Finding{OriginalText: "治る", Start: 9, End: 11})
		require.True(t, ok)
		assert.Equal(t, id.MustTextRange(9, 11), r)
	})

	t.Run("falls back to searching when offsets are wrong", func(t *testing.T) {
		r, ok := Locate(text, Finding{OriginalText: "治る", Start: 0, End: 2})
		require.True(t, ok)
		assert.Equal(t, id.MustTextRange(9, 11), r)
	})

	t.Run("unknown fragment", func(t *testing.T) {
		_, ok := Locate(text, Finding{OriginalText: "完治"})
		assert.False(t, ok)
	})
}
