// Package detection finds regulated phrases in text. Everything here is pure:
// no I/O, no clocks, no shared state.
//
// Offsets are rune (character) offsets so ranges line up with what users see,
// including for Japanese text.
package detection

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"phraseguard/internal/dictionary/models"
	id "phraseguard/pkg/domain"
)

type MatchType string

const (
	MatchExact      MatchType = "exact"
	MatchPartial    MatchType = "partial"
	MatchSimilarity MatchType = "similarity"
)

const (
	ExactConfidence   = 1.0
	PartialConfidence = 0.8

	// MinMainWordRunes is the shortest first token partial matching will use.
	MinMainWordRunes = 3
)

// Entry is the slice of a dictionary item detection needs.
type Entry struct {
	ItemID   id.DictionaryItemID
	Phrase   string
	Category models.Category
	Vector   id.EmbeddingVector
}

// EntriesFromItems projects dictionary items into entries.
func EntriesFromItems(items []*models.Item) []Entry {
	out := make([]Entry, 0, len(items))
	for _, it := range items {
		out = append(out, Entry{
			ItemID:   it.ID(),
			Phrase:   it.Phrase(),
			Category: it.Category(),
			Vector:   it.Vector(),
		})
	}
	return out
}

// Candidate is a located potential violation.
type Candidate struct {
	ItemID     id.DictionaryItemID
	Phrase     string
	Text       string
	Range      id.TextRange
	MatchType  MatchType
	Confidence float64
}

func lowerRunes(s string) []rune {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return rs
}

func hasPrefixAt(text, phrase []rune, at int) bool {
	for j := range phrase {
		if text[at+j] != phrase[j] {
			return false
		}
	}
	return true
}

// FindExactMatches scans text for every case-insensitive occurrence of each
// NG phrase. The cursor advances one character after a hit, so overlapping
// repeats are reported at each offset.
func FindExactMatches(text string, entries []Entry) []Candidate {
	original := []rune(text)
	lowered := lowerRunes(text)

	var out []Candidate
	for _, e := range entries {
		if e.Category != models.CategoryNG {
			continue
		}
		phrase := lowerRunes(e.Phrase)
		if len(phrase) == 0 {
			continue
		}
		for i := 0; i+len(phrase) <= len(lowered); i++ {
			if !hasPrefixAt(lowered, phrase, i) {
				continue
			}
			out = append(out, Candidate{
				ItemID:     e.ItemID,
				Phrase:     e.Phrase,
				Text:       string(original[i : i+len(phrase)]),
				Range:      id.MustTextRange(i, i+len(phrase)),
				MatchType:  MatchExact,
				Confidence: ExactConfidence,
			})
		}
	}
	return out
}

// MainWord returns the first whitespace-delimited token of phrase and whether
// it is long enough to match on.
func MainWord(phrase string) (string, bool) {
	fields := strings.Fields(phrase)
	if len(fields) == 0 {
		return "", false
	}
	w := fields[0]
	return w, utf8.RuneCountInString(w) >= MinMainWordRunes
}

// FindPartialMatches reports occurrences of each NG phrase's main word that
// start on a word boundary. Hits overlapping any range in exact are dropped.
func FindPartialMatches(text string, entries []Entry, exact []Candidate) []Candidate {
	var out []Candidate
	for _, e := range entries {
		if e.Category != models.CategoryNG {
			continue
		}
		word, ok := MainWord(e.Phrase)
		if !ok {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word))
		if err != nil {
			continue
		}
		for _, loc := range re.FindAllStringIndex(text, -1) {
			start := utf8.RuneCountInString(text[:loc[0]])
			end := start + utf8.RuneCountInString(text[loc[0]:loc[1]])
			r, err := id.NewTextRange(start, end)
			if err != nil {
				continue
			}
			if overlapsAny(r, exact) {
				continue
			}
			out = append(out, Candidate{
				ItemID:     e.ItemID,
				Phrase:     e.Phrase,
				Text:       text[loc[0]:loc[1]],
				Range:      r,
				MatchType:  MatchPartial,
				Confidence: PartialConfidence,
			})
		}
	}
	return out
}

func overlapsAny(r id.TextRange, cs []Candidate) bool {
	for _, c := range cs {
		if r.Overlaps(c.Range) {
			return true
		}
	}
	return false
}

// Detect runs exact matching, then partial matching filtered against the
// exact hits.
func Detect(text string, entries []Entry) []Candidate {
	exact := FindExactMatches(text, entries)
	partial := FindPartialMatches(text, entries, exact)
	return append(exact, partial...)
}
