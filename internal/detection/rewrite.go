package detection

import (
	"strings"
	"unicode/utf8"

	id "phraseguard/pkg/domain"
)

// RewriteRequest is what a rewriter receives: the text plus everything local
// matching found.
type RewriteRequest struct {
	Text       string
	Candidates []Candidate
	NGHints    []SimilarityMatch
	AllowHints []SimilarityMatch
}

// RewriteResult is the rewriter's contract: a compliant rewrite and the
// violations it identified. Offsets in Findings are advisory.
type RewriteResult struct {
	RewrittenText string
	Findings      []Finding
}

// Finding is one violation reported by a rewriter.
type Finding struct {
	OriginalText  string
	SuggestedText string
	Reasoning     string
	Start         int
	End           int
}

// Locate resolves a finding to a range in text. The reported offsets are used
// when they select OriginalText; otherwise the first occurrence of
// OriginalText is used.
func Locate(text string, f Finding) (id.TextRange, bool) {
	if r, err := id.NewTextRange(f.Start, f.End); err == nil {
		if got, err := r.Extract(text); err == nil && (f.OriginalText == "" || got == f.OriginalText) {
			return r, true
		}
	}
	if f.OriginalText == "" {
		return id.TextRange{}, false
	}
	at := strings.Index(text, f.OriginalText)
	if at < 0 {
		return id.TextRange{}, false
	}
	start := utf8.RuneCountInString(text[:at])
	r, err := id.NewTextRange(start, start+utf8.RuneCountInString(f.OriginalText))
	if err != nil {
		return id.TextRange{}, false
	}
	return r, true
}
