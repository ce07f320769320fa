package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	ollama "github.com/ollama/ollama/api"

	"phraseguard/internal/detection"
	pstrings "phraseguard/pkg/platform/strings"
)

const systemPrompt = `You review marketing copy for regulated claims.
Rewrite the user's text so it contains no prohibited expressions while keeping its meaning.
Report every prohibited expression you changed. Offsets are character offsets into the original text.
Answer with JSON only: {"rewritten_text": string, "violations": [{"original_text": string, "suggested_text": string, "reasoning": string, "start": int, "end": int}]}`

type rewriteResponse struct {
	RewrittenText string `json:"rewritten_text"`
	Violations    []struct {
		OriginalText  string `json:"original_text"`
		SuggestedText string `json:"suggested_text"`
		Reasoning     string `json:"reasoning"`
		Start         int    `json:"start"`
		End           int    `json:"end"`
	} `json:"violations"`
}

// Rewrite asks the rewrite model for a compliant version of req.Text.
func (c *Client) Rewrite(ctx context.Context, req detection.RewriteRequest) (detection.RewriteResult, error) {
	if c.rewriteModel == "" {
		return detection.RewriteResult{}, fmt.Errorf("rewrite model is not configured")
	}

	var content string
	err := c.guard(ctx, "rewrite", func() error {
		stream := false
		return c.api.Chat(ctx, &ollama.ChatRequest{
			Model: c.rewriteModel,
			Messages: []ollama.Message{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: buildPrompt(req)},
			},
			Stream: &stream,
			Format: json.RawMessage(`"json"`),
		}, func(resp ollama.ChatResponse) error {
			content += resp.Message.Content
			return nil
		})
	})
	if err != nil {
		return detection.RewriteResult{}, fmt.Errorf("failed to rewrite with ollama: %w", err)
	}

	var parsed rewriteResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return detection.RewriteResult{}, fmt.Errorf("malformed rewrite response: %w", err)
	}
	out := detection.RewriteResult{RewrittenText: parsed.RewrittenText}
	for _, v := range parsed.Violations {
		out.Findings = append(out.Findings, detection.Finding{
			OriginalText:  v.OriginalText,
			SuggestedText: v.SuggestedText,
			Reasoning:     v.Reasoning,
			Start:         v.Start,
			End:           v.End,
		})
	}
	return out, nil
}

func buildPrompt(req detection.RewriteRequest) string {
	var sb strings.Builder
	sb.WriteString("Text:\n")
	sb.WriteString(req.Text)
	sb.WriteString("\n")

	if len(req.Candidates) > 0 {
		sb.WriteString("\nProhibited expressions found in the text:\n")
		for _, cand := range req.Candidates {
			fmt.Fprintf(&sb, "- %q at %s (dictionary phrase %q, %s match)\n",
				cand.Text, cand.Range, cand.Phrase, cand.MatchType)
		}
	}
	if len(req.NGHints) > 0 {
		sb.WriteString("\nThe text resembles these prohibited phrases:\n")
		for _, h := range req.NGHints {
			fmt.Fprintf(&sb, "- %q (similarity %.2f)\n", h.Phrase, h.Similarity)
		}
	}
	allowed := make([]string, 0, len(req.AllowHints))
	for _, h := range req.AllowHints {
		allowed = append(allowed, h.Phrase)
	}
	if allowed = pstrings.DedupeFold(allowed); len(allowed) > 0 {
		sb.WriteString("\nThese phrases are explicitly allowed and must not be reported:\n")
		for _, phrase := range allowed {
			fmt.Fprintf(&sb, "- %q\n", phrase)
		}
	}
	return sb.String()
}
