package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"phraseguard/internal/check/metrics"
	"phraseguard/internal/check/models"
	"phraseguard/internal/detection"
	dictmodels "phraseguard/internal/dictionary/models"
	"phraseguard/internal/events"
	"phraseguard/internal/queue"
	id "phraseguard/pkg/domain"
	dErrors "phraseguard/pkg/domain-errors"
	"phraseguard/pkg/platform/sentinel"
)

// Dictionary lists an organization's phrases.
type Dictionary interface {
	ListByOrganization(ctx context.Context, orgID id.OrganizationID) ([]*dictmodels.Item, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Rewriter produces a compliant rewrite and reports the violations it saw.
type Rewriter interface {
	Rewrite(ctx context.Context, req detection.RewriteRequest) (detection.RewriteResult, error)
}

const rewriteKey = "rewrite"

// Processor runs detection for a dispatched check. Embedder and rewriter are
// optional; without them only local matching runs.
type Processor struct {
	store      Store
	dictionary Dictionary
	embedder   Embedder
	rewriter   Rewriter
	threshold  float64
	publisher  events.Publisher
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type ProcessorOption func(*Processor)

func WithEmbedder(e Embedder) ProcessorOption {
	return func(p *Processor) {
		p.embedder = e
	}
}

func WithRewriter(r Rewriter) ProcessorOption {
	return func(p *Processor) {
		p.rewriter = r
	}
}

func WithSimilarityThreshold(t float64) ProcessorOption {
	return func(p *Processor) {
		p.threshold = t
	}
}

func WithProcessorPublisher(pub events.Publisher) ProcessorOption {
	return func(p *Processor) {
		p.publisher = pub
	}
}

func WithProcessorClock(c clockwork.Clock) ProcessorOption {
	return func(p *Processor) {
		p.clock = c
	}
}

func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

func WithProcessorMetrics(m *metrics.Metrics) ProcessorOption {
	return func(p *Processor) {
		p.metrics = m
	}
}

func NewProcessor(store Store, dictionary Dictionary, opts ...ProcessorOption) *Processor {
	p := &Processor{
		store:      store,
		dictionary: dictionary,
		threshold:  detection.DefaultSimilarityThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.publisher == nil {
		p.publisher = events.Nop{}
	}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Process implements queue.Processor. Returned errors are retried by the
// queue unless wrapped with queue.Permanent.
func (p *Processor) Process(ctx context.Context, job queue.Job) error {
	c, err := p.store.FindByID(ctx, job.ID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return queue.Permanent(dErrors.New(dErrors.CodeNotFound, "check not found"))
	}
	if err != nil {
		return fmt.Errorf("load check: %w", err)
	}
	if c.Status().IsTerminal() {
		p.logger.DebugContext(ctx, "check already finished, skipping",
			"check_id", c.ID(),
			"status", c.Status(),
		)
		return nil
	}
	if c.Status() == models.StatusPending {
		if err := c.StartProcessing(p.clock.Now()); err != nil {
			return queue.Permanent(err)
		}
		if err := p.persist(ctx, c); err != nil {
			if errors.Is(err, errDiscarded) {
				return nil
			}
			return err
		}
	}

	if c.NeedsExtraction() {
		const msg = "image input has no extracted text"
		if err := c.Fail(msg, p.clock.Now()); err != nil {
			return queue.Permanent(err)
		}
		if err := p.persist(ctx, c); err != nil {
			if errors.Is(err, errDiscarded) {
				return nil
			}
			return err
		}
		p.metrics.IncFinished(string(models.StatusFailed))
		return queue.Permanent(dErrors.New(dErrors.CodeValidation, msg))
	}

	items, err := p.dictionary.ListByOrganization(ctx, c.OrganizationID())
	if err != nil {
		return fmt.Errorf("load dictionary: %w", err)
	}
	entries := detection.EntriesFromItems(items)
	text := c.TextForMatching()
	candidates := detection.Detect(text, entries)

	ngHints, allowHints, err := p.similarityHints(ctx, text, entries)
	if err != nil {
		return err
	}

	var rewrite *detection.RewriteResult
	if p.rewriter != nil {
		res, err := p.rewriter.Rewrite(ctx, detection.RewriteRequest{
			Text:       text,
			Candidates: candidates,
			NGHints:    ngHints,
			AllowHints: allowHints,
		})
		if err != nil {
			return fmt.Errorf("rewrite check text: %w", err)
		}
		rewrite = &res
	}

	now := p.clock.Now()
	for _, v := range buildViolations(c.ID(), text, candidates, rewrite) {
		if err := c.AddViolation(v, now); err != nil {
			return queue.Permanent(err)
		}
	}
	if rewrite != nil {
		if err := c.RecordRewrite(rewrite.RewrittenText); err != nil {
			return queue.Permanent(err)
		}
	}
	if err := c.Complete(now); err != nil {
		return queue.Permanent(err)
	}

	if err := p.persist(ctx, c); err != nil {
		if errors.Is(err, errDiscarded) {
			return nil
		}
		return err
	}
	p.metrics.IncFinished(string(models.StatusCompleted))
	p.metrics.AddViolations(c.ViolationCount())
	p.logger.InfoContext(ctx, "check completed",
		"check_id", c.ID(),
		"org_id", c.OrganizationID(),
		"violations", c.ViolationCount(),
		"ng_hints", len(ngHints),
	)
	return nil
}

var errDiscarded = errors.New("check finished elsewhere")

// persist saves the check unless it was cancelled or failed while this
// attempt was running. The store refuses to overwrite a terminal check, so a
// Cancel landing at any point before the write wins.
func (p *Processor) persist(ctx context.Context, c *models.Check) error {
	err := p.store.Save(ctx, c)
	if errors.Is(err, sentinel.ErrConflict) {
		p.logger.InfoContext(ctx, "check finished while processing, result discarded",
			"check_id", c.ID(),
			"attempted_status", c.Status(),
		)
		return errDiscarded
	}
	if err != nil {
		return fmt.Errorf("save check: %w", err)
	}
	p.publisher.Publish(ctx, c.PullEvents()...)
	return nil
}

func (p *Processor) similarityHints(ctx context.Context, text string, entries []detection.Entry) (ng, allow []detection.SimilarityMatch, err error) {
	if p.embedder == nil || !anyVector(entries) {
		return nil, nil, nil
	}
	values, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, nil, fmt.Errorf("embed check text: %w", err)
	}
	vec, err := id.NewEmbeddingVector(values)
	if err != nil {
		return nil, nil, queue.Permanent(dErrors.Wrap(err, dErrors.CodeValidation, "invalid check embedding"))
	}
	ng, allow = detection.Hints(detection.MatchBySimilarity(vec, entries, p.threshold))
	return ng, allow, nil
}

func anyVector(entries []detection.Entry) bool {
	for _, e := range entries {
		if !e.Vector.IsZero() {
			return true
		}
	}
	return false
}

// violationID is stable per check, source and range so a retried attempt
// overwrites rather than duplicates.
func violationID(checkID id.CheckID, key string, r id.TextRange) id.ViolationID {
	name := fmt.Sprintf("%s|%d|%d", key, r.Start(), r.End())
	return id.ViolationID(uuid.NewSHA1(uuid.UUID(checkID), []byte(name)))
}

// buildViolations turns local candidates into violations, attaches rewriter
// suggestions to the candidates they overlap, and adds rewriter findings no
// candidate covers. The result is ordered by start offset.
func buildViolations(checkID id.CheckID, text string, candidates []detection.Candidate, rewrite *detection.RewriteResult) []models.Violation {
	out := make([]models.Violation, 0, len(candidates))
	for _, cand := range candidates {
		itemID := cand.ItemID
		out = append(out, models.Violation{
			ID:               violationID(checkID, itemID.String(), cand.Range),
			DictionaryItemID: &itemID,
			OriginalText:     cand.Text,
			Reasoning:        fmt.Sprintf("%s match for registered phrase %q", cand.MatchType, cand.Phrase),
			Range:            cand.Range,
		})
	}
	local := len(out)

	if rewrite != nil {
		for _, f := range rewrite.Findings {
			r, ok := detection.Locate(text, f)
			if !ok {
				continue
			}
			covered := false
			for i := 0; i < local; i++ {
				if !out[i].Range.Overlaps(r) {
					continue
				}
				covered = true
				if out[i].SuggestedText == "" {
					out[i].SuggestedText = f.SuggestedText
					if f.Reasoning != "" {
						out[i].Reasoning = f.Reasoning
					}
				}
			}
			if covered {
				continue
			}
			original, _ := r.Extract(text)
			out = append(out, models.Violation{
				ID:            violationID(checkID, rewriteKey, r),
				OriginalText:  original,
				SuggestedText: f.SuggestedText,
				Reasoning:     f.Reasoning,
				Range:         r,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Range.Start() < out[j].Range.Start()
	})
	return out
}
