package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"phraseguard/internal/events"
	id "phraseguard/pkg/domain"
	dErrors "phraseguard/pkg/domain-errors"
)

// MaxInputRunes bounds submitted text.
const MaxInputRunes = 20000

// Check is the aggregate for one compliance check request.
//
// Invariants:
//   - Status moves pending -> processing -> {completed | failed | cancelled},
//     and pending -> cancelled. Completed and failed are final.
//   - Violations are mutated only while processing.
//   - ViolationCount equals len(Violations) once completed.
//   - A rejected operation leaves the aggregate unchanged.
//
// Not safe for concurrent use; callers own one instance per goroutine.
type Check struct {
	id             id.CheckID
	userID         id.UserID
	organizationID id.OrganizationID
	inputText      string
	extractedText  string
	inputType      id.InputType
	imageRef       string
	status         Status
	violations     []Violation
	violationCount int
	rewrittenText  string
	errorMessage   string
	createdAt      time.Time
	completedAt    *time.Time

	recorder events.Recorder
}

// NewCheckParams describes a submitted check.
type NewCheckParams struct {
	ID             id.CheckID
	UserID         id.UserID
	OrganizationID id.OrganizationID
	InputText      string
	ExtractedText  string
	InputType      id.InputType
	ImageRef       string
}

// NewCheck creates a pending check and records CheckCreated.
func NewCheck(p NewCheckParams, now time.Time) (*Check, error) {
	if p.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "check ID is required")
	}
	if p.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "user ID is required")
	}
	if p.OrganizationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "organization ID is required")
	}
	if p.InputType == "" {
		p.InputType = id.InputTypeText
	}
	switch p.InputType {
	case id.InputTypeText:
		if strings.TrimSpace(p.InputText) == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "input text is required")
		}
	case id.InputTypeImage:
		if p.ImageRef == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "image reference is required for image input")
		}
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "invalid input type")
	}
	if utf8.RuneCountInString(p.InputText) > MaxInputRunes || utf8.RuneCountInString(p.ExtractedText) > MaxInputRunes {
		return nil, dErrors.New(dErrors.CodeValidation, "input text is too long")
	}

	c := &Check{
		id:             p.ID,
		userID:         p.UserID,
		organizationID: p.OrganizationID,
		inputText:      p.InputText,
		extractedText:  p.ExtractedText,
		inputType:      p.InputType,
		imageRef:       p.ImageRef,
		status:         StatusPending,
		createdAt:      now,
	}
	c.recorder.Record(events.CheckCreated{
		CheckID:        c.id,
		UserID:         c.userID,
		OrganizationID: c.organizationID,
		HasExtracted:   c.extractedText != "",
		At:             now,
	})
	return c, nil
}

// RehydrateParams carries persisted state back into an aggregate.
type RehydrateParams struct {
	NewCheckParams
	Status         Status
	Violations     []Violation
	ViolationCount int
	RewrittenText  string
	ErrorMessage   string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// Rehydrate rebuilds a check from storage without recording events.
func Rehydrate(p RehydrateParams) *Check {
	c := &Check{
		id:             p.ID,
		userID:         p.UserID,
		organizationID: p.OrganizationID,
		inputText:      p.InputText,
		extractedText:  p.ExtractedText,
		inputType:      p.InputType,
		imageRef:       p.ImageRef,
		status:         p.Status,
		violationCount: p.ViolationCount,
		rewrittenText:  p.RewrittenText,
		errorMessage:   p.ErrorMessage,
		createdAt:      p.CreatedAt,
	}
	if c.inputType == "" {
		c.inputType = id.InputTypeText
	}
	if len(p.Violations) > 0 {
		c.violations = make([]Violation, len(p.Violations))
		copy(c.violations, p.Violations)
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		c.completedAt = &t
	}
	return c
}

func (c *Check) ID() id.CheckID                    { return c.id }
func (c *Check) UserID() id.UserID                 { return c.userID }
func (c *Check) OrganizationID() id.OrganizationID { return c.organizationID }
func (c *Check) InputText() string                 { return c.inputText }
func (c *Check) ExtractedText() string             { return c.extractedText }
func (c *Check) InputType() id.InputType           { return c.inputType }
func (c *Check) ImageRef() string                  { return c.imageRef }
func (c *Check) Status() Status                    { return c.status }
func (c *Check) ViolationCount() int               { return c.violationCount }
func (c *Check) RewrittenText() string             { return c.rewrittenText }
func (c *Check) ErrorMessage() string              { return c.errorMessage }
func (c *Check) CreatedAt() time.Time              { return c.createdAt }
func (c *Check) HasViolations() bool               { return len(c.violations) > 0 }
func (c *Check) PullEvents() []events.Event        { return c.recorder.PullEvents() }

// CompletedAt returns a copy of the completion time, or nil while active.
func (c *Check) CompletedAt() *time.Time {
	if c.completedAt == nil {
		return nil
	}
	t := *c.completedAt
	return &t
}

// Violations returns a copy of the collected violations in insertion order.
func (c *Check) Violations() []Violation {
	out := make([]Violation, len(c.violations))
	copy(out, c.violations)
	return out
}

// TextForMatching returns the text detection runs against: extracted text
// when present, otherwise the submitted text.
func (c *Check) TextForMatching() string {
	if c.extractedText != "" {
		return c.extractedText
	}
	return c.inputText
}

// NeedsExtraction reports an image check that arrived without extracted text.
func (c *Check) NeedsExtraction() bool {
	return c.inputType == id.InputTypeImage && strings.TrimSpace(c.extractedText) == ""
}

func (c *Check) requireStatus(want Status, op string) error {
	if c.status != want {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"cannot "+op+": check is "+string(c.status)+", expected "+string(want))
	}
	return nil
}

// StartProcessing moves a pending check to processing.
func (c *Check) StartProcessing(now time.Time) error {
	if err := c.requireStatus(StatusPending, "start processing"); err != nil {
		return err
	}
	c.status = StatusProcessing
	c.recorder.Record(events.CheckProcessingStarted{CheckID: c.id, At: now})
	return nil
}

// AddViolation records v on a processing check. A violation with an existing
// ID replaces the earlier one in place.
func (c *Check) AddViolation(v Violation, now time.Time) error {
	if err := c.requireStatus(StatusProcessing, "add violation"); err != nil {
		return err
	}
	if v.ID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "violation ID is required")
	}
	if v.Range.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "violation range is required")
	}
	v.CheckID = c.id
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}

	replaced := false
	for i := range c.violations {
		if c.violations[i].ID == v.ID {
			c.violations[i] = v
			replaced = true
			break
		}
	}
	if !replaced {
		c.violations = append(c.violations, v)
	}

	c.recorder.Record(events.ViolationDetected{
		CheckID:          c.id,
		ViolationID:      v.ID,
		DictionaryItemID: v.DictionaryItemID,
		OriginalText:     v.OriginalText,
		Start:            v.Range.Start(),
		End:              v.Range.End(),
		At:               now,
	})
	return nil
}

// RecordRewrite stores the compliant rewrite produced during processing.
func (c *Check) RecordRewrite(text string) error {
	if err := c.requireStatus(StatusProcessing, "record rewrite"); err != nil {
		return err
	}
	c.rewrittenText = text
	return nil
}

// Complete finishes a processing check.
func (c *Check) Complete(now time.Time) error {
	if err := c.requireStatus(StatusProcessing, "complete"); err != nil {
		return err
	}
	c.status = StatusCompleted
	c.violationCount = len(c.violations)
	c.completedAt = &now
	c.recorder.Record(events.CheckCompleted{
		CheckID:        c.id,
		ViolationCount: c.violationCount,
		HasViolations:  c.violationCount > 0,
		At:             now,
	})
	return nil
}

// Fail marks a processing check as failed with message.
func (c *Check) Fail(message string, now time.Time) error {
	if err := c.requireStatus(StatusProcessing, "fail"); err != nil {
		return err
	}
	c.status = StatusFailed
	c.errorMessage = message
	c.completedAt = &now
	c.recorder.Record(events.CheckFailed{CheckID: c.id, Message: message, At: now})
	return nil
}

// Cancel stops a pending or processing check. Work already dispatched keeps
// running; its result is discarded when it tries to complete. Cancelling a
// cancelled check changes nothing and records no event.
func (c *Check) Cancel(now time.Time) error {
	if c.status == StatusCancelled {
		return nil
	}
	if !c.status.CanTransitionTo(StatusCancelled) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"cannot cancel: check is "+string(c.status))
	}
	c.status = StatusCancelled
	c.completedAt = &now
	c.recorder.Record(events.CheckCancelled{CheckID: c.id, At: now})
	return nil
}
