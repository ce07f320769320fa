package domain

import dErrors "phraseguard/pkg/domain-errors"

// InputType identifies the modality a check was submitted with.
// Invariant: the value must be one of the supported input types.
//
// Usage: construct via ParseInputType at trust boundaries; direct casting
// bypasses validation.
type InputType string

const (
	InputTypeText  InputType = "text"
	InputTypeImage InputType = "image"
)

var validInputTypes = map[InputType]bool{
	InputTypeText:  true,
	InputTypeImage: true,
}

// ParseInputType constructs an InputType from external input. Empty input
// defaults to text.
func ParseInputType(s string) (InputType, error) {
	if s == "" {
		return InputTypeText, nil
	}
	t := InputType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid input type")
	}
	return t, nil
}

func (t InputType) IsValid() bool {
	return validInputTypes[t]
}

func (t InputType) String() string {
	return string(t)
}

// Priority orders queued checks. High goes to the front of the pending
// queue; normal and low are appended.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

var validPriorities = map[Priority]bool{
	PriorityHigh:   true,
	PriorityNormal: true,
	PriorityLow:    true,
}

// ParsePriority constructs a Priority from external input. Empty input
// defaults to normal.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityNormal, nil
	}
	p := Priority(s)
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid priority")
	}
	return p, nil
}

func (p Priority) IsValid() bool {
	return validPriorities[p]
}

func (p Priority) String() string {
	return string(p)
}
