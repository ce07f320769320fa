package handler

import (
	"time"

	"phraseguard/internal/check/models"
	id "phraseguard/pkg/domain"
)

type SubmitCheckRequest struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Text           string `json:"text"`
	ExtractedText  string `json:"extracted_text,omitempty"`
	Priority       string `json:"priority,omitempty"`
	InputType      string `json:"input_type,omitempty"`
	ImageRef       string `json:"image_ref,omitempty"`

	userID id.UserID
	orgID  id.OrganizationID
}

func (r *SubmitCheckRequest) Validate() error {
	userID, err := id.ParseUserID(r.UserID)
	if err != nil {
		return err
	}
	orgID, err := id.ParseOrganizationID(r.OrganizationID)
	if err != nil {
		return err
	}
	r.userID = userID
	r.orgID = orgID
	return nil
}

type SubmitCheckResponse struct {
	CheckID id.CheckID `json:"check_id"`
	Status  string     `json:"status"`
}

type ViolationResponse struct {
	ID               id.ViolationID       `json:"id"`
	DictionaryItemID *id.DictionaryItemID `json:"dictionary_item_id,omitempty"`
	OriginalText     string               `json:"original_text"`
	SuggestedText    string               `json:"suggested_text,omitempty"`
	Reasoning        string               `json:"reasoning,omitempty"`
	Start            int                  `json:"start"`
	End              int                  `json:"end"`
}

type CheckResponse struct {
	ID             id.CheckID          `json:"id"`
	UserID         id.UserID           `json:"user_id"`
	OrganizationID id.OrganizationID   `json:"organization_id"`
	Status         string              `json:"status"`
	InputType      string              `json:"input_type"`
	InputText      string              `json:"input_text,omitempty"`
	ExtractedText  string              `json:"extracted_text,omitempty"`
	ImageRef       string              `json:"image_ref,omitempty"`
	ViolationCount int                 `json:"violation_count"`
	Violations     []ViolationResponse `json:"violations"`
	RewrittenText  string              `json:"rewritten_text,omitempty"`
	ErrorMessage   string              `json:"error_message,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
}

func toCheckResponse(c *models.Check) CheckResponse {
	resp := CheckResponse{
		ID:             c.ID(),
		UserID:         c.UserID(),
		OrganizationID: c.OrganizationID(),
		Status:         string(c.Status()),
		InputType:      string(c.InputType()),
		InputText:      c.InputText(),
		ExtractedText:  c.ExtractedText(),
		ImageRef:       c.ImageRef(),
		ViolationCount: c.ViolationCount(),
		Violations:     []ViolationResponse{},
		RewrittenText:  c.RewrittenText(),
		ErrorMessage:   c.ErrorMessage(),
		CreatedAt:      c.CreatedAt(),
		CompletedAt:    c.CompletedAt(),
	}
	for _, v := range c.Violations() {
		resp.Violations = append(resp.Violations, ViolationResponse{
			ID:               v.ID,
			DictionaryItemID: v.DictionaryItemID,
			OriginalText:     v.OriginalText,
			SuggestedText:    v.SuggestedText,
			Reasoning:        v.Reasoning,
			Start:            v.Range.Start(),
			End:              v.Range.End(),
		})
	}
	return resp
}
