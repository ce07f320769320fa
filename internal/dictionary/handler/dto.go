package handler

import (
	"strings"
	"time"

	"phraseguard/internal/dictionary/models"
	embmodels "phraseguard/internal/embedding/models"
	id "phraseguard/pkg/domain"
	dErrors "phraseguard/pkg/domain-errors"
)

type CreateItemRequest struct {
	OrganizationID string `json:"organization_id"`
	Phrase         string `json:"phrase"`
	Category       string `json:"category"`
	Notes          string `json:"notes,omitempty"`

	orgID id.OrganizationID
}

func (r *CreateItemRequest) Validate() error {
	orgID, err := id.ParseOrganizationID(strings.TrimSpace(r.OrganizationID))
	if err != nil {
		return err
	}
	r.orgID = orgID
	if strings.TrimSpace(r.Phrase) == "" {
		return dErrors.New(dErrors.CodeValidation, "phrase is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		return dErrors.New(dErrors.CodeValidation, "category is required")
	}
	return nil
}

type UpdateItemRequest struct {
	Phrase   *string `json:"phrase,omitempty"`
	Category *string `json:"category,omitempty"`
}

func (r *UpdateItemRequest) Validate() error {
	if r.Phrase == nil && r.Category == nil {
		return dErrors.New(dErrors.CodeValidation, "phrase or category is required")
	}
	return nil
}

type ItemResponse struct {
	ID             id.DictionaryItemID `json:"id"`
	OrganizationID id.OrganizationID   `json:"organization_id"`
	Phrase         string              `json:"phrase"`
	Category       string              `json:"category"`
	Notes          string              `json:"notes,omitempty"`
	HasVector      bool                `json:"has_vector"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func toItemResponse(it *models.Item) ItemResponse {
	return ItemResponse{
		ID:             it.ID(),
		OrganizationID: it.OrganizationID(),
		Phrase:         it.Phrase(),
		Category:       string(it.Category()),
		Notes:          it.Notes(),
		HasVector:      it.HasVector(),
		CreatedAt:      it.CreatedAt(),
		UpdatedAt:      it.UpdatedAt(),
	}
}

type ListItemsResponse struct {
	Items []ItemResponse `json:"items"`
}

type EmbeddingJobAcceptedResponse struct {
	JobID id.EmbeddingJobID `json:"job_id"`
}

type EmbeddingJobResponse struct {
	JobID     id.EmbeddingJobID   `json:"job_id"`
	Status    embmodels.JobStatus `json:"status"`
	Total     int                 `json:"total"`
	Processed int                 `json:"processed"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Error     string              `json:"error,omitempty"`
}

func toEmbeddingJobResponse(j *embmodels.Job) EmbeddingJobResponse {
	return EmbeddingJobResponse{
		JobID:     j.ID,
		Status:    j.Status,
		Total:     j.Total,
		Processed: j.Processed,
		Succeeded: j.Succeeded,
		Failed:    j.Failed,
		Error:     j.Error,
	}
}
