package bulk

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

// Request is the decoded body of a bulk action call.
type Request struct {
	Action     string          `json:"action"`
	ShiftIDs   []uuid.UUID     `json:"shiftIds"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Reason     *string         `json:"reason,omitempty"`
}

// ItemError explains why one shift failed.
type ItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ItemResult is the outcome for one shift in a bulk run.
type ItemResult struct {
	ShiftID  uuid.UUID  `json:"shiftId"`
	Success  bool       `json:"success"`
	NewValue any        `json:"newValue,omitempty"`
	Error    *ItemError `json:"error,omitempty"`
}

// OperationDTO is the API view of a bulk operation.
type OperationDTO struct {
	ID           uuid.UUID                 `json:"id"`
	Action       enums.BulkActionType      `json:"action"`
	ShiftIDs     []uuid.UUID               `json:"shiftIds"`
	Parameters   json.RawMessage           `json:"parameters,omitempty"`
	Reason       *string                   `json:"reason,omitempty"`
	ExecutedBy   string                    `json:"executedBy"`
	ExecutedAt   time.Time                 `json:"executedAt"`
	Status       enums.BulkOperationStatus `json:"status"`
	Results      []ItemResult              `json:"results"`
	SuccessCount int                       `json:"successCount"`
	FailureCount int                       `json:"failureCount"`
	CompletedAt  *time.Time                `json:"completedAt,omitempty"`
}

// Result is returned by ExecuteBulkAction.
type Result struct {
	Operation OperationDTO `json:"operation"`
	Warnings  []string     `json:"warnings"`
}

// FromModel maps a stored operation into its DTO. Stored results that fail
// to decode are returned as an empty list.
func FromModel(m *models.BulkOperation) *OperationDTO {
	if m == nil {
		return nil
	}
	results := []ItemResult{}
	if len(m.Results) > 0 {
		var decoded []ItemResult
		if err := json.Unmarshal(m.Results, &decoded); err == nil {
			results = decoded
		}
	}
	ids := make([]uuid.UUID, len(m.ShiftIDs))
	copy(ids, m.ShiftIDs)
	return &OperationDTO{
		ID:           m.ID,
		Action:       m.OperationType,
		ShiftIDs:     ids,
		Parameters:   m.Parameters,
		Reason:       m.Reason,
		ExecutedBy:   m.ExecutedBy,
		ExecutedAt:   m.ExecutedAt,
		Status:       m.Status,
		Results:      results,
		SuccessCount: m.SuccessCount,
		FailureCount: m.FailureCount,
		CompletedAt:  m.CompletedAt,
	}
}
