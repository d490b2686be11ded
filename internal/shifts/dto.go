package shifts

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

// ShiftDTO is the API view of a shift.
type ShiftDTO struct {
	ID                     uuid.UUID         `json:"id"`
	Title                  string            `json:"title"`
	StartTime              time.Time         `json:"startTime"`
	EndTime                time.Time         `json:"endTime"`
	Status                 enums.ShiftStatus `json:"status"`
	AssignedGuardID        *uuid.UUID        `json:"assignedGuardId,omitempty"`
	Priority               int               `json:"priority"`
	RequiredCertifications []string          `json:"requiredCertifications"`
	RequiredGuards         int               `json:"requiredGuards"`
	ClientInfo             json.RawMessage   `json:"clientInfo,omitempty"`
	LocationData           json.RawMessage   `json:"locationData,omitempty"`
	ClientID               *uuid.UUID        `json:"clientId,omitempty"`
	SiteID                 *uuid.UUID        `json:"siteId,omitempty"`
	ManagerID              *string           `json:"managerId,omitempty"`
	Version                int               `json:"version"`
	CreatedAt              time.Time         `json:"createdAt"`
	UpdatedAt              time.Time         `json:"updatedAt"`
	ArchivedAt             *time.Time        `json:"archivedAt,omitempty"`
}

// TransitionDTO is the API view of one workflow history row.
type TransitionDTO struct {
	ID               uuid.UUID              `json:"id"`
	ShiftID          uuid.UUID              `json:"shiftId"`
	PreviousStatus   enums.ShiftStatus      `json:"previousStatus"`
	NewStatus        enums.ShiftStatus      `json:"newStatus"`
	ChangedBy        string                 `json:"changedBy"`
	ChangedAt        time.Time              `json:"changedAt"`
	TransitionReason *string                `json:"transitionReason,omitempty"`
	TransitionMethod enums.TransitionMethod `json:"transitionMethod"`
	BulkOperationID  *uuid.UUID             `json:"bulkOperationId,omitempty"`
}

// CreateShiftInput holds intake data for a new shift.
type CreateShiftInput struct {
	Title                  string
	StartTime              time.Time
	EndTime                time.Time
	Priority               int
	RequiredCertifications []string
	RequiredGuards         int
	ClientInfo             json.RawMessage
	LocationData           json.RawMessage
	ClientID               *uuid.UUID
	SiteID                 *uuid.UUID
	ManagerID              *string
	CreatedBy              string
}

// BoardFilters narrows the shifts feeding the Kanban board.
type BoardFilters struct {
	ManagerID  *string
	From       *time.Time
	To         *time.Time
	ClientID   *uuid.UUID
	SiteID     *uuid.UUID
	GuardID    *uuid.UUID
	Statuses   []enums.ShiftStatus
	Priority   *int
	Assigned   *bool
	UrgentOnly bool
	Limit      int
}

// FromModel maps a persisted shift into a DTO.
func FromModel(m *models.Shift) *ShiftDTO {
	if m == nil {
		return nil
	}
	certs := []string(m.RequiredCertifications)
	if certs == nil {
		certs = []string{}
	}
	return &ShiftDTO{
		ID:                     m.ID,
		Title:                  m.Title,
		StartTime:              m.StartTime,
		EndTime:                m.EndTime,
		Status:                 m.Status,
		AssignedGuardID:        m.AssignedGuardID,
		Priority:               m.Priority,
		RequiredCertifications: certs,
		RequiredGuards:         m.RequiredGuards,
		ClientInfo:             m.ClientInfo,
		LocationData:           m.LocationData,
		ClientID:               m.ClientID,
		SiteID:                 m.SiteID,
		ManagerID:              m.ManagerID,
		Version:                m.Version,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
		ArchivedAt:             m.ArchivedAt,
	}
}

// TransitionFromModel maps a history row into a DTO.
func TransitionFromModel(m models.WorkflowTransition) TransitionDTO {
	return TransitionDTO{
		ID:               m.ID,
		ShiftID:          m.ShiftID,
		PreviousStatus:   m.PreviousStatus,
		NewStatus:        m.NewStatus,
		ChangedBy:        m.ChangedBy,
		ChangedAt:        m.ChangedAt,
		TransitionReason: m.TransitionReason,
		TransitionMethod: m.TransitionMethod,
		BulkOperationID:  m.BulkOperationID,
	}
}
