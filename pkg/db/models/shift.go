package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

// Shift is a schedulable unit of guard work tracked on the Kanban board.
type Shift struct {
	ID                     uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title                  string            `gorm:"column:title;not null"`
	StartTime              time.Time         `gorm:"column:start_time;not null"`
	EndTime                time.Time         `gorm:"column:end_time;not null"`
	Status                 enums.ShiftStatus `gorm:"column:status;type:shift_status;not null;default:'unassigned'"`
	AssignedGuardID        *uuid.UUID        `gorm:"column:assigned_guard_id;type:uuid"`
	Priority               int               `gorm:"column:priority;not null;default:0"`
	RequiredCertifications pq.StringArray    `gorm:"column:required_certifications;type:text[];not null;default:'{}'"`
	RequiredGuards         int               `gorm:"column:required_guards;not null;default:1"`
	ClientInfo             json.RawMessage   `gorm:"column:client_info;type:jsonb"`
	LocationData           json.RawMessage   `gorm:"column:location_data;type:jsonb"`
	ClientID               *uuid.UUID        `gorm:"column:client_id;type:uuid"`
	SiteID                 *uuid.UUID        `gorm:"column:site_id;type:uuid"`
	ManagerID              *string           `gorm:"column:manager_id"`
	Version                int               `gorm:"column:version;not null;default:0"`
	CreatedAt              time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	ArchivedAt             *time.Time        `gorm:"column:archived_at"`
}
