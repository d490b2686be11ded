package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/guardforce-backend/pkg/db/types"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

// BulkOperation records one bulk action run across many shifts.
type BulkOperation struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OperationType enums.BulkActionType      `gorm:"column:operation_type;type:bulk_action_type;not null"`
	ShiftIDs      dbtypes.UUIDArray         `gorm:"column:shift_ids;type:uuid[];not null"`
	Parameters    json.RawMessage           `gorm:"column:parameters;type:jsonb"`
	Reason        *string                   `gorm:"column:reason"`
	ExecutedBy    string                    `gorm:"column:executed_by;not null"`
	ExecutedAt    time.Time                 `gorm:"column:executed_at;not null"`
	Status        enums.BulkOperationStatus `gorm:"column:status;type:bulk_operation_status;not null"`
	Results       json.RawMessage           `gorm:"column:results;type:jsonb"`
	SuccessCount  int                       `gorm:"column:success_count;not null;default:0"`
	FailureCount  int                       `gorm:"column:failure_count;not null;default:0"`
	CompletedAt   *time.Time                `gorm:"column:completed_at"`
}

func (BulkOperation) TableName() string { return "shift_bulk_operations" }
