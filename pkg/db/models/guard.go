package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Guard is a security officer who can be assigned to shifts.
type Guard struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FullName       string         `gorm:"column:full_name;not null"`
	Email          *string        `gorm:"column:email"`
	Phone          *string        `gorm:"column:phone"`
	Certifications pq.StringArray `gorm:"column:certifications;type:text[];not null;default:'{}'"`
	IsActive       bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
