package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/diegojoyero/joyeria-backend/pkg/enums"
)

// ActivityEntry is one line of the admin activity feed.
type ActivityEntry struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Action      enums.ActivityAction `gorm:"column:action;type:text;not null"`
	Title       string               `gorm:"column:title;not null"`
	Description string               `gorm:"column:description;not null;default:''"`
	AdminID     *uuid.UUID           `gorm:"column:admin_id;type:uuid"`
	CreatedAt   time.Time            `gorm:"column:created_at"`
}

func (ActivityEntry) TableName() string { return "admin_activity" }
