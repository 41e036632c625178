package types

import (
	"github.com/google/uuid"
)

type Guardian struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;column:user_id" json:"user_id"`
}

func (Guardian) TableName() string {
	return "guardian"
}
