package types

import (
	"github.com/google/uuid"
)

type Staff struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;column:user_id" json:"user_id"`
	Title  string    `gorm:"column:title" json:"title"`
}

func (Staff) TableName() string {
	return "staff"
}
