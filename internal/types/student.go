package types

import (
	"github.com/google/uuid"
)

type Student struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;column:user_id" json:"user_id"`
	StudentNumber string    `gorm:"uniqueIndex;not null;column:student_number" json:"student_number"`
	GradeLevel    string    `gorm:"column:grade_level" json:"grade_level"`
}

func (Student) TableName() string {
	return "student"
}
