package types

import (
	"github.com/google/uuid"
)

// GuardianStudent links a guardian to one of their wards. A guardian may
// have several wards and a student several guardians.
type GuardianStudent struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	GuardianID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_guardian_student;column:guardian_id" json:"guardian_id"`
	StudentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_guardian_student;column:student_id" json:"student_id"`
	Relationship string    `gorm:"column:relationship" json:"relationship"`
}

func (GuardianStudent) TableName() string {
	return "guardian_student"
}
