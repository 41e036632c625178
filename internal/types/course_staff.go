package types

import (
	"github.com/google/uuid"
)

// CourseStaff assigns a staff member to a course with an assignment role
// such as "instructor".
type CourseStaff struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_course_staff;column:course_id" json:"course_id"`
	StaffID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_course_staff;column:staff_id" json:"staff_id"`
	Role     string    `gorm:"column:role" json:"role"`
}

func (CourseStaff) TableName() string {
	return "course_staff"
}
