package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/schoolping/schoolping-backend/internal/logger"
	"github.com/schoolping/schoolping-backend/internal/types"
)

type StudentRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Student, error)
	EnsureByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, studentNumber, gradeLevel string) (*types.Student, error)
	ListCourseIDsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
	Enroll(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, studentID uuid.UUID) error
}

type studentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	return &studentRepo{db: db, log: baseLog.With("repo", "StudentRepo")}
}

func (r *studentRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.Student
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *studentRepo) EnsureByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, studentNumber, gradeLevel string) (*types.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	row := &types.Student{ID: uuid.New(), UserID: userID, StudentNumber: studentNumber, GradeLevel: gradeLevel}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, tx, userID)
}

func (r *studentRepo) ListCourseIDsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if userID == uuid.Nil {
		return ids, nil
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Enrollment{}).
		Joins("JOIN student ON student.id = enrollment.student_id").
		Where("student.user_id = ?", userID).
		Distinct().
		Pluck("enrollment.course_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *studentRepo) Enroll(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, studentID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	row := &types.Enrollment{ID: uuid.New(), CourseID: courseID, StudentID: studentID}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}
