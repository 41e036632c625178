package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/schoolping/schoolping-backend/internal/logger"
	"github.com/schoolping/schoolping-backend/internal/types"
)

type StaffRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Staff, error)
	EnsureByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, title string) (*types.Staff, error)
	ListCourseIDsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
	IsCourseStaff(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID uuid.UUID) (bool, error)
	AssignCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, staffID uuid.UUID, role string) error
}

type staffRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStaffRepo(db *gorm.DB, baseLog *logger.Logger) StaffRepo {
	return &staffRepo{db: db, log: baseLog.With("repo", "StaffRepo")}
}

func (r *staffRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Staff, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.Staff
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

func (r *staffRepo) EnsureByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, title string) (*types.Staff, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	row := &types.Staff{ID: uuid.New(), UserID: userID, Title: title}
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

func (r *staffRepo) ListCourseIDsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if userID == uuid.Nil {
		return ids, nil
	}
	if err := transaction.WithContext(ctx).
		Model(&types.CourseStaff{}).
		Joins("JOIN staff ON staff.id = course_staff.staff_id").
		Where("staff.user_id = ?", userID).
		Distinct().
		Pluck("course_staff.course_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *staffRepo) IsCourseStaff(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || courseID == uuid.Nil {
		return false, nil
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.CourseStaff{}).
		Joins("JOIN staff ON staff.id = course_staff.staff_id").
		Where("course_staff.course_id = ? AND staff.user_id = ?", courseID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *staffRepo) AssignCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, staffID uuid.UUID, role string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	row := &types.CourseStaff{ID: uuid.New(), CourseID: courseID, StaffID: staffID, Role: role}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "staff_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}
