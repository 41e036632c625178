package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/schoolping/schoolping-backend/internal/logger"
	"github.com/schoolping/schoolping-backend/internal/types"
)

type GuardianRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Guardian, error)
	EnsureByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Guardian, error)
	// ListWardCourseIDsByUserID returns every course any ward of the
	// guardian is enrolled in, deduplicated.
	ListWardCourseIDsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
	LinkStudent(ctx context.Context, tx *gorm.DB, guardianID uuid.UUID, studentID uuid.UUID, relationship string) error
}

type guardianRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGuardianRepo(db *gorm.DB, baseLog *logger.Logger) GuardianRepo {
	return &guardianRepo{db: db, log: baseLog.With("repo", "GuardianRepo")}
}

func (r *guardianRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Guardian, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.Guardian
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

func (r *guardianRepo) EnsureByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Guardian, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	row := &types.Guardian{ID: uuid.New(), UserID: userID}
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

func (r *guardianRepo) ListWardCourseIDsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
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
		Joins("JOIN guardian_student ON guardian_student.student_id = enrollment.student_id").
		Joins("JOIN guardian ON guardian.id = guardian_student.guardian_id").
		Where("guardian.user_id = ?", userID).
		Distinct().
		Pluck("enrollment.course_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *guardianRepo) LinkStudent(ctx context.Context, tx *gorm.DB, guardianID uuid.UUID, studentID uuid.UUID, relationship string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	row := &types.GuardianStudent{ID: uuid.New(), GuardianID: guardianID, StudentID: studentID, Relationship: relationship}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guardian_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}
