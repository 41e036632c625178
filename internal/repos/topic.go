package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/schoolping/schoolping-backend/internal/logger"
	"github.com/schoolping/schoolping-backend/internal/types"
)

type TopicRepo interface {
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Topic, error)
	// Upsert keyed by slug; on conflict the remote topic ARN is refreshed.
	Upsert(ctx context.Context, tx *gorm.DB, slug, name, topicARN string) (*types.Topic, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Topic, error)
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo")}
}

func (r *topicRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Topic
	err := transaction.WithContext(ctx).
		Where("slug = ?", slug).
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

func (r *topicRepo) Upsert(ctx context.Context, tx *gorm.DB, slug, name, topicARN string) (*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if name == "" {
		name = slug
	}
	row := &types.Topic{ID: uuid.New(), Slug: slug, Name: name, TopicARN: topicARN}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"topic_arn"}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.GetBySlug(ctx, tx, slug)
}

func (r *topicRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Topic
	if err := transaction.WithContext(ctx).
		Order("slug").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
