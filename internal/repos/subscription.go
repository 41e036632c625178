package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/schoolping/schoolping-backend/internal/logger"
	"github.com/schoolping/schoolping-backend/internal/types"
)

type SubscriptionRepo interface {
	// Upsert keyed by (device_id, topic_id); on conflict the remote
	// subscription ARN is replaced rather than duplicating the row.
	Upsert(ctx context.Context, tx *gorm.DB, deviceID, topicID uuid.UUID, subscriptionARN string) (*types.Subscription, error)
	GetByDeviceAndSlug(ctx context.Context, tx *gorm.DB, deviceID uuid.UUID, slug string) (*types.Subscription, error)
	ListByDeviceID(ctx context.Context, tx *gorm.DB, deviceID uuid.UUID) ([]*types.Subscription, error)
	Delete(ctx context.Context, tx *gorm.DB, subscriptionID uuid.UUID) error
}

type subscriptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubscriptionRepo(db *gorm.DB, baseLog *logger.Logger) SubscriptionRepo {
	return &subscriptionRepo{db: db, log: baseLog.With("repo", "SubscriptionRepo")}
}

func (r *subscriptionRepo) Upsert(ctx context.Context, tx *gorm.DB, deviceID, topicID uuid.UUID, subscriptionARN string) (*types.Subscription, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if deviceID == uuid.Nil || topicID == uuid.Nil {
		return nil, nil
	}
	row := &types.Subscription{
		ID:              uuid.New(),
		DeviceID:        deviceID,
		TopicID:         topicID,
		SubscriptionARN: subscriptionARN,
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}, {Name: "topic_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"subscription_arn"}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	var persisted types.Subscription
	if err := transaction.WithContext(ctx).
		Where("device_id = ? AND topic_id = ?", deviceID, topicID).
		Limit(1).
		Find(&persisted).Error; err != nil {
		return nil, err
	}
	return &persisted, nil
}

func (r *subscriptionRepo) GetByDeviceAndSlug(ctx context.Context, tx *gorm.DB, deviceID uuid.UUID, slug string) (*types.Subscription, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if deviceID == uuid.Nil {
		return nil, nil
	}
	var row types.Subscription
	err := transaction.WithContext(ctx).
		Model(&types.Subscription{}).
		Joins("JOIN topic ON topic.id = subscription.topic_id").
		Where("subscription.device_id = ? AND topic.slug = ?", deviceID, slug).
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

func (r *subscriptionRepo) ListByDeviceID(ctx context.Context, tx *gorm.DB, deviceID uuid.UUID) ([]*types.Subscription, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Subscription
	if deviceID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *subscriptionRepo) Delete(ctx context.Context, tx *gorm.DB, subscriptionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if subscriptionID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id = ?", subscriptionID).
		Delete(&types.Subscription{}).Error
}
