package types

import (
	"time"

	"github.com/google/uuid"
)

// Subscription ties one device to one topic. Re-subscribing replaces the
// remote subscription ARN instead of adding a second row.
type Subscription struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DeviceID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subscription_device_topic;column:device_id" json:"device_id"`
	TopicID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subscription_device_topic;column:topic_id" json:"topic_id"`
	SubscriptionARN string    `gorm:"column:subscription_arn" json:"subscription_arn"`
	CreatedAt       time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}
