package types

import (
	"time"

	"github.com/google/uuid"
)

// Topic is a named notification channel. Slug is the stable key; TopicARN
// is assigned lazily by the gateway on first use and never changes after.
type Topic struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Slug      string    `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	TopicARN  string    `gorm:"column:topic_arn" json:"topic_arn"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Topic) TableName() string {
	return "topic"
}
