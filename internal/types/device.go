package types

import (
	"time"

	"github.com/google/uuid"
)

// Device is one push-capable client. (platform, device_token) is the
// natural key; ownership moves to the registering user on every
// registration. Devices are disabled at end of life, never deleted.
type Device struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;column:user_id" json:"user_id"`
	Platform    string    `gorm:"not null;uniqueIndex:idx_device_platform_token;column:platform" json:"platform"`
	DeviceToken string    `gorm:"not null;uniqueIndex:idx_device_platform_token;column:device_token" json:"-"`
	EndpointARN string    `gorm:"column:endpoint_arn" json:"endpoint_arn"`
	Enabled     bool      `gorm:"not null;default:true;column:enabled" json:"enabled"`
	LastSeenAt  time.Time `gorm:"not null;default:now();column:last_seen_at" json:"last_seen_at"`
}

func (Device) TableName() string {
	return "device"
}
